package notification

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reporting/internal"
	notificationDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/notification"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
)

var ErrNotificationNotFound = internal.NewNotFoundError("notification not found", internal.ErrCodeNotificationMissing)

type RepositoryAPI interface {
	Create(ctx context.Context, n *notificationDatamodel.Notification) error
	List(ctx context.Context, filter ListFilter) ([]*notificationDatamodel.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
}

// DispatcherAPI hands persisted notifications to the realtime layer.
type DispatcherAPI interface {
	Dispatch(n Response) error
}

type Service struct {
	repo       RepositoryAPI
	dispatcher DispatcherAPI
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, dispatcher DispatcherAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Notify persists the notification and then queues it for live delivery.
func (s *Service) Notify(ctx context.Context, m Message) (*Response, error) {
	data := ToDataModel(m)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create notification", "error", err, "user_id", m.UserID, "type", m.Type)
		return nil, internal.NewInternalError("failed to create notification", err)
	}

	resp := ToResponse(data)
	if err := s.dispatcher.Dispatch(resp); err != nil {
		s.logger.Warn("notification stored but not dispatched", "notification_id", data.ID, "error", err)
	}

	s.logger.Info("notification created",
		"notification_id", data.ID,
		"user_id", m.UserID,
		"type", m.Type)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, p *coreUser.Principal, unreadOnly bool, limit, offset int) (*NotificationsResponse, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.repo.List(ctx, ListFilter{
		UserID:     p.ID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to list notifications", err)
	}

	notifications := make([]Response, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, ToResponse(row))
	}
	return &NotificationsResponse{Notifications: notifications}, nil
}

func (s *Service) UnreadCount(ctx context.Context, p *coreUser.Principal) (*UnreadCountResponse, error) {
	count, err := s.repo.CountUnread(ctx, p.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to count notifications", err)
	}
	return &UnreadCountResponse{UnreadCount: count}, nil
}

func (s *Service) MarkRead(ctx context.Context, p *coreUser.Principal, id int64) error {
	found, err := s.repo.MarkRead(ctx, id, p.ID)
	if err != nil {
		return internal.NewInternalError("failed to mark notification read", err)
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, p *coreUser.Principal) (*MarkAllReadResponse, error) {
	updated, err := s.repo.MarkAllRead(ctx, p.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to mark notifications read", err)
	}
	return &MarkAllReadResponse{Updated: updated}, nil
}

func (s *Service) Delete(ctx context.Context, p *coreUser.Principal, id int64) error {
	found, err := s.repo.Delete(ctx, id, p.ID)
	if err != nil {
		return internal.NewInternalError("failed to delete notification", err)
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}
