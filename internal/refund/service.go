package refund

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
)

var (
	ErrRefundNotFound = internal.NewNotFoundError("refund not found", internal.ErrCodeRefundNotFound)
	ErrNotPayable     = internal.NewConflictError("refund is not accepting payments", internal.ErrCodeRefundNotPayable)
	ErrNotCompleted   = internal.NewConflictError("only completed refunds can be confirmed", internal.ErrCodeRefundNotCompleted)
	ErrAlreadyClosed  = internal.NewConflictError("refund is already waived or completed", internal.ErrCodeInvalidStatus)
	ErrOverpaid       = internal.NewValidationFieldError("amount", "amount exceeds the remaining balance", internal.ErrCodeRefundOverpaid)
)

// Payment is one repayment applied atomically by the repository.
type Payment struct {
	Amount     int64
	Method     string
	Notes      *string
	ReceiptURL *string
	At         time.Time
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*refundDatamodel.Refund, error)
	List(ctx context.Context, filter ListFilter, now time.Time) ([]*refundDatamodel.Refund, error)
	// ApplyPayment reports false when the refund is no longer payable or the amount would overpay it.
	ApplyPayment(ctx context.Context, id int64, payment Payment) (bool, error)
	Update(ctx context.Context, refund *refundDatamodel.Refund) error
	Delete(ctx context.Context, id int64) error
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type TripReader interface {
	GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error)
}

type Service struct {
	repo      RepositoryAPI
	users     UserReader
	trips     TripReader
	txManager database.TransactionManager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, users UserReader, trips TripReader, txManager database.TransactionManager, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		trips:     trips,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List shows employees their own refunds; privileged users may filter by user.
func (s *Service) List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*RefundsResponse, error) {
	if !p.IsPrivileged() {
		filter.UserID = &p.ID
	}

	rows, err := s.repo.List(ctx, filter, s.now())
	if err != nil {
		s.logger.Error("failed to list refunds", "error", err, "user_id", p.ID)
		return nil, internal.NewInternalError("failed to list refunds", err)
	}

	e := s.newEnricher()
	refunds := make([]Response, 0, len(rows))
	for _, row := range rows {
		resp, err := e.response(ctx, row)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, resp)
	}
	return &RefundsResponse{Refunds: refunds, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, p *coreUser.Principal, id int64) (*Response, error) {
	r, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, r)
}

// RecordPayment applies a repayment by the owner or a privileged user.
func (s *Service) RecordPayment(ctx context.Context, p *coreUser.Principal, id int64, dto PaymentDTO) (*Response, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !Payable(r.Status) {
		return nil, ErrNotPayable
	}
	if dto.Amount > RemainingAmount(r) {
		return nil, ErrOverpaid
	}

	applied, err := s.repo.ApplyPayment(ctx, id, Payment{
		Amount:     dto.Amount,
		Method:     dto.RefundMethod,
		Notes:      dto.Notes,
		ReceiptURL: dto.ReceiptURL,
		At:         s.now(),
	})
	if err != nil {
		s.logger.Error("failed to record refund payment", "refund_id", id, "error", err)
		return nil, internal.NewInternalError("failed to record payment", err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !applied {
		// a concurrent payment or state change won
		if !Payable(updated.Status) {
			return nil, ErrNotPayable
		}
		return nil, ErrOverpaid
	}

	s.logger.Info("refund payment recorded",
		"refund_id", id,
		"actor_id", p.ID,
		"amount", dto.Amount,
		"remaining", RemainingAmount(updated),
		"status", updated.Status)

	s.publish(ctx, events.NewRefundPaymentRecordedEvent(updated.ID, updated.UserID, dto.Amount, RemainingAmount(updated), updated.Status))
	return s.respond(ctx, updated)
}

// Confirm is the administrative sign-off on a completed refund.
func (s *Service) Confirm(ctx context.Context, p *coreUser.Principal, id int64, dto ConfirmDTO) (*Response, error) {
	if err := coreUser.RequirePrivileged(p); err != nil {
		return nil, err
	}

	var confirmed *refundDatamodel.Refund
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusCompleted {
			return ErrNotCompleted
		}

		now := s.now()
		r.CompletedDate = &now
		r.AdminNotes = appendNote(r.AdminNotes, dto.AdminNotes)
		if err := s.repo.Update(txCtx, r); err != nil {
			return internal.NewInternalError("failed to confirm refund", err)
		}
		confirmed = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund confirmed", "refund_id", id, "actor_id", p.ID)
	s.publish(ctx, events.NewRefundConfirmedEvent(confirmed.ID, confirmed.UserID, p.ID))
	return s.respond(ctx, confirmed)
}

// Waive forgives the outstanding balance. Waived is terminal.
func (s *Service) Waive(ctx context.Context, p *coreUser.Principal, id int64, dto WaiveDTO) (*Response, error) {
	if err := coreUser.RequirePrivileged(p); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var waived *refundDatamodel.Refund
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if r.Status == StatusWaived || r.Status == StatusCompleted {
			return ErrAlreadyClosed
		}

		now := s.now()
		reason := dto.WaiveReason
		r.Status = StatusWaived
		r.WaiveReason = &reason
		r.CompletedDate = &now
		r.AdminNotes = appendNote(r.AdminNotes, dto.AdminNotes)
		if err := s.repo.Update(txCtx, r); err != nil {
			return internal.NewInternalError("failed to waive refund", err)
		}
		waived = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund waived", "refund_id", id, "actor_id", p.ID, "remaining", RemainingAmount(waived))
	s.publish(ctx, events.NewRefundWaivedEvent(waived.ID, waived.UserID, p.ID, dto.WaiveReason))
	return s.respond(ctx, waived)
}

func (s *Service) Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateRefundDTO) (*Response, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *refundDatamodel.Refund
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.loadAccessible(txCtx, p, id)
		if err != nil {
			return err
		}
		if dto.Notes != nil {
			r.Notes = *dto.Notes
		}
		if dto.RefundMethod != nil {
			r.RefundMethod = dto.RefundMethod
		}
		if dto.ReceiptURL != nil {
			r.ReceiptURL = dto.ReceiptURL
		}
		if err := s.repo.Update(txCtx, r); err != nil {
			return internal.NewInternalError("failed to update refund", err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, updated)
}

func (s *Service) Delete(ctx context.Context, p *coreUser.Principal, id int64) error {
	if err := coreUser.RequirePrivileged(p); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete refund", err)
	}
	s.logger.Info("refund deleted", "refund_id", id, "actor_id", p.ID)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*refundDatamodel.Refund, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get refund", err)
	}
	if r == nil {
		return nil, ErrRefundNotFound
	}
	return r, nil
}

func (s *Service) loadAccessible(ctx context.Context, p *coreUser.Principal, id int64) (*refundDatamodel.Refund, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(r.UserID) {
		return nil, ErrRefundNotFound
	}
	return r, nil
}

func (s *Service) respond(ctx context.Context, r *refundDatamodel.Refund) (*Response, error) {
	resp, err := s.newEnricher().response(ctx, r)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish refund event", "event_type", event.EventType(), "error", err)
	}
}

// enricher resolves trip and user names once per id.
type enricher struct {
	s     *Service
	users map[int64]*userDatamodel.User
	trips map[int64]*tripDatamodel.Trip
}

func (s *Service) newEnricher() *enricher {
	return &enricher{
		s:     s,
		users: make(map[int64]*userDatamodel.User),
		trips: make(map[int64]*tripDatamodel.Trip),
	}
}

func (e *enricher) response(ctx context.Context, r *refundDatamodel.Refund) (Response, error) {
	resp := ToResponse(r, e.s.now())

	u, ok := e.users[r.UserID]
	if !ok {
		var err error
		if u, err = e.s.users.GetByID(ctx, r.UserID); err != nil {
			return resp, internal.NewInternalError("failed to load refund owner", err)
		}
		e.users[r.UserID] = u
	}
	if u != nil {
		resp.UserName = u.FullName
		resp.UserEmail = u.Email
	}

	t, ok := e.trips[r.TripID]
	if !ok {
		var err error
		if t, err = e.s.trips.GetByID(ctx, r.TripID); err != nil {
			return resp, internal.NewInternalError("failed to load refund trip", err)
		}
		e.trips[r.TripID] = t
	}
	if t != nil {
		resp.TripName = t.Name
	}
	return resp, nil
}

func appendNote(existing string, note *string) string {
	if note == nil || strings.TrimSpace(*note) == "" {
		return existing
	}
	if existing == "" {
		return strings.TrimSpace(*note)
	}
	return existing + "\n" + strings.TrimSpace(*note)
}
