package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
)

type Notifier interface {
	Notify(ctx context.Context, m Message) (*Response, error)
}

// EventHandler turns committed domain events into user notifications.
type EventHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewEventHandler(notifier Notifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *EventHandler) HandleReportReviewed(ctx context.Context, event events.Event) error {
	reviewed, ok := event.(*events.ReportReviewedEvent)
	if !ok {
		h.logger.Error("invalid event type for report reviewed handler", "event_type", event.EventType())
		return fmt.Errorf("expected ReportReviewedEvent, got %T", event)
	}

	m := Message{
		UserID:    reviewed.OwnerID,
		Title:     "Report approved",
		Body:      fmt.Sprintf("Your report '%s' has been approved.", reviewed.Title),
		Type:      TypeReportApproved,
		RelatedID: &reviewed.ReportID,
	}
	if !reviewed.Approved {
		m.Title = "Report rejected"
		m.Body = withComment(fmt.Sprintf("Your report '%s' has been rejected.", reviewed.Title), reviewed.Comments)
		m.Type = TypeReportRejected
	}
	return h.notify(ctx, event, m)
}

func (h *EventHandler) HandleTripCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.TripCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for trip completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected TripCompletedEvent, got %T", event)
	}

	body := fmt.Sprintf("Your trip '%s' has been completed.", completed.TripName)
	if completed.RefundID != nil {
		body += fmt.Sprintf(" Spending exceeded the budget by $%s; a refund is due.", money.Format(completed.ExcessAmount))
	}
	return h.notify(ctx, event, Message{
		UserID:    completed.OwnerID,
		Title:     "Trip completed",
		Body:      body,
		Type:      TypeTripCompleted,
		RelatedID: &completed.TripID,
	})
}

func (h *EventHandler) HandleRefundPayment(ctx context.Context, event events.Event) error {
	payment, ok := event.(*events.RefundPaymentRecordedEvent)
	if !ok {
		h.logger.Error("invalid event type for refund payment handler", "event_type", event.EventType())
		return fmt.Errorf("expected RefundPaymentRecordedEvent, got %T", event)
	}

	return h.notify(ctx, event, Message{
		UserID: payment.OwnerID,
		Title:  "Refund payment recorded",
		Body: fmt.Sprintf("A payment of $%s was recorded on your refund. Current status: %s.",
			money.Format(payment.Amount), payment.Status),
		Type:      TypeRefundPayment,
		RelatedID: &payment.RefundID,
	})
}

func (h *EventHandler) HandleRefundClosed(ctx context.Context, event events.Event) error {
	closed, ok := event.(*events.RefundClosedEvent)
	if !ok {
		h.logger.Error("invalid event type for refund closed handler", "event_type", event.EventType())
		return fmt.Errorf("expected RefundClosedEvent, got %T", event)
	}

	m := Message{
		UserID:    closed.OwnerID,
		Title:     "Refund confirmed",
		Body:      "Your refund has been confirmed.",
		Type:      TypeRefundConfirmed,
		RelatedID: &closed.RefundID,
	}
	if closed.EventType() == events.EventTypeRefundWaived {
		m.Title = "Refund waived"
		m.Body = withComment("Your refund has been waived.", &closed.Reason)
		m.Type = TypeRefundWaived
	}
	return h.notify(ctx, event, m)
}

func (h *EventHandler) notify(ctx context.Context, event events.Event, m Message) error {
	if _, err := h.notifier.Notify(ctx, m); err != nil {
		h.logger.Error("failed to notify user",
			"error", err,
			"user_id", m.UserID,
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return fmt.Errorf("notification failed for event %s: %w", event.EventID(), err)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeReportApproved, h.HandleReportReviewed)
	eventBus.Subscribe(events.EventTypeReportRejected, h.HandleReportReviewed)
	eventBus.Subscribe(events.EventTypeTripCompleted, h.HandleTripCompleted)
	eventBus.Subscribe(events.EventTypeRefundPaymentRecorded, h.HandleRefundPayment)
	eventBus.Subscribe(events.EventTypeRefundConfirmed, h.HandleRefundClosed)
	eventBus.Subscribe(events.EventTypeRefundWaived, h.HandleRefundClosed)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeReportApproved,
			events.EventTypeReportRejected,
			events.EventTypeTripCompleted,
			events.EventTypeRefundPaymentRecorded,
			events.EventTypeRefundConfirmed,
			events.EventTypeRefundWaived,
		})
}

func withComment(body string, comment *string) string {
	if comment == nil || strings.TrimSpace(*comment) == "" {
		return body
	}
	return body + " " + strings.TrimSpace(*comment)
}
