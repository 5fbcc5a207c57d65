package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeReportApproved        = "report.approved"
	EventTypeReportRejected        = "report.rejected"
	EventTypeTripCompleted         = "trip.completed"
	EventTypeRefundPaymentRecorded = "refund.payment_recorded"
	EventTypeRefundConfirmed       = "refund.confirmed"
	EventTypeRefundWaived          = "refund.waived"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type ReportReviewedEvent struct {
	BaseEvent
	ReportID   int64   `json:"report_id"`
	OwnerID    int64   `json:"owner_id"`
	ReviewerID int64   `json:"reviewer_id"`
	Title      string  `json:"title"`
	Approved   bool    `json:"approved"`
	Comments   *string `json:"comments,omitempty"`
}

func NewReportReviewedEvent(reportID, ownerID, reviewerID int64, title string, approved bool, comments *string) *ReportReviewedEvent {
	eventType := EventTypeReportRejected
	if approved {
		eventType = EventTypeReportApproved
	}
	return &ReportReviewedEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"report_id":   reportID,
			"owner_id":    ownerID,
			"reviewer_id": reviewerID,
			"approved":    approved,
		}),
		ReportID:   reportID,
		OwnerID:    ownerID,
		ReviewerID: reviewerID,
		Title:      title,
		Approved:   approved,
		Comments:   comments,
	}
}

type TripCompletedEvent struct {
	BaseEvent
	TripID        int64  `json:"trip_id"`
	OwnerID       int64  `json:"owner_id"`
	TripName      string `json:"trip_name"`
	TotalExpenses int64  `json:"total_expenses"`
	ReportID      *int64 `json:"report_id,omitempty"`
	RefundID      *int64 `json:"refund_id,omitempty"`
	ExcessAmount  int64  `json:"excess_amount"`
}

func NewTripCompletedEvent(tripID, ownerID int64, name string, total int64, reportID, refundID *int64, excess int64) *TripCompletedEvent {
	return &TripCompletedEvent{
		BaseEvent: newBase(EventTypeTripCompleted, map[string]interface{}{
			"trip_id":        tripID,
			"owner_id":       ownerID,
			"total_expenses": total,
			"excess_amount":  excess,
		}),
		TripID:        tripID,
		OwnerID:       ownerID,
		TripName:      name,
		TotalExpenses: total,
		ReportID:      reportID,
		RefundID:      refundID,
		ExcessAmount:  excess,
	}
}

type RefundPaymentRecordedEvent struct {
	BaseEvent
	RefundID  int64  `json:"refund_id"`
	OwnerID   int64  `json:"owner_id"`
	Amount    int64  `json:"amount"`
	Remaining int64  `json:"remaining"`
	Status    string `json:"status"`
}

func NewRefundPaymentRecordedEvent(refundID, ownerID, amount, remaining int64, status string) *RefundPaymentRecordedEvent {
	return &RefundPaymentRecordedEvent{
		BaseEvent: newBase(EventTypeRefundPaymentRecorded, map[string]interface{}{
			"refund_id": refundID,
			"owner_id":  ownerID,
			"amount":    amount,
			"remaining": remaining,
			"status":    status,
		}),
		RefundID:  refundID,
		OwnerID:   ownerID,
		Amount:    amount,
		Remaining: remaining,
		Status:    status,
	}
}

// RefundClosedEvent announces an administrative decision on a refund: confirmation or waiver.
type RefundClosedEvent struct {
	BaseEvent
	RefundID int64  `json:"refund_id"`
	OwnerID  int64  `json:"owner_id"`
	ActorID  int64  `json:"actor_id"`
	Reason   string `json:"reason,omitempty"`
}

func NewRefundConfirmedEvent(refundID, ownerID, actorID int64) *RefundClosedEvent {
	return &RefundClosedEvent{
		BaseEvent: newBase(EventTypeRefundConfirmed, map[string]interface{}{
			"refund_id": refundID,
			"owner_id":  ownerID,
		}),
		RefundID: refundID,
		OwnerID:  ownerID,
		ActorID:  actorID,
	}
}

func NewRefundWaivedEvent(refundID, ownerID, actorID int64, reason string) *RefundClosedEvent {
	return &RefundClosedEvent{
		BaseEvent: newBase(EventTypeRefundWaived, map[string]interface{}{
			"refund_id": refundID,
			"owner_id":  ownerID,
			"reason":    reason,
		}),
		RefundID: refundID,
		OwnerID:  ownerID,
		ActorID:  actorID,
		Reason:   reason,
	}
}
