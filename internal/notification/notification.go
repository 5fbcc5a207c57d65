package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/notification"
)

const (
	TypeReportApproved  = "report_approved"
	TypeReportRejected  = "report_rejected"
	TypeTripCompleted   = "trip_completed"
	TypeRefundPayment   = "refund_payment"
	TypeRefundConfirmed = "refund_confirmed"
	TypeRefundWaived    = "refund_waived"
	TypeSystem          = "system"

	DefaultLimit = 50
)

// Message is one notification addressed to a user.
type Message struct {
	UserID    int64
	Title     string
	Body      string
	Type      string
	RelatedID *int64
}

type Response struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID *int64    `json:"related_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []Response `json:"notifications"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type ListFilter struct {
	UserID     int64
	UnreadOnly bool
	Limit      int
	Offset     int
}

func ToDataModel(m Message) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		UserID:    m.UserID,
		Title:     m.Title,
		Message:   m.Body,
		Type:      m.Type,
		RelatedID: m.RelatedID,
	}
}

func ToResponse(n *notificationDatamodel.Notification) Response {
	return Response{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
