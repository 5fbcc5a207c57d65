package notification_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal/core/events"
	"github.com/frahmantamala/expense-reporting/internal/notification"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, m notification.Message) (*notification.Response, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m)
	return &notification.Response{UserID: m.UserID, Title: m.Title}, nil
}

func (n *recordingNotifier) Last() notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.messages[len(n.messages)-1]
}

var _ = Describe("EventHandler", func() {
	var (
		ctx      context.Context
		bus      *events.EventBus
		notifier *recordingNotifier
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(logger.Discard())
		notifier = &recordingNotifier{}
		notification.NewEventHandler(notifier, logger.Discard()).RegisterEventHandlers(bus)
	})

	It("notifies the owner of an approval", func() {
		Expect(bus.PublishSync(ctx, events.NewReportReviewedEvent(4, 2, 9, "May travel", true, nil))).To(Succeed())

		m := notifier.Last()
		Expect(m.UserID).To(Equal(int64(2)))
		Expect(m.Type).To(Equal(notification.TypeReportApproved))
		Expect(m.Body).To(Equal("Your report 'May travel' has been approved."))
		Expect(*m.RelatedID).To(Equal(int64(4)))
	})

	It("includes rejection comments", func() {
		comments := "missing receipts"
		Expect(bus.PublishSync(ctx, events.NewReportReviewedEvent(4, 2, 9, "May travel", false, &comments))).To(Succeed())

		m := notifier.Last()
		Expect(m.Type).To(Equal(notification.TypeReportRejected))
		Expect(m.Body).To(HaveSuffix("missing receipts"))
	})

	It("mentions the excess when a trip produced a refund", func() {
		refundID := int64(3)
		Expect(bus.PublishSync(ctx, events.NewTripCompletedEvent(8, 2, "Jakarta Summit", 115050, nil, &refundID, 15050))).To(Succeed())

		m := notifier.Last()
		Expect(m.Type).To(Equal(notification.TypeTripCompleted))
		Expect(m.Body).To(ContainSubstring("$150.50"))
	})

	It("maps payments and closures", func() {
		Expect(bus.PublishSync(ctx, events.NewRefundPaymentRecordedEvent(3, 2, 123456, 0, "completed"))).To(Succeed())
		Expect(notifier.Last().Body).To(Equal("A payment of $1,234.56 was recorded on your refund. Current status: completed."))

		Expect(bus.PublishSync(ctx, events.NewRefundWaivedEvent(3, 2, 9, "hardship approved"))).To(Succeed())
		Expect(notifier.Last().Type).To(Equal(notification.TypeRefundWaived))

		Expect(bus.PublishSync(ctx, events.NewRefundConfirmedEvent(3, 2, 9))).To(Succeed())
		Expect(notifier.Last().Type).To(Equal(notification.TypeRefundConfirmed))
	})
})
