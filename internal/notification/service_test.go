package notification_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/notification"
	notificationPostgres "github.com/frahmantamala/expense-reporting/internal/notification/postgres"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notification.Response
	err  error
}

func (d *recordingDispatcher) Dispatch(n notification.Response) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) Sent() []notification.Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notification.Response(nil), d.sent...)
}

var _ = Describe("NotificationService", func() {
	var (
		ctx        context.Context
		conns      *database.Connections
		dispatcher *recordingDispatcher
		svc        *notification.Service
		alice      *coreUser.Principal
		bob        *coreUser.Principal
	)

	notify := func(userID int64, title string) *notification.Response {
		resp, err := svc.Notify(ctx, notification.Message{
			UserID: userID,
			Title:  title,
			Body:   title + " body",
			Type:   notification.TypeSystem,
		})
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		conns, err = database.OpenSQLiteMemory()
		Expect(err).NotTo(HaveOccurred())

		dispatcher = &recordingDispatcher{}
		svc = notification.NewService(notificationPostgres.NewNotificationRepository(conns.Gorm), dispatcher, logger.Discard())
		alice = &coreUser.Principal{ID: 1, Role: coreUser.RoleEmployee}
		bob = &coreUser.Principal{ID: 2, Role: coreUser.RoleAdmin}
	})

	AfterEach(func() {
		conns.Close()
	})

	It("persists before dispatching", func() {
		resp := notify(alice.ID, "Welcome")

		Expect(resp.ID).NotTo(BeZero())
		Expect(resp.IsRead).To(BeFalse())
		Expect(dispatcher.Sent()).To(HaveLen(1))
		Expect(dispatcher.Sent()[0].ID).To(Equal(resp.ID))
	})

	It("keeps the notification when dispatch fails", func() {
		dispatcher.err = notification.ErrQueueFull

		_, err := svc.Notify(ctx, notification.Message{UserID: alice.ID, Title: "Queued", Type: notification.TypeSystem})
		Expect(err).NotTo(HaveOccurred())

		list, err := svc.List(ctx, alice, false, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Notifications).To(HaveLen(1))
	})

	It("tracks unread notifications per user", func() {
		first := notify(alice.ID, "First")
		notify(alice.ID, "Second")
		notify(bob.ID, "Other")

		count, err := svc.UnreadCount(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(count.UnreadCount).To(Equal(int64(2)))

		Expect(svc.MarkRead(ctx, alice, first.ID)).To(Succeed())
		unread, err := svc.List(ctx, alice, true, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(unread.Notifications).To(HaveLen(1))
		Expect(unread.Notifications[0].Title).To(Equal("Second"))

		updated, err := svc.MarkAllRead(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Updated).To(Equal(int64(1)))

		count, err = svc.UnreadCount(ctx, bob)
		Expect(err).NotTo(HaveOccurred())
		Expect(count.UnreadCount).To(Equal(int64(1)))
	})

	It("hides other users' notifications", func() {
		theirs := notify(bob.ID, "Private")

		err := svc.MarkRead(ctx, alice, theirs.ID)
		Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())

		err = svc.Delete(ctx, alice, theirs.ID)
		Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())

		Expect(svc.Delete(ctx, bob, theirs.ID)).To(Succeed())
	})

	It("lists newest first with a limit", func() {
		for _, title := range []string{"a", "b", "c"} {
			notify(alice.ID, title)
		}

		list, err := svc.List(ctx, alice, false, 2, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Notifications).To(HaveLen(2))
		Expect(list.Notifications[0].Title).To(Equal("c"))
	})
})
