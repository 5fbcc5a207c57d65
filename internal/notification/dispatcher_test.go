package notification_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal/notification"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

type channelPusher struct {
	pushed chan notification.Response
}

func (p *channelPusher) Push(ctx context.Context, userID int64, n notification.Response) error {
	p.pushed <- n
	return nil
}

// blockingPusher holds every push until released.
type blockingPusher struct {
	release chan struct{}
	once    sync.Once
}

func (p *blockingPusher) Push(ctx context.Context, userID int64, n notification.Response) error {
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	return nil
}

func (p *blockingPusher) Release() {
	p.once.Do(func() { close(p.release) })
}

var _ = Describe("Dispatcher", func() {
	It("delivers queued notifications through the workers", func() {
		pusher := &channelPusher{pushed: make(chan notification.Response, 3)}
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 2, QueueSize: 3}, pusher, logger.Discard())
		d.Start()
		defer d.Shutdown()

		for id := int64(1); id <= 3; id++ {
			Expect(d.Dispatch(notification.Response{ID: id, UserID: 7})).To(Succeed())
		}

		var ids []int64
		for i := 0; i < 3; i++ {
			var n notification.Response
			Eventually(pusher.pushed).Should(Receive(&n))
			ids = append(ids, n.ID)
		}
		Expect(ids).To(ConsistOf(int64(1), int64(2), int64(3)))
	})

	It("refuses work once the queue is full", func() {
		pusher := &blockingPusher{release: make(chan struct{})}
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 1, QueueSize: 1}, pusher, logger.Discard())

		// not started: nothing drains the queue
		Expect(d.Dispatch(notification.Response{ID: 1})).To(Succeed())
		Expect(d.Dispatch(notification.Response{ID: 2})).To(MatchError(notification.ErrQueueFull))

		d.Start()
		pusher.Release()
		d.Shutdown()
	})

	It("pushes what is still queued before shutting down", func() {
		pusher := &channelPusher{pushed: make(chan notification.Response, 2)}
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 1, QueueSize: 2}, pusher, logger.Discard())

		Expect(d.Dispatch(notification.Response{ID: 1})).To(Succeed())
		Expect(d.Dispatch(notification.Response{ID: 2})).To(Succeed())
		d.Start()
		d.Shutdown()

		Expect(pusher.pushed).To(HaveLen(2))
	})

	It("shuts down more than once without blocking", func() {
		d := notification.NewDispatcher(notification.DispatcherConfig{}, &channelPusher{pushed: make(chan notification.Response, 1)}, logger.Discard())
		d.Start()
		d.Shutdown()
		d.Shutdown()
	})
})
