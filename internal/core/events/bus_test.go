package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		bus *events.EventBus
		ctx context.Context
	)

	BeforeEach(func() {
		bus = events.NewEventBus(nil)
		ctx = context.Background()
	})

	It("ignores events nobody listens for", func() {
		ev := events.NewAccessRequestDecidedEvent("req-1", "company", "a@b.com", "approved")
		Expect(bus.Publish(ctx, ev)).To(Succeed())
		Expect(bus.PublishSync(ctx, ev)).To(Succeed())
	})

	It("delivers asynchronously to every subscriber", func() {
		var calls atomic.Int32
		for i := 0; i < 3; i++ {
			bus.Subscribe(events.EventTypeAccessRequestDecided, func(context.Context, events.Event) error {
				calls.Add(1)
				return nil
			})
		}
		Expect(bus.HandlerCount(events.EventTypeAccessRequestDecided)).To(Equal(3))

		ev := events.NewAccessRequestDecidedEvent("req-1", "company", "a@b.com", "approved")
		Expect(bus.Publish(ctx, ev)).To(Succeed())
		Eventually(calls.Load).Should(Equal(int32(3)))
	})

	It("stops PublishSync at the first failure", func() {
		var calls atomic.Int32
		bus.Subscribe(events.EventTypeSecurityEventEscalated, func(context.Context, events.Event) error {
			calls.Add(1)
			return errors.New("archive down")
		})
		bus.Subscribe(events.EventTypeSecurityEventEscalated, func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		})

		ev := events.NewSecurityEventEscalatedEvent("sev-1", time.Now().UTC(), "10.0.0.1", "", "root_access_denied", "/", "high", nil)
		err := bus.PublishSync(ctx, ev)
		Expect(err).To(MatchError(ContainSubstring("archive down")))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("carries the escalated event fields", func() {
		ev := events.NewSecurityEventEscalatedEvent("sev-1", time.Now().UTC(), "10.0.0.1", "u1", "panic_recovered", "/x", "critical", map[string]interface{}{"k": "v"})
		Expect(ev.EventType()).To(Equal(events.EventTypeSecurityEventEscalated))
		Expect(ev.EventID()).NotTo(BeEmpty())
		Expect(ev.Payload()).To(HaveKeyWithValue("severity", "critical"))
		Expect(ev.Details).To(HaveKeyWithValue("k", "v"))
	})
	It("keeps delivering after the publisher's context is cancelled", func() {
		release := make(chan struct{})
		var sawCancel atomic.Bool
		bus.Subscribe(events.EventTypeSecurityEventEscalated, func(ctx context.Context, _ events.Event) error {
			<-release
			sawCancel.Store(ctx.Err() != nil)
			return nil
		})

		reqCtx, cancel := context.WithCancel(ctx)
		ev := events.NewSecurityEventEscalatedEvent("sev-2", time.Now().UTC(), "10.0.0.2", "", "root_access_denied", "/", "high", nil)
		Expect(bus.Publish(reqCtx, ev)).To(Succeed())
		cancel()
		close(release)

		waitCtx, stop := context.WithTimeout(ctx, time.Second)
		defer stop()
		Expect(bus.Wait(waitCtx)).To(BeTrue())
		Expect(sawCancel.Load()).To(BeFalse())
	})

	It("reports a panicking handler as a failure", func() {
		bus.Subscribe(events.EventTypeAccessRequestDecided, func(context.Context, events.Event) error {
			panic("nil repo")
		})

		ev := events.NewAccessRequestDecidedEvent("req-2", "user", "u@b.com", "pending")
		Expect(bus.PublishSync(ctx, ev)).To(MatchError(ContainSubstring("handler panicked")))
	})

	It("gives up waiting when the context expires", func() {
		release := make(chan struct{})
		DeferCleanup(func() { close(release) })
		bus.Subscribe(events.EventTypeAccessRequestDecided, func(context.Context, events.Event) error {
			<-release
			return nil
		})

		Expect(bus.Publish(ctx, events.NewAccessRequestDecidedEvent("req-3", "company", "c@b.com", "approved"))).To(Succeed())

		waitCtx, stop := context.WithTimeout(ctx, 20*time.Millisecond)
		defer stop()
		Expect(bus.Wait(waitCtx)).To(BeFalse())
	})
})
