package access_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/chitfund-portal/internal/access"
	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

var _ = Describe("EventHandler", func() {
	var h *access.EventHandler

	BeforeEach(func() {
		h = access.NewEventHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("counts pending decisions only", func() {
		ctx := context.Background()
		Expect(h.HandleAccessRequestDecided(ctx, events.NewAccessRequestDecidedEvent("r1", "foreman", "a@b.com", "pending"))).To(Succeed())
		Expect(h.HandleAccessRequestDecided(ctx, events.NewAccessRequestDecidedEvent("r2", "company", "c@d.com", "approved"))).To(Succeed())
		Expect(h.Pending()).To(Equal(int64(1)))
	})

	It("rejects foreign events", func() {
		ev := events.NewSecurityEventEscalatedEvent("s1", time.Now(), "", "", "x", "/", "high", nil)
		Expect(h.HandleAccessRequestDecided(context.Background(), ev)).To(HaveOccurred())
	})

	It("receives decisions through the bus", func() {
		bus := events.NewEventBus(nil)
		h.RegisterEventHandlers(bus)

		Expect(bus.PublishSync(context.Background(), events.NewAccessRequestDecidedEvent("r1", "user", "a@b.com", "pending"))).To(Succeed())
		Expect(h.Pending()).To(Equal(int64(1)))
	})
})
