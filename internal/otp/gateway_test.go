package otp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/chitfund-portal/internal/otp"
)

type smsGateway struct {
	mu       sync.Mutex
	messages []map[string]string
	auth     []string
	status   int
}

func (g *smsGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg map[string]string
	_ = json.NewDecoder(r.Body).Decode(&msg)

	g.mu.Lock()
	g.messages = append(g.messages, msg)
	g.auth = append(g.auth, r.Header.Get("Authorization"))
	status := g.status
	g.mu.Unlock()

	if status == 0 {
		status = http.StatusAccepted
	}
	w.WriteHeader(status)
}

func (g *smsGateway) received() []map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]map[string]string(nil), g.messages...)
}

var _ = Describe("GatewaySender", func() {
	var (
		gateway *smsGateway
		server  *httptest.Server
		sender  *otp.GatewaySender
	)

	BeforeEach(func() {
		gateway = &smsGateway{}
		server = httptest.NewServer(gateway)
		sender = otp.NewGatewaySender(otp.GatewayConfig{
			URL:        server.URL + "/",
			APIKey:     "sms-key",
			Timeout:    time.Second,
			MaxWorkers: 2,
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))

		DeferCleanup(func() {
			sender.Shutdown()
			server.Close()
		})
	})

	It("delivers queued codes to the gateway", func() {
		Expect(sender.Send(context.Background(), "+919800000001", "482913")).To(Succeed())

		Eventually(gateway.received).Should(HaveLen(1))
		msg := gateway.received()[0]
		Expect(msg).To(HaveKeyWithValue("to", "+919800000001"))
		Expect(msg["body"]).To(ContainSubstring("482913"))

		gateway.mu.Lock()
		Expect(gateway.auth).To(ConsistOf("Bearer sms-key"))
		gateway.mu.Unlock()
	})

	It("keeps working after a gateway error", func() {
		gateway.mu.Lock()
		gateway.status = http.StatusBadGateway
		gateway.mu.Unlock()
		Expect(sender.Send(context.Background(), "+919800000001", "111111")).To(Succeed())
		Eventually(gateway.received).Should(HaveLen(1))

		gateway.mu.Lock()
		gateway.status = http.StatusOK
		gateway.mu.Unlock()
		Expect(sender.Send(context.Background(), "+919800000002", "222222")).To(Succeed())
		Eventually(gateway.received).Should(HaveLen(2))
	})

	It("refuses codes after shutdown", func() {
		sender.Shutdown()
		Expect(sender.Send(context.Background(), "+919800000001", "123456")).NotTo(Succeed())
	})
})
