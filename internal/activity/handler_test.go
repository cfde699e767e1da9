package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/activity/postgres"
)

type stubArchive struct {
	rows []postgres.ArchivedEvent
	err  error
}

func (s *stubArchive) ListSince(context.Context, time.Time, int) ([]postgres.ArchivedEvent, error) {
	return s.rows, s.err
}

var _ = Describe("Handler", func() {
	var (
		monitor *activity.Monitor
		handler *activity.Handler
	)

	BeforeEach(func() {
		monitor = activity.NewMonitor(500, quietLogger())
		handler = activity.NewHandler(monitor, 100, quietLogger())
	})

	Describe("ListEvents", func() {
		It("caps the page at the query limit and reports the total", func() {
			for i := 0; i < 150; i++ {
				monitor.Log(context.Background(), activity.SecurityEvent{Action: "probe", IP: "1.2.3.4", Severity: activity.SeverityMedium})
			}
			monitor.Log(context.Background(), activity.SecurityEvent{Action: "other", IP: "5.6.7.8", Severity: activity.SeverityLow})

			req := httptest.NewRequest(http.MethodGet, "/api/activity?severity=medium&ip=1.2.3.4", nil)
			rec := httptest.NewRecorder()
			handler.ListEvents(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body activity.ListResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Success).To(BeTrue())
			Expect(body.Total).To(Equal(150))
			Expect(body.Events).To(HaveLen(100))
		})

		It("rejects an unknown severity", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/activity?severity=loud", nil)
			rec := httptest.NewRecorder()
			handler.ListEvents(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(`"success":false`))
		})
	})

	Describe("ListArchived", func() {
		It("answers 404 without an archive", func() {
			rec := httptest.NewRecorder()
			handler.ListArchived(rec, httptest.NewRequest(http.MethodGet, "/api/activity/archive", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("lists archived rows", func() {
			handler.WithArchive(&stubArchive{rows: []postgres.ArchivedEvent{{ID: "e1", Action: "x", Severity: "high"}}})
			rec := httptest.NewRecorder()
			handler.ListArchived(rec, httptest.NewRequest(http.MethodGet, "/api/activity/archive?since=2026-01-01T00:00:00Z", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"id":"e1"`))
		})

		It("hides storage failures behind a generic 500", func() {
			handler.WithArchive(&stubArchive{err: errors.New("connection refused")})
			rec := httptest.NewRecorder()
			handler.ListArchived(rec, httptest.NewRequest(http.MethodGet, "/api/activity/archive", nil))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})
})
