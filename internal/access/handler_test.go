package access_test

import (
	"bytes"
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

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/access"
	"github.com/frahmantamala/chitfund-portal/internal/access/memory"
	"github.com/frahmantamala/chitfund-portal/internal/auth"
	"github.com/frahmantamala/chitfund-portal/internal/core/events"
	"github.com/frahmantamala/chitfund-portal/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var _ = Describe("Handler", func() {
	var (
		repo      *memory.Repository
		publisher *recordingPublisher
		issuer    *session.Issuer
		handler   *access.Handler
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo = memory.NewRepository()
		publisher = &recordingPublisher{}
		issuer = session.NewIssuer(session.DefaultMaxAge, false)
		handler = access.NewHandler(access.NewService(repo, publisher, lg), issuer, lg)
	})

	submit := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/access/request", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.Submit(rec, req)
		return rec
	}

	listAll := func() []*access.AccessRequest {
		reqs, err := repo.List(context.Background(), access.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		return reqs
	}

	Describe("Submit", func() {
		It("approves a company request and writes one full cookie set", func() {
			rec := submit(`{"requestType":"company","contactPerson":"Anand","email":"anand@example.com","phone":"999","purpose":"run schemes","companyName":"Anand Chits"}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body access.SubmitResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Success).To(BeTrue())
			Expect(body.Approved).To(BeTrue())
			Expect(body.RequestID).NotTo(BeEmpty())

			cookies := rec.Result().Cookies()
			Expect(cookies).To(HaveLen(len(session.CookieNames())))
			for _, c := range cookies {
				Expect(c.Expires.Unix()).To(Equal(cookies[0].Expires.Unix()))
			}

			stored := listAll()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].Status).To(Equal(access.StatusApproved))
			Expect(publisher.events).To(HaveLen(1))
		})

		It("leaves a failing assessment pending without cookies", func() {
			rec := submit(`{"requestType":"foreman","contactPerson":"Ravi","email":"ravi@example.com","phone":"999","purpose":"operate","mcqScore":79}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body access.SubmitResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Approved).To(BeFalse())
			Expect(rec.Result().Cookies()).To(BeEmpty())
			Expect(listAll()[0].Status).To(Equal(access.StatusPending))
		})

		It("rejects missing fields with 400 and mutates nothing", func() {
			rec := submit(`{"requestType":"company","email":"anand@example.com"}`)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			var body errors.Response
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Success).To(BeFalse())
			Expect(body.Error).To(ContainSubstring("contactPerson is required"))
			Expect(body.Code).To(Equal(errors.ErrCodeMissingRequiredField))

			Expect(rec.Result().Cookies()).To(BeEmpty())
			Expect(listAll()).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("Status", func() {
		It("reports no access without cookies", func() {
			rec := httptest.NewRecorder()
			handler.Status(rec, httptest.NewRequest(http.MethodGet, "/api/access/status", nil))

			Expect(rec.Body.String()).To(MatchJSON(`{"hasAccess":false}`))
		})

		It("reflects the issued session", func() {
			approved := submit(`{"requestType":"user","contactPerson":"Meena","email":"meena@example.com","phone":"1","purpose":"save","mcqScore":70}`)

			req := httptest.NewRequest(http.MethodGet, "/api/access/status", nil)
			for _, c := range approved.Result().Cookies() {
				req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
			}
			rec := httptest.NewRecorder()
			handler.Status(rec, req)

			var body access.StatusResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.HasAccess).To(BeTrue())
			Expect(body.UserType).To(Equal("user"))
			Expect(body.UserEmail).To(Equal("meena@example.com"))
			Expect(body.RequestID).To(Equal(listAll()[0].ID))
		})
	})

	Describe("Clear", func() {
		It("past-dates the cookie set", func() {
			rec := httptest.NewRecorder()
			handler.Clear(rec, httptest.NewRequest(http.MethodPost, "/api/access/clear", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			for _, c := range rec.Result().Cookies() {
				Expect(c.MaxAge).To(BeNumerically("<", 0))
			}
		})
	})

	Describe("List", func() {
		It("filters by status", func() {
			submit(`{"requestType":"company","contactPerson":"A","email":"a@example.com","phone":"1","purpose":"p"}`)
			submit(`{"requestType":"user","contactPerson":"B","email":"b@example.com","phone":"1","purpose":"p"}`)

			rec := httptest.NewRecorder()
			handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/access/requests?status=pending", nil))

			var body access.ListResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Requests).To(HaveLen(1))
			Expect(body.Requests[0].Email).To(Equal("b@example.com"))
		})

		It("rejects an unknown status", func() {
			rec := httptest.NewRecorder()
			handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/access/requests?status=rejected", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("AdminSession", func() {
		It("records an approved admin request and issues full access", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/admin-session", nil)
			req = req.WithContext(auth.ContextWithPayload(req.Context(), &auth.TokenPayload{
				UserID: "admin-1", Role: auth.RoleAdmin, Email: "root@example.com", ExpiresAt: time.Now().Add(time.Hour),
			}))
			rec := httptest.NewRecorder()
			handler.AdminSession(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			gate := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range rec.Result().Cookies() {
				gate.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
			}
			userType, level := issuer.ReadAccess(gate)
			Expect(userType).To(Equal(session.UserTypeAdmin))
			Expect(level).To(Equal(session.AccessLevelFull))

			stored := listAll()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].RequestType).To(Equal(access.RequestTypeAdmin))
			Expect(stored[0].Status).To(Equal(access.StatusApproved))
		})

		It("refuses without a verified admin payload", func() {
			rec := httptest.NewRecorder()
			handler.AdminSession(rec, httptest.NewRequest(http.MethodPost, "/api/auth/admin-session", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(listAll()).To(BeEmpty())
		})
	})
})
