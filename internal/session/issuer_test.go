package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/chitfund-portal/internal/session"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

func requestWith(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

var _ = Describe("Issuer", func() {
	var (
		issuer *session.Issuer
		now    time.Time
	)

	BeforeEach(func() {
		now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		issuer = session.NewIssuer(session.DefaultMaxAge, true).WithClock(func() time.Time { return now })
	})

	Describe("Issue", func() {
		It("writes one complete cookie set with identical expiry", func() {
			w := httptest.NewRecorder()
			cred := issuer.Issue(w, session.UserTypeForeman, "ravi@example.com", "req-1", session.AccessLevelLimited)

			cookies := w.Result().Cookies()
			Expect(cookies).To(HaveLen(len(session.CookieNames())))

			names := make([]string, 0, len(cookies))
			for _, c := range cookies {
				names = append(names, c.Name)
				Expect(c.Path).To(Equal("/"))
				Expect(c.MaxAge).To(Equal(int((30 * 24 * time.Hour).Seconds())))
				Expect(c.Expires.Unix()).To(Equal(cookies[0].Expires.Unix()))
				Expect(c.HttpOnly).To(BeFalse())
				Expect(c.Secure).To(BeTrue())
				Expect(c.SameSite).To(Equal(http.SameSiteLaxMode))
			}
			Expect(names).To(ConsistOf(session.CookieNames()))
			Expect(cred.ExpiresAt).To(Equal(now.Add(30 * 24 * time.Hour)))
		})

		It("round-trips through Read", func() {
			w := httptest.NewRecorder()
			issued := issuer.Issue(w, session.UserTypeCompany, "ops+chit@example.com", "req-2", session.AccessLevelLimited)

			cred, ok := issuer.Read(requestWith(w.Result().Cookies()))
			Expect(ok).To(BeTrue())
			Expect(cred.UserType).To(Equal(session.UserTypeCompany))
			Expect(cred.Email).To(Equal("ops+chit@example.com"))
			Expect(cred.RequestID).To(Equal("req-2"))
			Expect(cred.AccessLevel).To(Equal(session.AccessLevelLimited))
			Expect(cred.ExpiresAt).To(Equal(issued.ExpiresAt))
		})

		It("marks admin access only for full level", func() {
			w := httptest.NewRecorder()
			issuer.Issue(w, session.UserTypeAdmin, "root@example.com", "req-3", session.AccessLevelFull)

			userType, level := issuer.ReadAccess(requestWith(w.Result().Cookies()))
			Expect(userType).To(Equal(session.UserTypeAdmin))
			Expect(level).To(Equal(session.AccessLevelFull))
		})
	})

	Describe("Clear", func() {
		It("past-dates every cookie of the set", func() {
			w := httptest.NewRecorder()
			issuer.Clear(w)

			cookies := w.Result().Cookies()
			Expect(cookies).To(HaveLen(len(session.CookieNames())))
			for _, c := range cookies {
				Expect(c.Value).To(BeEmpty())
				Expect(c.MaxAge).To(BeNumerically("<", 0))
			}
		})
	})

	Describe("Read", func() {
		It("reports no session without cookies", func() {
			_, ok := issuer.Read(httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(ok).To(BeFalse())
		})

		It("treats a partial set as no session", func() {
			w := httptest.NewRecorder()
			issuer.Issue(w, session.UserTypeUser, "u@example.com", "req-4", session.AccessLevelLimited)

			var partial []*http.Cookie
			for _, c := range w.Result().Cookies() {
				if c.Name != session.CookieRequestID {
					partial = append(partial, c)
				}
			}
			_, ok := issuer.Read(requestWith(partial))
			Expect(ok).To(BeFalse())
		})

		It("rejects an unknown user type", func() {
			req := requestWith([]*http.Cookie{
				{Name: session.CookieAccessApproved, Value: "true"},
				{Name: session.CookieUserType, Value: "superuser"},
				{Name: session.CookieUserEmail, Value: "x@example.com"},
				{Name: session.CookieRequestID, Value: "req-5"},
				{Name: session.CookieApprovedAt, Value: now.Format(time.RFC3339)},
			})
			_, ok := issuer.Read(req)
			Expect(ok).To(BeFalse())
		})

		It("expires lazily once the max age has passed", func() {
			w := httptest.NewRecorder()
			issuer.Issue(w, session.UserTypeUser, "u@example.com", "req-6", session.AccessLevelLimited)
			cookies := w.Result().Cookies()

			now = now.Add(30*24*time.Hour - time.Second)
			_, ok := issuer.Read(requestWith(cookies))
			Expect(ok).To(BeTrue())

			now = now.Add(time.Second)
			_, ok = issuer.Read(requestWith(cookies))
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ReadAccess", func() {
		It("downgrades a missing admin flag to limited", func() {
			req := requestWith([]*http.Cookie{{Name: session.CookieUserType, Value: "admin"}})
			userType, level := issuer.ReadAccess(req)
			Expect(userType).To(Equal(session.UserTypeAdmin))
			Expect(level).To(Equal(session.AccessLevelLimited))
		})
	})
})

var _ = Describe("AccessLevelFor", func() {
	It("grants full access to admins only", func() {
		Expect(session.AccessLevelFor(session.UserTypeAdmin)).To(Equal(session.AccessLevelFull))
		for _, t := range session.NonAdminUserTypes() {
			Expect(session.AccessLevelFor(t)).To(Equal(session.AccessLevelLimited))
		}
	})
})
