package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/activity"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

const testSecret = "0123456789abcdef0123456789abcdef"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = ginkgo.Describe("JWTTokenManager", func() {
	var (
		manager *JWTTokenManager
		now     time.Time
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
		manager = NewJWTTokenManager(testSecret, time.Hour, "chitfund-portal").WithClock(func() time.Time { return now })
	})

	ginkgo.It("round-trips a payload", func() {
		token, err := manager.Issue(TokenPayload{UserID: "u1", Role: RoleForeman, UCFSIN: "UCF123", Email: "f@example.com"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		payload := manager.Verify(token)
		gomega.Expect(payload).NotTo(gomega.BeNil())
		gomega.Expect(payload.UserID).To(gomega.Equal("u1"))
		gomega.Expect(payload.Role).To(gomega.Equal(RoleForeman))
		gomega.Expect(payload.UCFSIN).To(gomega.Equal("UCF123"))
		gomega.Expect(payload.Email).To(gomega.Equal("f@example.com"))
		gomega.Expect(payload.ExpiresAt).To(gomega.BeTemporally("==", now.Add(time.Hour)))
	})

	ginkgo.It("returns nil for an expired token with a valid signature", func() {
		token, err := manager.Issue(TokenPayload{UserID: "u1", Role: RoleAdmin, ExpiresAt: now.Add(-time.Minute)})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(manager.Verify(token)).To(gomega.BeNil())
	})

	ginkgo.It("returns nil once the clock passes the expiry", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "u1", Role: RoleUser})
		now = now.Add(2 * time.Hour)
		gomega.Expect(manager.Verify(token)).To(gomega.BeNil())
	})

	ginkgo.It("returns nil for a token signed with another secret", func() {
		other := NewJWTTokenManager("ffffffffffffffffffffffffffffffff", time.Hour, "x").WithClock(func() time.Time { return now })
		token, _ := other.Issue(TokenPayload{UserID: "u1", Role: RoleAdmin})
		gomega.Expect(manager.Verify(token)).To(gomega.BeNil())
	})

	ginkgo.It("returns nil for a tampered payload", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "u1", Role: RoleUser})
		parts := strings.Split(token, ".")
		forged, _ := NewJWTTokenManager(testSecret, time.Hour, "x").WithClock(func() time.Time { return now }).
			Issue(TokenPayload{UserID: "u1", Role: RoleAdmin})
		parts[1] = strings.Split(forged, ".")[1]
		gomega.Expect(manager.Verify(strings.Join(parts, "."))).To(gomega.BeNil())
	})

	ginkgo.It("returns nil for unsigned and malformed tokens", func() {
		claims := &Claims{UserID: "u1", Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(manager.Verify(unsigned)).To(gomega.BeNil())
		gomega.Expect(manager.Verify("not-a-token")).To(gomega.BeNil())
		gomega.Expect(manager.Verify("")).To(gomega.BeNil())
	})

	ginkgo.It("returns nil for a token without expiry", func() {
		claims := &Claims{UserID: "u1", Role: RoleAdmin}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(manager.Verify(token)).To(gomega.BeNil())
	})

	ginkgo.It("returns nil for an unknown role claim", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "u1", Role: Role("superuser")})
		gomega.Expect(manager.Verify(token)).To(gomega.BeNil())
	})

	ginkgo.It("refuses to sign without a secret", func() {
		_, err := NewJWTTokenManager("", time.Hour, "x").Issue(TokenPayload{UserID: "u1", Role: RoleUser})
		gomega.Expect(err).To(gomega.MatchError(ErrEmptySecret))
	})
})

var _ = ginkgo.Describe("Authorizer", func() {
	var (
		manager    *JWTTokenManager
		monitor    *activity.Monitor
		authorizer *Authorizer
	)

	ginkgo.BeforeEach(func() {
		manager = NewJWTTokenManager(testSecret, time.Hour, "chitfund-portal")
		monitor = activity.NewMonitor(100, quietLogger())
		authorizer = NewAuthorizer(manager, monitor)
	})

	ginkgo.It("accepts a token with the required role without logging", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "a1", Role: RoleAdmin})
		payload, err := authorizer.Authorize(context.Background(), token, RoleAdmin, "10.0.0.9", "/api/activity")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(payload.UserID).To(gomega.Equal("a1"))
		gomega.Expect(monitor.Len()).To(gomega.BeZero())
	})

	ginkgo.It("logs exactly one invalid_token_verification entry on role mismatch", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "u1", Role: RoleUser})
		_, err := authorizer.Authorize(context.Background(), token, RoleAdmin, "10.0.0.9", "/api/activity")
		gomega.Expect(err).To(gomega.MatchError(errors.ErrInvalidToken))

		entries := monitor.Events(activity.Filter{})
		gomega.Expect(entries).To(gomega.HaveLen(1))
		gomega.Expect(entries[0].Action).To(gomega.Equal(activity.ActionInvalidTokenVerification))
		gomega.Expect(entries[0].Severity).To(gomega.Equal(activity.SeverityMedium))
		gomega.Expect(entries[0].IP).To(gomega.Equal("10.0.0.9"))
		gomega.Expect(entries[0].Details).To(gomega.HaveKeyWithValue("attemptedRole", "admin"))
	})

	ginkgo.It("reports invalid and missing tokens identically", func() {
		_, errMissing := authorizer.Authorize(context.Background(), "", RoleAdmin, "1.1.1.1", "/")
		_, errInvalid := authorizer.Authorize(context.Background(), "garbage", RoleAdmin, "1.1.1.1", "/")

		gomega.Expect(errMissing.Error()).To(gomega.Equal(errInvalid.Error()))
		gomega.Expect(monitor.Events(activity.Filter{Severity: activity.SeverityMedium})).To(gomega.HaveLen(2))
	})

	ginkgo.Describe("RequireRole", func() {
		var next http.Handler

		ginkgo.BeforeEach(func() {
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				payload, ok := PayloadFromContext(r.Context())
				gomega.Expect(ok).To(gomega.BeTrue())
				w.Write([]byte(payload.UserID))
			})
		})

		ginkgo.It("passes the payload to the next handler", func() {
			token, _ := manager.Issue(TokenPayload{UserID: "a1", Role: RoleAdmin})
			req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			authorizer.RequireRole(RoleAdmin)(next).ServeHTTP(rec, req)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Body.String()).To(gomega.Equal("a1"))
		})

		ginkgo.It("answers 401 with the uniform body", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
			rec := httptest.NewRecorder()

			authorizer.RequireRole(RoleAdmin)(next).ServeHTTP(rec, req)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))

			var body errors.Response
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.Success).To(gomega.BeFalse())
			gomega.Expect(body.Error).To(gomega.Equal("Invalid token"))
		})
	})
})

var _ = ginkgo.Describe("Handler.Verify", func() {
	var (
		manager *JWTTokenManager
		monitor *activity.Monitor
		handler *Handler
	)

	ginkgo.BeforeEach(func() {
		manager = NewJWTTokenManager(testSecret, time.Hour, "chitfund-portal")
		monitor = activity.NewMonitor(100, quietLogger())
		handler = NewHandler(NewAuthorizer(manager, monitor), quietLogger())
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.Verify(rec, req)
		return rec
	}

	ginkgo.It("returns the user for a matching role", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "f1", Role: RoleForeman, UCFSIN: "UCF9"})
		rec := post(`{"token":"` + token + `","role":"foreman"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var body VerifyResponse
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body.Success).To(gomega.BeTrue())
		gomega.Expect(body.User.UserID).To(gomega.Equal("f1"))
		gomega.Expect(body.User.UCFSIN).To(gomega.Equal("UCF9"))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("email"))
	})

	ginkgo.It("answers 401 and logs once on role mismatch", func() {
		token, _ := manager.Issue(TokenPayload{UserID: "f1", Role: RoleForeman})
		rec := post(`{"token":"` + token + `","role":"admin"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(monitor.Events(activity.Filter{})).To(gomega.HaveLen(1))
	})

	ginkgo.It("answers 400 for a malformed body", func() {
		rec := post(`{`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})
})
