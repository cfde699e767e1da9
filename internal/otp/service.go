package otp

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/activity"
)

// Sender delivers a code to a phone. Delivery providers live outside the
// portal.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

type Config struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendInterval time.Duration
	Length         int
	BCryptCost     int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.ResendInterval < 0 {
		c.ResendInterval = 0
	}
	if c.Length < 4 || c.Length > 10 {
		c.Length = 6
	}
	if c.BCryptCost < bcrypt.MinCost || c.BCryptCost > bcrypt.MaxCost {
		c.BCryptCost = bcrypt.DefaultCost
	}
	return c
}

type entry struct {
	hash      []byte
	issuedAt  time.Time
	expiresAt time.Time
	attempts  int
}

// Service issues and checks one-time codes. Only a bcrypt hash of each code is
// kept, and expired entries are dropped when touched.
type Service struct {
	cfg    Config
	sender Sender
	events activity.Logger
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	store map[string]*entry
}

func NewService(cfg Config, sender Sender, events activity.Logger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg.withDefaults(),
		sender: sender,
		events: events,
		logger: logger,
		now:    time.Now,
		store:  make(map[string]*entry),
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Send generates and delivers a new code, replacing any earlier one. It
// returns the expiry of the new code.
func (s *Service) Send(ctx context.Context, phone string) (time.Time, error) {
	key := normalizePhone(phone)
	if len(strings.TrimPrefix(key, "+")) < 6 {
		return time.Time{}, errors.NewValidationFieldError("phone", "phone must contain at least 6 digits", errors.ErrCodeValidationFailed)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TTL)

	// The slot is taken before delivery so concurrent sends for one phone
	// hit the resend interval. It has no hash until the code is out.
	s.mu.Lock()
	prev, ok := s.store[key]
	if ok && now.Before(prev.expiresAt) && now.Sub(prev.issuedAt) < s.cfg.ResendInterval {
		s.mu.Unlock()
		return time.Time{}, errors.ErrOTPResendTooSoon
	}
	reserved := &entry{issuedAt: now, expiresAt: expiresAt}
	s.store[key] = reserved
	s.mu.Unlock()

	code, err := generateCode(s.cfg.Length)
	if err != nil {
		s.release(key, reserved, prev)
		return time.Time{}, errors.NewInternalError("failed to generate verification code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BCryptCost)
	if err != nil {
		s.release(key, reserved, prev)
		return time.Time{}, errors.NewInternalError("failed to hash verification code", err)
	}

	if err := s.sender.Send(ctx, key, code); err != nil {
		s.release(key, reserved, prev)
		s.logger.Error("otp delivery failed", "error", err)
		return time.Time{}, errors.NewInternalError("failed to deliver verification code", err)
	}

	s.mu.Lock()
	reserved.hash = hash
	s.mu.Unlock()

	return expiresAt, nil
}

// release gives a failed reservation back, restoring the code it replaced.
func (s *Service) release(key string, reserved, prev *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store[key] != reserved {
		return
	}
	if prev != nil {
		s.store[key] = prev
		return
	}
	delete(s.store, key)
}

// Verify checks code for phone. A matching code is consumed. The attempt is
// counted before the bcrypt comparison, which runs without the lock.
func (s *Service) Verify(ctx context.Context, phone, code, ip string) error {
	key := normalizePhone(phone)
	now := s.now()

	s.mu.Lock()
	e, ok := s.store[key]
	if !ok || e.hash == nil {
		s.mu.Unlock()
		return errors.ErrOTPNotFound
	}
	if !now.Before(e.expiresAt) {
		delete(s.store, key)
		s.mu.Unlock()
		return errors.ErrOTPExpired
	}
	// budget taken by comparisons still in flight; the failing one deletes
	if e.attempts >= s.cfg.MaxAttempts {
		attempts := e.attempts
		s.mu.Unlock()
		s.record(ctx, activity.ActionOTPAttemptsExceeded, activity.SeverityMedium, ip, key, attempts)
		return errors.ErrOTPAttemptsExceeded
	}
	e.attempts++
	attempts := e.attempts
	hash := e.hash
	s.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(hash, []byte(strings.TrimSpace(code))); err != nil {
		exhausted := attempts >= s.cfg.MaxAttempts
		if exhausted {
			s.mu.Lock()
			if s.store[key] == e {
				delete(s.store, key)
			}
			s.mu.Unlock()
			s.record(ctx, activity.ActionOTPAttemptsExceeded, activity.SeverityMedium, ip, key, attempts)
			return errors.ErrOTPAttemptsExceeded
		}
		s.record(ctx, activity.ActionOTPVerificationFailed, activity.SeverityLow, ip, key, attempts)
		return errors.ErrOTPMismatch
	}

	s.mu.Lock()
	current := s.store[key] == e
	if current {
		delete(s.store, key)
	}
	s.mu.Unlock()

	if !current {
		// consumed by a concurrent verify or replaced by a resend
		return errors.ErrOTPNotFound
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, severity activity.Severity, ip, phone string, attempts int) {
	if s.events == nil {
		return
	}
	s.events.Log(ctx, activity.SecurityEvent{
		IP:       ip,
		Action:   action,
		Path:     "/api/otp/verify",
		Severity: severity,
		Details:  map[string]interface{}{"phone": maskPhone(phone), "attempts": attempts},
	})
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
