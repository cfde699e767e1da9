package activity

import (
	"time"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s), true
	}
	return "", false
}

// Escalates reports whether events of this severity go to the side channel.
func (s Severity) Escalates() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Actions recorded by the portal.
const (
	ActionInvalidTokenVerification = "invalid_token_verification"
	ActionTokenVerificationFailed  = "token_verification_failed"
	ActionRootAccessDenied         = "root_access_denied"
	ActionMissingSession           = "missing_session"
	ActionUnauthorizedRoleAccess   = "unauthorized_role_access"
	ActionOTPVerificationFailed    = "otp_verification_failed"
	ActionOTPAttemptsExceeded      = "otp_attempts_exceeded"
	ActionPanicRecovered           = "panic_recovered"
)

type SecurityEvent struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	IP        string                 `json:"ip"`
	UserID    string                 `json:"userId,omitempty"`
	Action    string                 `json:"action"`
	Path      string                 `json:"path"`
	Severity  Severity               `json:"severity"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Filter fields combine with AND; empty fields match everything.
type Filter struct {
	Severity Severity
	IP       string
	UserID   string
}

func (f Filter) Matches(ev SecurityEvent) bool {
	if f.Severity != "" && ev.Severity != f.Severity {
		return false
	}
	if f.IP != "" && ev.IP != f.IP {
		return false
	}
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	return true
}
