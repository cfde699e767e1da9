package session

import (
	"net/http"
	"net/url"
	"time"
)

const (
	CookieAccessApproved = "access_approved"
	CookieUserType       = "user_type"
	CookieUserEmail      = "user_email"
	CookieRequestID      = "request_id"
	CookieApprovedAt     = "approved_at"
	CookieAdminAccess    = "admin_access"

	DefaultMaxAge = 30 * 24 * time.Hour
)

// CookieNames lists every cookie making up one credential set.
func CookieNames() []string {
	return []string{
		CookieAccessApproved,
		CookieUserType,
		CookieUserEmail,
		CookieRequestID,
		CookieApprovedAt,
		CookieAdminAccess,
	}
}

// Issuer writes, reads and clears the cookie-backed credential set.
//
// The set is written by a single Issue call but lands as independent cookies;
// storage offers no transaction, so a client can end up holding part of a set
// (interrupted response, cookie jar limits, manual edits). Read treats any
// incomplete or unparsable set as no session.
//
// Cookies are not httpOnly because browser-side guard code reads them, and
// they are not signed: any value here is client-controlled.
type Issuer struct {
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

func NewIssuer(maxAge time.Duration, secure bool) *Issuer {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Issuer{
		maxAge: maxAge,
		secure: secure,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) MaxAge() time.Duration {
	return i.maxAge
}

// Issue writes a complete credential set with one shared expiry.
func (i *Issuer) Issue(w http.ResponseWriter, userType UserType, email, requestID string, level AccessLevel) Credential {
	approvedAt := i.now().UTC().Truncate(time.Second)
	cred := Credential{
		UserType:    userType,
		Email:       email,
		AccessLevel: level,
		RequestID:   requestID,
		ApprovedAt:  approvedAt,
		ExpiresAt:   approvedAt.Add(i.maxAge),
	}

	adminAccess := "false"
	if level == AccessLevelFull {
		adminAccess = "true"
	}

	values := map[string]string{
		CookieAccessApproved: "true",
		CookieUserType:       string(userType),
		CookieUserEmail:      url.QueryEscape(email),
		CookieRequestID:      url.QueryEscape(requestID),
		CookieApprovedAt:     approvedAt.Format(time.RFC3339),
		CookieAdminAccess:    adminAccess,
	}
	for _, name := range CookieNames() {
		http.SetCookie(w, i.cookie(name, values[name], cred.ExpiresAt, int(i.maxAge.Seconds())))
	}
	return cred
}

// Clear invalidates every cookie of the set with past-dated values.
func (i *Issuer) Clear(w http.ResponseWriter) {
	for _, name := range CookieNames() {
		http.SetCookie(w, i.cookie(name, "", time.Unix(0, 0), -1))
	}
}

// Read rebuilds the credential from request cookies. Expiry is evaluated here
// against approved_at plus the configured max age.
func (i *Issuer) Read(r *http.Request) (*Credential, bool) {
	get := func(name string) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}

	if get(CookieAccessApproved) != "true" {
		return nil, false
	}

	userType, ok := ParseUserType(get(CookieUserType))
	if !ok {
		return nil, false
	}

	email, err := url.QueryUnescape(get(CookieUserEmail))
	if err != nil || email == "" {
		return nil, false
	}

	requestID, err := url.QueryUnescape(get(CookieRequestID))
	if err != nil || requestID == "" {
		return nil, false
	}

	approvedAt, err := time.Parse(time.RFC3339, get(CookieApprovedAt))
	if err != nil {
		return nil, false
	}

	level := AccessLevelLimited
	if get(CookieAdminAccess) == "true" {
		level = AccessLevelFull
	}

	cred := &Credential{
		UserType:    userType,
		Email:       email,
		AccessLevel: level,
		RequestID:   requestID,
		ApprovedAt:  approvedAt,
		ExpiresAt:   approvedAt.Add(i.maxAge),
	}
	if cred.Expired(i.now()) {
		return nil, false
	}
	return cred, true
}

// ReadAccess reads only the user type and access level flags. Missing or
// unknown values come back as the zero user type with limited access. A
// present approved_at older than the max age also downgrades to limited.
func (i *Issuer) ReadAccess(r *http.Request) (UserType, AccessLevel) {
	var userType UserType
	if c, err := r.Cookie(CookieUserType); err == nil {
		userType, _ = ParseUserType(c.Value)
	}

	c, err := r.Cookie(CookieAdminAccess)
	if err != nil || c.Value != "true" {
		return userType, AccessLevelLimited
	}

	if at, err := r.Cookie(CookieApprovedAt); err == nil {
		approvedAt, perr := time.Parse(time.RFC3339, at.Value)
		if perr != nil || !i.now().Before(approvedAt.Add(i.maxAge)) {
			return userType, AccessLevelLimited
		}
	}
	return userType, AccessLevelFull
}

func (i *Issuer) cookie(name, value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
