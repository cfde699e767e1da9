package access

import (
	"fmt"
	"time"

	"github.com/frahmantamala/chitfund-portal/internal/session"
)

type RequestType string

const (
	RequestTypeCompany RequestType = "company"
	RequestTypeUser    RequestType = "user"
	RequestTypeForeman RequestType = "foreman"
	// RequestTypeAdmin is recorded by the admin-session path only; the public
	// submission form rejects it.
	RequestTypeAdmin RequestType = "admin"
)

func PublicRequestTypes() []string {
	return []string{string(RequestTypeCompany), string(RequestTypeUser), string(RequestTypeForeman)}
}

// UserType maps a request type onto the session user type it grants.
func (t RequestType) UserType() session.UserType {
	switch t {
	case RequestTypeCompany:
		return session.UserTypeCompany
	case RequestTypeUser:
		return session.UserTypeUser
	case RequestTypeForeman:
		return session.UserTypeForeman
	case RequestTypeAdmin:
		return session.UserTypeAdmin
	}
	panic(fmt.Sprintf("access: unhandled request type %q", string(t)))
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

const (
	ForemanPassScore = 80
	DefaultPassScore = 70
)

type AccessRequest struct {
	ID            string      `json:"id"`
	RequestType   RequestType `json:"requestType"`
	ContactPerson string      `json:"contactPerson"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Purpose       string      `json:"purpose"`
	CompanyName   string      `json:"companyName,omitempty"`
	BusinessType  string      `json:"businessType,omitempty"`
	Experience    string      `json:"experience,omitempty"`
	MCQScore      *int        `json:"mcqScore,omitempty"`
	Status        Status      `json:"status"`
	SubmittedAt   time.Time   `json:"submittedAt"`
}

// ShouldBeAutoApproved applies the approval rule. Company requests pass on
// type alone; assessed types pass at or above their threshold.
func (r *AccessRequest) ShouldBeAutoApproved() bool {
	switch r.RequestType {
	case RequestTypeCompany, RequestTypeAdmin:
		return true
	case RequestTypeForeman:
		return r.MCQScore != nil && *r.MCQScore >= ForemanPassScore
	case RequestTypeUser:
		return r.MCQScore != nil && *r.MCQScore >= DefaultPassScore
	}
	return false
}

// Decide sets the status once. A decided request keeps its status.
func (r *AccessRequest) Decide() Status {
	if r.Status != "" {
		return r.Status
	}
	if r.ShouldBeAutoApproved() {
		r.Status = StatusApproved
	} else {
		r.Status = StatusPending
	}
	return r.Status
}

func (r *AccessRequest) IsApproved() bool {
	return r.Status == StatusApproved
}

// AccessLevel is full only on the admin-equivalent path.
func (r *AccessRequest) AccessLevel() session.AccessLevel {
	return session.AccessLevelFor(r.RequestType.UserType())
}

type Decision struct {
	Approved  bool           `json:"approved"`
	RequestID string         `json:"requestId"`
	Message   string         `json:"message"`
	Request   *AccessRequest `json:"-"`
}

const (
	MessageApproved = "Access request approved. You can now access the portal."
	MessagePending  = "Access request submitted and is pending review."
)
