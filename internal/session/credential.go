package session

import "time"

// UserType is the closed set of portal audiences a credential can carry.
type UserType string

const (
	UserTypeAdmin   UserType = "admin"
	UserTypeCompany UserType = "company"
	UserTypeUser    UserType = "user"
	UserTypeForeman UserType = "foreman"
)

func ParseUserType(s string) (UserType, bool) {
	switch UserType(s) {
	case UserTypeAdmin, UserTypeCompany, UserTypeUser, UserTypeForeman:
		return UserType(s), true
	}
	return "", false
}

// NonAdminUserTypes is the default audience of role-scoped areas.
func NonAdminUserTypes() []UserType {
	return []UserType{UserTypeCompany, UserTypeUser, UserTypeForeman}
}

type AccessLevel string

const (
	AccessLevelFull    AccessLevel = "full"
	AccessLevelLimited AccessLevel = "limited"
)

// AccessLevelFor derives the access level granted with an approval for t.
func AccessLevelFor(t UserType) AccessLevel {
	switch t {
	case UserTypeAdmin:
		return AccessLevelFull
	case UserTypeCompany, UserTypeUser, UserTypeForeman:
		return AccessLevelLimited
	}
	return AccessLevelLimited
}

type Credential struct {
	UserType    UserType    `json:"userType"`
	Email       string      `json:"email"`
	AccessLevel AccessLevel `json:"accessLevel"`
	RequestID   string      `json:"requestId"`
	ApprovedAt  time.Time   `json:"approvedAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsAdmin reports whether the credential opens the admin root.
func (c Credential) IsAdmin() bool {
	return c.AccessLevel == AccessLevelFull && c.UserType == UserTypeAdmin
}

func (c Credential) Allows(allowed []UserType) bool {
	for _, t := range allowed {
		if c.UserType == t {
			return true
		}
	}
	return false
}
