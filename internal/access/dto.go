package access

import (
	"strings"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/core/common/validation"
)

// SubmitAccessRequestDTO represents the request payload for an access request
type SubmitAccessRequestDTO struct {
	RequestType   string `json:"requestType"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Purpose       string `json:"purpose"`
	CompanyName   string `json:"companyName,omitempty"`
	BusinessType  string `json:"businessType,omitempty"`
	Experience    string `json:"experience,omitempty"`
	MCQScore      *int   `json:"mcqScore,omitempty"`
}

func (dto SubmitAccessRequestDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("requestType", dto.RequestType).Required().OneOf(errors.ErrCodeInvalidRequestType, PublicRequestTypes()...)
	v.Field("contactPerson", dto.ContactPerson).Required().MaxLength(200)
	v.Field("email", dto.Email).Required().Email().MaxLength(254)
	v.Field("phone", dto.Phone).Required().MaxLength(32)
	v.Field("purpose", dto.Purpose).Required().MaxLength(2000)
	v.Field("mcqScore", dto.MCQScore).IntRange(0, 100, errors.ErrCodeInvalidScore)

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (dto SubmitAccessRequestDTO) ToAccessRequest() *AccessRequest {
	return &AccessRequest{
		RequestType:   RequestType(dto.RequestType),
		ContactPerson: strings.TrimSpace(dto.ContactPerson),
		Email:         strings.TrimSpace(dto.Email),
		Phone:         strings.TrimSpace(dto.Phone),
		Purpose:       strings.TrimSpace(dto.Purpose),
		CompanyName:   strings.TrimSpace(dto.CompanyName),
		BusinessType:  strings.TrimSpace(dto.BusinessType),
		Experience:    strings.TrimSpace(dto.Experience),
		MCQScore:      dto.MCQScore,
	}
}

type SubmitResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Approved  bool   `json:"approved"`
	Message   string `json:"message"`
}

type StatusResponse struct {
	HasAccess bool   `json:"hasAccess"`
	UserType  string `json:"userType,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ListResponse struct {
	Success  bool             `json:"success"`
	Requests []*AccessRequest `json:"requests"`
}

type AdminSessionResponse struct {
	Success     bool   `json:"success"`
	RequestID   string `json:"requestId"`
	UserType    string `json:"userType"`
	AccessLevel string `json:"accessLevel"`
}
