package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/access"
	accessDatamodel "github.com/frahmantamala/chitfund-portal/internal/core/datamodel/access"
)

// AccessRequestRepository implements access.Repository using GORM
type AccessRequestRepository struct {
	db *gorm.DB
}

func NewAccessRequestRepository(db *gorm.DB) access.Repository {
	return &AccessRequestRepository{db: db}
}

func (r *AccessRequestRepository) Create(ctx context.Context, req *access.AccessRequest) error {
	return r.db.WithContext(ctx).Create(toModel(req)).Error
}

func (r *AccessRequestRepository) GetByID(ctx context.Context, id string) (*access.AccessRequest, error) {
	var m accessDatamodel.AccessRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrAccessRequestNotFound
		}
		return nil, err
	}
	return fromModel(&m), nil
}

// List returns requests newest first.
func (r *AccessRequestRepository) List(ctx context.Context, filter access.ListFilter) ([]*access.AccessRequest, error) {
	query := r.db.WithContext(ctx).Order("submitted_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var models []accessDatamodel.AccessRequest
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*access.AccessRequest, 0, len(models))
	for i := range models {
		out = append(out, fromModel(&models[i]))
	}
	return out, nil
}

func toModel(req *access.AccessRequest) *accessDatamodel.AccessRequest {
	return &accessDatamodel.AccessRequest{
		ID:            req.ID,
		RequestType:   string(req.RequestType),
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Purpose:       req.Purpose,
		CompanyName:   optional(req.CompanyName),
		BusinessType:  optional(req.BusinessType),
		Experience:    optional(req.Experience),
		MCQScore:      req.MCQScore,
		Status:        string(req.Status),
		SubmittedAt:   req.SubmittedAt,
	}
}

func fromModel(m *accessDatamodel.AccessRequest) *access.AccessRequest {
	return &access.AccessRequest{
		ID:            m.ID,
		RequestType:   access.RequestType(m.RequestType),
		ContactPerson: m.ContactPerson,
		Email:         m.Email,
		Phone:         m.Phone,
		Purpose:       m.Purpose,
		CompanyName:   deref(m.CompanyName),
		BusinessType:  deref(m.BusinessType),
		Experience:    deref(m.Experience),
		MCQScore:      m.MCQScore,
		Status:        access.Status(m.Status),
		SubmittedAt:   m.SubmittedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
