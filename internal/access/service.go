package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

type ListFilter struct {
	Status Status
	Limit  int
}

// Repository stores decided access requests. There is no update or delete:
// a request is written once, after its decision.
type Repository interface {
	Create(ctx context.Context, req *AccessRequest) error
	GetByID(ctx context.Context, id string) (*AccessRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*AccessRequest, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      Repository
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates and decides a public access request. Validation failures
// leave no trace in the store.
func (s *Service) Submit(ctx context.Context, dto SubmitAccessRequestDTO) (*Decision, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("access request validation failed", "error", err)
		return nil, err
	}
	return s.decide(ctx, dto.ToAccessRequest())
}

// SubmitAdmin records the admin-equivalent request for an already
// authenticated admin. It is always approved with full access.
func (s *Service) SubmitAdmin(ctx context.Context, userID, email string) (*Decision, error) {
	if email == "" {
		email = userID + "@admin.local"
	}
	return s.decide(ctx, &AccessRequest{
		RequestType:   RequestTypeAdmin,
		ContactPerson: userID,
		Email:         email,
		Phone:         "-",
		Purpose:       "admin session",
	})
}

func (s *Service) decide(ctx context.Context, req *AccessRequest) (*Decision, error) {
	req.ID = uuid.NewString()
	req.SubmittedAt = s.now().UTC()
	status := req.Decide()

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to store access request", "error", err, "request_type", req.RequestType)
		return nil, errors.NewInternalError("failed to store access request", err)
	}

	s.logger.Info("access request decided",
		"request_id", req.ID,
		"request_type", req.RequestType,
		"status", status)

	if s.publisher != nil {
		event := events.NewAccessRequestDecidedEvent(req.ID, string(req.RequestType), req.Email, string(status))
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish access decision", "error", err, "request_id", req.ID)
		}
	}

	decision := &Decision{
		Approved:  req.IsApproved(),
		RequestID: req.ID,
		Message:   MessagePending,
		Request:   req,
	}
	if decision.Approved {
		decision.Message = MessageApproved
	}
	return decision, nil
}

func (s *Service) Get(ctx context.Context, id string) (*AccessRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("failed to load access request", err)
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*AccessRequest, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	reqs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.NewInternalError("failed to list access requests", err)
	}
	return reqs, nil
}
