package memory

import (
	"context"
	"sort"
	"sync"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/access"
)

// Repository keeps access requests for the lifetime of the process.
type Repository struct {
	mu       sync.RWMutex
	requests map[string]access.AccessRequest
}

func NewRepository() *Repository {
	return &Repository{requests: make(map[string]access.AccessRequest)}
}

func (r *Repository) Create(_ context.Context, req *access.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = clone(*req)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*access.AccessRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, errors.ErrAccessRequestNotFound
	}
	cp := clone(req)
	return &cp, nil
}

// List returns requests newest first.
func (r *Repository) List(_ context.Context, filter access.ListFilter) ([]*access.AccessRequest, error) {
	r.mu.RLock()
	out := make([]*access.AccessRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		cp := clone(req)
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func clone(req access.AccessRequest) access.AccessRequest {
	if req.MCQScore != nil {
		score := *req.MCQScore
		req.MCQScore = &score
	}
	return req
}
