package userprofile

import (
	"context"
	"sync"
	"time"
)

type memoryRepo struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	now      func() time.Time
}

// NewMemoryRepo returns an in-process Repository for development mode and tests.
func NewMemoryRepo() Repository {
	return &memoryRepo{profiles: make(map[string]Profile), now: time.Now}
}

func (r *memoryRepo) Get(_ context.Context, hdid string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[hdid]
	if !ok {
		return nil, ErrNotFound
	}
	return p.clone(), nil
}

func (r *memoryRepo) Upsert(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	existing, ok := r.profiles[p.HDID]
	if ok {
		p.CreatedAt = existing.CreatedAt
		p.LastLoginAt = existing.clone().LastLoginAt
	} else {
		p.CreatedAt = now
		p.LastLoginAt = nil
	}
	p.UpdatedAt = now
	r.profiles[p.HDID] = *p.clone()
	return nil
}

func (r *memoryRepo) TouchLogin(_ context.Context, hdid string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[hdid]
	if !ok {
		return ErrNotFound
	}
	p.LastLoginAt = ptr(at)
	p.UpdatedAt = r.now().UTC()
	r.profiles[hdid] = p
	return nil
}

// clone copies p including the values behind its pointer fields.
func (p *Profile) clone() *Profile {
	out := *p
	if p.Email != nil {
		out.Email = ptr(*p.Email)
	}
	if p.AcceptedTermsAt != nil {
		out.AcceptedTermsAt = ptr(*p.AcceptedTermsAt)
	}
	if p.LastLoginAt != nil {
		out.LastLoginAt = ptr(*p.LastLoginAt)
	}
	return &out
}

func ptr[T any](v T) *T { return &v }
