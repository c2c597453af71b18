package userprofile

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user profile not found")
	ErrInvalid  = errors.New("invalid user profile")
)

type Repository interface {
	Get(ctx context.Context, hdid string) (*Profile, error)
	// Upsert creates the profile or replaces its mutable fields.
	Upsert(ctx context.Context, p *Profile) error
	TouchLogin(ctx context.Context, hdid string, at time.Time) error
}
