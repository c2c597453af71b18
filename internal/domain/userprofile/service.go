package userprofile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, hdid string) (*Profile, error) {
	return s.repo.Get(ctx, hdid)
}

// Upsert validates and stores the profile. Timestamps other than
// AcceptedTermsAt are owned by the store.
func (s *Service) Upsert(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Str("hdid", p.HDID).Msg("user profile saved")
	return nil
}

// RecordLogin stamps the profile's last login and returns the updated profile.
func (s *Service) RecordLogin(ctx context.Context, hdid string) (*Profile, error) {
	if err := s.repo.TouchLogin(ctx, hdid, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, hdid)
}
