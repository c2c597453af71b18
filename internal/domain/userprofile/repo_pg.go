package userprofile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ db queryable }

// NewRepoPG returns a Repository backed by the user_profile table. db is
// usually a *pgxpool.Pool.
func NewRepoPG(db queryable) Repository {
	return &repoPG{db: db}
}

const profileCols = `hdid, email, accepted_terms_at, last_login_at, created_at, updated_at`

func (r *repoPG) scanRow(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.HDID, &p.Email, &p.AcceptedTermsAt, &p.LastLoginAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user profile: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Get(ctx context.Context, hdid string) (*Profile, error) {
	return r.scanRow(r.db.QueryRow(ctx, `SELECT `+profileCols+` FROM user_profile WHERE hdid = $1`, hdid))
}

func (r *repoPG) Upsert(ctx context.Context, p *Profile) error {
	saved, err := r.scanRow(r.db.QueryRow(ctx, `
		INSERT INTO user_profile (hdid, email, accepted_terms_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (hdid) DO UPDATE SET
			email = EXCLUDED.email,
			accepted_terms_at = EXCLUDED.accepted_terms_at,
			updated_at = NOW()
		RETURNING `+profileCols,
		p.HDID, p.Email, p.AcceptedTermsAt))
	if err != nil {
		return err
	}
	*p = *saved
	return nil
}

func (r *repoPG) TouchLogin(ctx context.Context, hdid string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE user_profile SET last_login_at = $2, updated_at = NOW() WHERE hdid = $1`, hdid, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
