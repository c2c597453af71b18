package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Store writes audit events to the access_audit table.
type Store struct {
	db querier
}

func NewStore(db querier) *Store {
	return &Store{db: db}
}

const eventCols = `id, subject, resource_id, policy, outcome, method, path,
	request_id, ip_address, user_agent, recorded`

// Record inserts the event.
func (s *Store) Record(ctx context.Context, e Event) error {
	prepare(&e)
	_, err := s.db.Exec(ctx, `
		INSERT INTO access_audit (`+eventCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.Subject, e.ResourceID, e.Policy, e.Outcome, e.Method, e.Path,
		e.RequestID, e.IPAddress, e.UserAgent, e.Recorded)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// ListByResource returns the most recent events recorded against a patient's
// resources, newest first, with the total count.
func (s *Store) ListByResource(ctx context.Context, resourceID string, limit, offset int) ([]*Event, int, error) {
	resourceID = clamp(resourceID, MaxFieldLen)
	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM access_audit WHERE resource_id = $1`, resourceID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count events: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+eventCols+` FROM access_audit
		WHERE resource_id = $1
		ORDER BY recorded DESC
		LIMIT $2 OFFSET $3`, resourceID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Subject, &e.ResourceID, &e.Policy, &e.Outcome, &e.Method,
			&e.Path, &e.RequestID, &e.IPAddress, &e.UserAgent, &e.Recorded); err != nil {
			return nil, 0, fmt.Errorf("audit: scan event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, total, nil
}
