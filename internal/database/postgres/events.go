package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/kozaktomas/facegate/internal/audit"
)

// EventRepository stores audit events. It implements audit.Emitter.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new PostgreSQL audit event repository
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Emit inserts the event. Re-emitting the same event ID is a no-op.
func (r *EventRepository) Emit(ctx context.Context, e audit.Event) error {
	query := `
		INSERT INTO access_events (id, type, severity, occurred_at, label, score, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID, string(e.Type), string(e.Severity), e.Timestamp, e.Label, e.Score, e.Details)
	if err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. When types is non-empty
// only events of those types are returned.
func (r *EventRepository) Recent(ctx context.Context, limit int, types ...audit.Type) ([]audit.Event, error) {
	query := `
		SELECT id, type, severity, occurred_at, label, score, details
		FROM access_events
		WHERE cardinality($1::text[]) = 0 OR type = ANY($1)
		ORDER BY occurred_at DESC, created_at DESC
		LIMIT $2
	`

	filter := make([]string, len(types))
	for i, t := range types {
		filter[i] = string(t)
	}

	rows, err := r.pool.Query(ctx, query, pq.Array(filter), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var typ, sev string
		if err := rows.Scan(&e.ID, &typ, &sev, &e.Timestamp, &e.Label, &e.Score, &e.Details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = audit.Type(typ)
		e.Severity = audit.Severity(sev)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// CountByType returns the number of stored events per type.
func (r *EventRepository) CountByType(ctx context.Context) (map[audit.Type]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT type, COUNT(*) FROM access_events GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("count audit events: %w", err)
	}
	defer rows.Close()

	counts := make(map[audit.Type]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan audit count: %w", err)
		}
		counts[audit.Type(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit counts: %w", err)
	}
	return counts, nil
}
