package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
)

const eventColumns = `seq, event_id, name, upc, emitter, payload, created_at`

// AppendEvent records an event and sets its Index to the assigned sequence
// number.
func AppendEvent(ctx context.Context, q Querier, e *model.Event) error {
	var payload sql.NullString
	if len(e.Payload) > 0 {
		payload = sql.NullString{String: string(e.Payload), Valid: true}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO events (event_id, name, upc, emitter, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.UPC, e.Emitter, payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting event index: %w", err)
	}
	e.Index = seq
	return nil
}

// ListEvents returns events with from <= index <= to in commit order. A to of
// model.LatestIndex means no upper bound.
func ListEvents(ctx context.Context, q Querier, from, to int64) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE seq >= ?`
	args := []any{from}
	if to != model.LatestIndex {
		query += ` AND seq <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY seq`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListItemEvents returns every event recorded for a UPC in commit order.
func ListItemEvents(ctx context.Context, q Querier, upc int64) ([]model.Event, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE upc = ? ORDER BY seq`, upc,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// LatestEventIndex returns the highest assigned index, or 0 for an empty log.
func LatestEventIndex(ctx context.Context, q Querier) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("getting latest event index: %w", err)
	}
	return seq, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		var upc sql.NullInt64
		var payload sql.NullString
		if err := rows.Scan(&e.Index, &e.ID, &e.Name, &upc, &e.Emitter, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if upc.Valid {
			v := upc.Int64
			e.UPC = &v
		}
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
