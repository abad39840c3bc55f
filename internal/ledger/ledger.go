// Package ledger implements the supply chain item ledger: the role registry,
// the lifecycle state machine, escrow settlement and the append-only event
// log.
//
// Mutating operations are serialized. Each one runs its checks, state update,
// settlement and event append inside a single SQLite transaction while
// holding the writer lock, so it either commits completely or leaves no
// trace. Queries read committed state directly and never take the lock.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// Ledger is the authoritative record of items, roles, balances and events.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	// mu is the single-writer lock held for the whole of every mutation.
	mu sync.Mutex
}

// New returns a ledger backed by db. The schema must already exist.
func New(db *sql.DB) *Ledger {
	return &Ledger{
		db:     db,
		logger: slog.Default().With("component", "ledger"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// write runs fn as one serialized transaction. Once the lock is held the
// caller's cancellation no longer applies: the operation commits or fails on
// its own merits.
func (l *Ledger) write(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// emit appends an event inside tx. It is always the last step of a mutation.
func (l *Ledger) emit(ctx context.Context, tx *sql.Tx, name string, upc *int64, emitter string, payload any) (*model.Event, error) {
	e := &model.Event{
		ID:        uuid.New().String(),
		Name:      name,
		UPC:       upc,
		Emitter:   emitter,
		CreatedAt: l.now(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", name, err)
		}
		e.Payload = data
	}
	if err := store.AppendEvent(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// rejected logs a refused mutation. Refusals are routine, so they stay at
// debug level.
func (l *Ledger) rejected(op, caller string, err error) {
	l.logger.Debug("operation rejected", "op", op, "caller", caller, "kind", Kind(err), "error", err)
}
