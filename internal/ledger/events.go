package ledger

import (
	"context"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// Events returns the event log between from and to inclusive, in commit
// order. Indices start at 1; to may be model.LatestIndex.
func (l *Ledger) Events(ctx context.Context, from, to int64) ([]model.Event, error) {
	if from < 0 {
		return nil, fmt.Errorf("%w: from must not be negative", ErrInvalidArgument)
	}
	if to != model.LatestIndex && to < from {
		return nil, fmt.Errorf("%w: to %d is before from %d", ErrInvalidArgument, to, from)
	}
	return store.ListEvents(ctx, l.db, from, to)
}

// ItemHistory returns every event recorded for upc, oldest first.
func (l *Ledger) ItemHistory(ctx context.Context, upc int64) ([]model.Event, error) {
	if _, err := l.Item(ctx, upc); err != nil {
		return nil, err
	}
	return store.ListItemEvents(ctx, l.db, upc)
}

// LatestIndex returns the index of the newest event, or 0 when the log is
// empty.
func (l *Ledger) LatestIndex(ctx context.Context) (int64, error) {
	return store.LatestEventIndex(ctx, l.db)
}
