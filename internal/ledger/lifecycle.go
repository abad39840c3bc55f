package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// custody describes how the caller must relate to the item's current owner.
type custody int

const (
	anyCaller custody = iota
	mustOwn
	mustNotOwn
)

type transition struct {
	role    model.Role
	custody custody
}

// transitions maps each target status to the rule for entering it. The
// harvest transition creates the item and is handled separately.
var transitions = map[model.Status]transition{
	model.StatusProcessed: {model.RoleFarmer, mustOwn},
	model.StatusPacked:    {model.RoleFarmer, mustOwn},
	model.StatusForSale:   {model.RoleFarmer, mustOwn},
	model.StatusSold:      {model.RoleDistributor, mustNotOwn},
	model.StatusShipped:   {model.RoleDistributor, mustOwn},
	model.StatusReceived:  {model.RoleRetailer, anyCaller},
	model.StatusPurchased: {model.RoleConsumer, mustNotOwn},
}

// checkStatus reports whether an item in status current may move to target.
// Only a step to the immediately following status is legal.
func checkStatus(current, target model.Status) error {
	prev, ok := target.Previous()
	if !ok {
		return fmt.Errorf("%w: no transition into %s", ErrInvalidState, target)
	}
	if current != prev {
		return fmt.Errorf("%w: item is %s, %s requires %s", ErrInvalidState, current, target, prev)
	}
	return nil
}

func checkCustody(rule custody, item *model.Item, caller string) error {
	switch rule {
	case mustOwn:
		if item.OwnerID != caller {
			return fmt.Errorf("%s does not own item %d: %w", caller, item.UPC, ErrUnauthorized)
		}
	case mustNotOwn:
		if item.OwnerID == caller {
			return fmt.Errorf("%s already owns item %d: %w", caller, item.UPC, ErrUnauthorized)
		}
	}
	return nil
}

// applyFunc performs the transition-specific part of a step on the loaded
// item, inside the transaction. It returns the event payload.
type applyFunc func(ctx context.Context, tx *sql.Tx, item *model.Item) (payload any, err error)

// advance moves an existing item into target. Checks run in order: role,
// existence, status, custody. Only when every check passes does apply run,
// followed by the item update and the event append.
func (l *Ledger) advance(ctx context.Context, caller string, upc int64, target model.Status, apply applyFunc) (*model.Item, error) {
	rule, ok := transitions[target]
	if !ok {
		return nil, fmt.Errorf("%w: no transition into %s", ErrInvalidState, target)
	}

	var updated *model.Item
	var ev *model.Event
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireRole(ctx, tx, rule.role, caller); err != nil {
			return err
		}

		item, err := store.GetItem(ctx, tx, upc)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d: %w", upc, ErrNotFound)
		}

		if err := checkStatus(item.Status, target); err != nil {
			return err
		}
		if err := checkCustody(rule.custody, item, caller); err != nil {
			return err
		}

		var payload any
		if apply != nil {
			payload, err = apply(ctx, tx, item)
			if err != nil {
				return err
			}
		}

		item.Status = target
		item.UpdatedAt = l.now()
		if err := store.UpdateItem(ctx, tx, item); err != nil {
			return err
		}

		ev, err = l.emit(ctx, tx, target.String(), &upc, caller, payload)
		if err != nil {
			return err
		}

		updated = item
		return nil
	})
	if err != nil {
		l.rejected(target.String(), caller, err)
		return nil, err
	}

	l.logger.Info("item advanced", "upc", upc, "status", target, "caller", caller, "event", ev.Index)
	return updated, nil
}
