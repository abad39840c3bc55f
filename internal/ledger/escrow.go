package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// settlement is the event payload for a paid ownership transfer.
type settlement struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func validatePrice(price int64) error {
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive, got %d", ErrInvalidPrice, price)
	}
	return nil
}

// settle moves payment from payer to the item's current owner. The tender
// must match the listed price exactly; there is no partial refund.
func settle(ctx context.Context, tx *sql.Tx, item *model.Item, payer string, payment int64) (*settlement, error) {
	if payment != item.ProductPrice {
		return nil, fmt.Errorf("%w: tendered %d, price is %d", ErrInsufficientPayment, payment, item.ProductPrice)
	}

	acct, err := store.GetAccount(ctx, tx, payer)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s: %w", payer, ErrNotFound)
	}
	if acct.Balance < payment {
		return nil, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, acct.Balance, payment)
	}

	payee, err := store.GetAccount(ctx, tx, item.OwnerID)
	if err != nil {
		return nil, err
	}
	if payee == nil {
		return nil, fmt.Errorf("account %s: %w", item.OwnerID, ErrNotFound)
	}
	if err := checkCredit(payee, payment); err != nil {
		return nil, err
	}

	if err := store.AdjustBalance(ctx, tx, payer, -payment); err != nil {
		return nil, err
	}
	if err := store.AdjustBalance(ctx, tx, payee.ID, payment); err != nil {
		return nil, err
	}

	return &settlement{From: payer, To: payee.ID, Amount: payment}, nil
}

// checkCredit refuses a credit that would take acct past math.MaxInt64.
func checkCredit(acct *model.Account, amount int64) error {
	if acct.Balance > math.MaxInt64-amount {
		return fmt.Errorf("%w: crediting %d to %s would overflow its balance of %d", ErrInvalidAmount, amount, acct.ID, acct.Balance)
	}
	return nil
}

type funding struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// Fund credits account with amount of the native unit. Only the
// administrator may fund accounts.
func (l *Ledger) Fund(ctx context.Context, caller, account string, amount int64) error {
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		if amount <= 0 {
			return fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidAmount, amount)
		}

		acct, err := store.GetAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		if acct == nil {
			return fmt.Errorf("account %s: %w", account, ErrNotFound)
		}
		if err := checkCredit(acct, amount); err != nil {
			return err
		}

		if err := store.AdjustBalance(ctx, tx, account, amount); err != nil {
			return err
		}

		_, err = l.emit(ctx, tx, model.EventFunded, nil, caller, funding{Account: account, Amount: amount})
		return err
	})
	if err != nil {
		l.rejected("fund", caller, err)
		return err
	}

	l.logger.Info("account funded", "account", account, "amount", amount, "by", caller)
	return nil
}

// Balance returns the native-unit balance of account.
func (l *Ledger) Balance(ctx context.Context, account string) (int64, error) {
	acct, err := store.GetAccount(ctx, l.db, account)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, fmt.Errorf("account %s: %w", account, ErrNotFound)
	}
	return acct.Balance, nil
}
