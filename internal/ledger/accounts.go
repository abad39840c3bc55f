package ledger

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// ErrAdminExists is returned by Bootstrap when an administrator is already
// registered.
var ErrAdminExists = fmt.Errorf("administrator already exists: %w", ErrUnauthorized)

// Bootstrap creates the administrator account. It only succeeds on a ledger
// that has no administrator yet.
func (l *Ledger) Bootstrap(ctx context.Context, username, passwordHash string) (*model.Account, error) {
	var acct *model.Account
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var admins int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE is_admin = 1`).Scan(&admins); err != nil {
			return fmt.Errorf("counting administrators: %w", err)
		}
		if admins > 0 {
			return ErrAdminExists
		}

		var err error
		acct, err = createAccount(ctx, tx, username, passwordHash, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("administrator created", "account", acct.ID, "username", acct.Username)
	return acct, nil
}

// Register creates a participant account. Only the administrator may
// register accounts.
func (l *Ledger) Register(ctx context.Context, caller, username, passwordHash string) (*model.Account, error) {
	var acct *model.Account
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireAdmin(ctx, tx, caller); err != nil {
			return err
		}

		existing, err := store.GetAccountByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: username %q is taken", ErrInvalidArgument, username)
		}

		acct, err = createAccount(ctx, tx, username, passwordHash, false)
		return err
	})
	if err != nil {
		l.rejected("register", caller, err)
		return nil, err
	}

	l.logger.Info("account registered", "account", acct.ID, "username", acct.Username, "by", caller)
	return acct, nil
}

// Account returns an account by address.
func (l *Ledger) Account(ctx context.Context, id string) (*model.Account, error) {
	acct, err := store.GetAccount(ctx, l.db, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return acct, nil
}

// Accounts lists every account.
func (l *Ledger) Accounts(ctx context.Context) ([]model.Account, error) {
	return store.ListAccounts(ctx, l.db)
}

func createAccount(ctx context.Context, tx *sql.Tx, username, passwordHash string, admin bool) (*model.Account, error) {
	id, err := newAddress()
	if err != nil {
		return nil, err
	}
	return store.CreateAccount(ctx, tx, id, username, passwordHash, admin)
}

// newAddress generates a random 20-byte account address.
func newAddress() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating address: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}
