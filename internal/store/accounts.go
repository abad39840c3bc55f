package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/erazemk/fairtrade/internal/model"
)

const accountColumns = `id, username, password_hash, is_admin, balance, created_at`

// CreateAccount creates a new account.
func CreateAccount(ctx context.Context, q Querier, id, username, passwordHash string, admin bool) (*model.Account, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, is_admin) VALUES (?, ?, ?, ?)`,
		id, username, passwordHash, admin,
	)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return GetAccount(ctx, q, id)
}

// GetAccount returns an account by ID, or nil if it does not exist.
func GetAccount(ctx context.Context, q Querier, id string) (*model.Account, error) {
	a, err := scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetAccountByUsername returns an account by username, or nil if it does not exist.
func GetAccountByUsername(ctx context.Context, q Querier, username string) (*model.Account, error) {
	a, err := scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by username: %w", err)
	}
	return a, nil
}

// ListAccounts returns all accounts in creation order.
func ListAccounts(ctx context.Context, q Querier) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, username`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateAccountPassword updates an account's password hash.
func UpdateAccountPassword(ctx context.Context, q Querier, id, passwordHash string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating account password: %w", err)
	}
	return nil
}

// ErrBalanceOverflow is returned when a credit would push a balance past
// math.MaxInt64.
var ErrBalanceOverflow = errors.New("balance overflow")

// AdjustBalance adds delta (which may be negative) to an account's balance.
// A negative result is refused by the schema. A credit that would overflow
// leaves the row untouched and returns ErrBalanceOverflow.
func AdjustBalance(ctx context.Context, q Querier, id string, delta int64) error {
	query := `UPDATE accounts SET balance = balance + ? WHERE id = ?`
	args := []any{delta, id}
	if delta > 0 {
		// SQLite turns an overflowing integer sum into a REAL.
		query += ` AND balance <= ?`
		args = append(args, int64(math.MaxInt64)-delta)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("adjusting balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjusting balance: %w", err)
	}
	if n > 0 {
		return nil
	}

	acct, err := GetAccount(ctx, q, id)
	if err != nil {
		return fmt.Errorf("adjusting balance: %w", err)
	}
	if acct == nil {
		return fmt.Errorf("adjusting balance: account %s does not exist", id)
	}
	return fmt.Errorf("adjusting balance of %s by %d: %w", id, delta, ErrBalanceOverflow)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Admin, &a.Balance, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
