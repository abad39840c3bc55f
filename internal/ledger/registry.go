package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

type roleChange struct {
	Role    model.Role `json:"role"`
	Account string     `json:"account"`
}

// GrantRole binds role to account. Only the administrator may grant roles.
// Granting a role the account already holds succeeds without recording an
// event.
func (l *Ledger) GrantRole(ctx context.Context, caller string, role model.Role, account string) error {
	var added bool
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := checkRoleChange(ctx, tx, caller, role, account); err != nil {
			return err
		}

		var err error
		added, err = store.AddRole(ctx, tx, role, account, caller)
		if err != nil {
			return err
		}
		if !added {
			return nil
		}

		_, err = l.emit(ctx, tx, model.EventRoleGranted, nil, caller, roleChange{Role: role, Account: account})
		return err
	})
	if err != nil {
		l.rejected("grant_role", caller, err)
		return err
	}

	if added {
		l.logger.Info("role granted", "role", role, "account", account, "by", caller)
	}
	return nil
}

// RevokeRole removes role from account. Only the administrator may revoke
// roles. Revoking a role the account does not hold is a no-op.
func (l *Ledger) RevokeRole(ctx context.Context, caller string, role model.Role, account string) error {
	var removed bool
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := checkRoleChange(ctx, tx, caller, role, account); err != nil {
			return err
		}

		var err error
		removed, err = store.RemoveRole(ctx, tx, role, account)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}

		_, err = l.emit(ctx, tx, model.EventRoleRevoked, nil, caller, roleChange{Role: role, Account: account})
		return err
	})
	if err != nil {
		l.rejected("revoke_role", caller, err)
		return err
	}

	if removed {
		l.logger.Info("role revoked", "role", role, "account", account, "by", caller)
	}
	return nil
}

// HasRole reports whether account holds role.
func (l *Ledger) HasRole(ctx context.Context, role model.Role, account string) (bool, error) {
	if !role.Valid() {
		return false, fmt.Errorf("%w: unknown role %d", ErrInvalidArgument, uint8(role))
	}
	return store.HasRole(ctx, l.db, role, account)
}

// RolesOf lists the roles held by account.
func (l *Ledger) RolesOf(ctx context.Context, account string) ([]model.Role, error) {
	return store.ListRoles(ctx, l.db, account)
}

func checkRoleChange(ctx context.Context, q store.Querier, caller string, role model.Role, account string) error {
	if err := requireAdmin(ctx, q, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %d", ErrInvalidArgument, uint8(role))
	}
	target, err := store.GetAccount(ctx, q, account)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("account %s: %w", account, ErrNotFound)
	}
	return nil
}

func requireAdmin(ctx context.Context, q store.Querier, caller string) error {
	acct, err := store.GetAccount(ctx, q, caller)
	if err != nil {
		return err
	}
	if acct == nil || !acct.Admin {
		return fmt.Errorf("%s is not the administrator: %w", caller, ErrUnauthorized)
	}
	return nil
}

func requireRole(ctx context.Context, q store.Querier, role model.Role, caller string) error {
	has, err := store.HasRole(ctx, q, role, caller)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%s does not hold the %s role: %w", caller, role, ErrUnauthorized)
	}
	return nil
}
