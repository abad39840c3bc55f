package store

import (
	"context"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
)

// AddRole binds a role to an account. Adding an existing binding is a no-op;
// added reports whether a new binding was created.
func AddRole(ctx context.Context, q Querier, role model.Role, accountID, grantedBy string) (added bool, err error) {
	result, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO roles (role, account_id, granted_by) VALUES (?, ?, ?)`,
		role.String(), accountID, grantedBy,
	)
	if err != nil {
		return false, fmt.Errorf("adding role: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adding role: %w", err)
	}
	return n > 0, nil
}

// RemoveRole deletes a role binding. Removing a missing binding is a no-op;
// removed reports whether a binding was deleted.
func RemoveRole(ctx context.Context, q Querier, role model.Role, accountID string) (removed bool, err error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM roles WHERE role = ? AND account_id = ?`,
		role.String(), accountID,
	)
	if err != nil {
		return false, fmt.Errorf("removing role: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing role: %w", err)
	}
	return n > 0, nil
}

// HasRole checks whether an account holds a role. Unknown accounts simply
// hold no roles.
func HasRole(ctx context.Context, q Querier, role model.Role, accountID string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM roles WHERE role = ? AND account_id = ?`,
		role.String(), accountID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking role: %w", err)
	}
	return count > 0, nil
}

// ListRoles returns the roles held by an account in declaration order.
func ListRoles(ctx context.Context, q Querier, accountID string) ([]model.Role, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT role FROM roles WHERE account_id = ?`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	held := make(map[model.Role]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		role, err := model.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		held[role] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	roles := []model.Role{}
	for _, r := range model.Roles {
		if held[r] {
			roles = append(roles, r)
		}
	}
	return roles, nil
}
