package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: item history lookups scan events by UPC.
	`CREATE INDEX IF NOT EXISTS idx_events_upc ON events(upc, seq)`,
	// Migration 2: role listings by account.
	`CREATE INDEX IF NOT EXISTS idx_roles_account ON roles(account_id)`,
}

func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
