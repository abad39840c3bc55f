package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_admin      INTEGER NOT NULL DEFAULT 0 CHECK (is_admin IN (0, 1)),
    balance       INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS roles (
    role       TEXT NOT NULL CHECK (role IN ('farmer', 'distributor', 'retailer', 'consumer')),
    account_id TEXT NOT NULL REFERENCES accounts(id),
    granted_by TEXT NOT NULL REFERENCES accounts(id),
    granted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (role, account_id)
);

CREATE TABLE IF NOT EXISTS items (
    upc                     INTEGER PRIMARY KEY,
    sku                     INTEGER NOT NULL UNIQUE,
    owner_id                TEXT NOT NULL REFERENCES accounts(id),
    origin_farmer_id        TEXT NOT NULL REFERENCES accounts(id),
    origin_farm_name        TEXT NOT NULL DEFAULT '',
    origin_farm_information TEXT NOT NULL DEFAULT '',
    origin_farm_latitude    TEXT NOT NULL DEFAULT '',
    origin_farm_longitude   TEXT NOT NULL DEFAULT '',
    product_notes           TEXT NOT NULL DEFAULT '',
    product_price           INTEGER NOT NULL DEFAULT 0 CHECK (product_price >= 0),
    status                  INTEGER NOT NULL DEFAULT 0 CHECK (status BETWEEN 0 AND 7),
    distributor_id          TEXT REFERENCES accounts(id),
    retailer_id             TEXT REFERENCES accounts(id),
    consumer_id             TEXT REFERENCES accounts(id),
    created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS events (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id   TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    upc        INTEGER REFERENCES items(upc),
    emitter    TEXT NOT NULL,
    payload    TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return migrate(db)
}
