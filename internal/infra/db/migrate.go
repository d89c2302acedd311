package db

import "database/sql"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ledgers (
    guild_id    TEXT NOT NULL,
    category    TEXT NOT NULL,
    message_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (guild_id, category)
)`,
	`CREATE TABLE IF NOT EXISTS channels (
    guild_id   TEXT NOT NULL,
    category   TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (guild_id, category)
)`,
	`CREATE TABLE IF NOT EXISTS run_state (
    id         SMALLINT PRIMARY KEY CHECK (id = 1),
    active     BOOLEAN NOT NULL DEFAULT FALSE,
    deleted    BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

// MigrateUp creates the tables used by the postgres store. It is idempotent.
func MigrateUp(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
