package sqlite

import "database/sql"

// The store keeps each trip as one JSON document guarded by a version
// counter; id, code, version and last_modified are denormalized columns
// for lookup and compare-and-swap.
const schema = `
CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    version INTEGER NOT NULL,
    last_modified INTEGER NOT NULL,
    doc TEXT NOT NULL
);
`

// runMigrations executes the schema setup. These run on startup to ensure
// tables exist.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
