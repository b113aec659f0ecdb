package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// RunSQLiteMigrations applies every SQLite migration in filename order.
// Used in local mode where the schema lives in a single database file.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	files, err := orderedUpFiles(sqliteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, file := range files {
		migration, err := sqliteFS.ReadFile("sqlite/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}
