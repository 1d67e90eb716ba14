package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_ledger_transactions",
		SQL: `CREATE TABLE IF NOT EXISTS ledger_transactions (
  id         BIGSERIAL   PRIMARY KEY,
  key        TEXT        NOT NULL,
  payload    TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_ledger_transactions_key",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ledger_transactions_key ON ledger_transactions (key);`,
	},
	{
		Name: "create_index_ledger_transactions_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ledger_transactions_created_at ON ledger_transactions (created_at);`,
	},
}

// EnsureMigrated checks whether the ledger_transactions table exists
// and runs the migration steps if it does not. The ledger table is
// append-only; no step ever drops or rewrites rows.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.ledger_transactions') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return fmt.Errorf("check ledger table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_check",
			"status":      "up_to_date",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return fmt.Errorf("migration step %s: %w", step.Name, err)
		}
		logJSON(loc, map[string]any{
			"component": "database",
			"event":     "db_migration_step",
			"step":      step.Name,
			"status":    "applied",
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_check",
		"status":      "migrated",
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func logJSON(loc *time.Location, entry map[string]any) {
	entry["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
