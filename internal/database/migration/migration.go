package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// NotifyChannel is the Postgres channel the books trigger publishes to.
const NotifyChannel = "books_changed"

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  provider     TEXT        NOT NULL CHECK (provider IN ('google', 'anonymous')),
  subject      TEXT        NOT NULL,
  email        TEXT        NOT NULL DEFAULT '',
  display_name TEXT        NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (provider, subject)
);`,
	},
	{
		Name: "create_table_books",
		SQL: `CREATE TABLE IF NOT EXISTS books (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  title       TEXT        NOT NULL,
  author      TEXT        NOT NULL,
  cover_url   TEXT        NOT NULL DEFAULT '',
  cover_key   TEXT        NOT NULL DEFAULT '',
  catalog_id  TEXT        NOT NULL DEFAULT '',
  total_pages INTEGER     NOT NULL CHECK (total_pages >= 0),
  pages_read  INTEGER     NOT NULL DEFAULT 0 CHECK (pages_read >= 0 AND pages_read <= total_pages),
  status      TEXT        NOT NULL CHECK (status IN ('want_to_read', 'currently_reading', 'finished')),
  rating      SMALLINT    CHECK (rating BETWEEN 1 AND 5),
  journal     TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_books_user_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_books_user_status ON books (user_id, status);`,
	},
	{
		Name: "create_index_books_user_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_books_user_created_at ON books (user_id, created_at DESC);`,
	},
	{
		Name: "create_function_notify_books_changed",
		SQL: `CREATE OR REPLACE FUNCTION notify_books_changed() RETURNS trigger AS $$
DECLARE
  rec RECORD;
BEGIN
  IF TG_OP = 'DELETE' THEN
    rec := OLD;
  ELSE
    rec := NEW;
  END IF;
  PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
    'user_id', rec.user_id,
    'book_id', rec.id,
    'op', lower(TG_OP)
  )::text);
  RETURN rec;
END;
$$ LANGUAGE plpgsql;`,
	},
	{
		Name: "create_trigger_books_changed",
		SQL: `DROP TRIGGER IF EXISTS trg_books_changed ON books;
CREATE TRIGGER trg_books_changed
AFTER INSERT OR UPDATE OR DELETE ON books
FOR EACH ROW EXECUTE FUNCTION notify_books_changed();`,
	},
}

// EnsureMigrated checks if the 'books' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With(slog.String("component", "database"), slog.String("db_host", dbHost))

	log.Info("db_migration_check", slog.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass('public.books') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			slog.String("status", "success"),
			slog.String("msg", "schema already exists, skipping migration"),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", slog.String("status", "in_progress"))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				slog.String("status", "error"),
				slog.String("migration_step", step.Name),
				slog.String("error_message", err.Error()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			slog.String("status", "success"),
			slog.String("migration_step", step.Name),
			slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		slog.String("status", "success"),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}
