package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotAvailable means a conditional update matched zero rows:
	// another actor already transitioned the donation. It is distinct
	// from transport errors so the caller can say "no longer
	// available" instead of a generic failure.
	ErrNotAvailable = errors.New("donation no longer available")

	ErrNotFound = errors.New("record not found")
)

// IsUniqueViolation reports whether err is a Postgres unique
// constraint violation (duplicate email on signup).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Database struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context) (*Database, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	db := &Database{Pool: pool}
	if err := db.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

func (db *Database) Close() {
	db.Pool.Close()
}

func (db *Database) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_roles (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		role TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS donations (
		id TEXT PRIMARY KEY,
		donor_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ngo_id TEXT REFERENCES users(id),
		volunteer_id TEXT REFERENCES users(id),
		food_item TEXT NOT NULL,
		quantity TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		pickup_address TEXT NOT NULL,
		food_source TEXT NOT NULL DEFAULT 'home',
		expiry_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		accepted_at TIMESTAMPTZ,
		picked_up_at TIMESTAMPTZ,
		delivered_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS contact_messages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_donations_status ON donations(status);
	CREATE INDEX IF NOT EXISTS idx_donations_donor ON donations(donor_id);
	CREATE INDEX IF NOT EXISTS idx_donations_ngo ON donations(ngo_id);
	CREATE INDEX IF NOT EXISTS idx_donations_volunteer ON donations(volunteer_id);
	CREATE INDEX IF NOT EXISTS idx_contact_messages_status ON contact_messages(status);
	`

	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return err
	}

	// Row triggers feed the realtime change channel. The payload
	// names the table, operation, and row id; subscribers refetch
	// wholesale, so the payload never needs the changed fields.
	notifyFn := `
	CREATE OR REPLACE FUNCTION notify_record_change() RETURNS trigger AS $$
	DECLARE
		rec JSONB;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			rec := to_jsonb(OLD);
		ELSE
			rec := to_jsonb(NEW);
		END IF;
		PERFORM pg_notify('record_changes', json_build_object(
			'table', TG_TABLE_NAME,
			'op', TG_OP,
			'id', COALESCE(rec->>'id', rec->>'user_id')
		)::text);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;
	`
	if _, err := db.Pool.Exec(ctx, notifyFn); err != nil {
		return err
	}

	for _, table := range []string{"donations", "profiles", "contact_messages"} {
		drop := fmt.Sprintf("DROP TRIGGER IF EXISTS %s_notify ON %s", table, table)
		if _, err := db.Pool.Exec(ctx, drop); err != nil {
			return err
		}
		create := fmt.Sprintf(
			"CREATE TRIGGER %s_notify AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION notify_record_change()",
			table, table)
		if _, err := db.Pool.Exec(ctx, create); err != nil {
			return err
		}
	}

	return nil
}
