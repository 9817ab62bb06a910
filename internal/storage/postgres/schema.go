package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stvgt/interfaces/internal/observability"
)

// Migration is a single versioned schema change, applied at most once and
// tracked in schema_migrations.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns every registry schema migration in order. Trigger
// functions raise the distinguishable SQLSTATEs consumed by
// translatePostgresError: NO_PRODUCER_FOR_INTERFACE (T1) and
// NO_OTHER_PRODUCER_FOR_USED_INTERFACE (T2), per spec §4.2.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create consumers and producers tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS producers (
					id BIGSERIAL PRIMARY KEY,
					component VARCHAR(255) NOT NULL,
					sub_component VARCHAR(255) NOT NULL DEFAULT '',
					host VARCHAR(255) NOT NULL,
					itype VARCHAR(255) NOT NULL,
					iprimary VARCHAR(255) NOT NULL DEFAULT '',
					isecondary VARCHAR(255) NOT NULL DEFAULT '',
					itertiary VARCHAR(255) NOT NULL DEFAULT '',
					deprecated BOOLEAN NOT NULL DEFAULT FALSE,
					UNIQUE (component, sub_component, host, itype, iprimary, isecondary, itertiary, deprecated)
				);

				CREATE INDEX IF NOT EXISTS idx_producers_component ON producers(component);
				CREATE INDEX IF NOT EXISTS idx_producers_endpoint_key ON producers(host, itype, iprimary, isecondary, itertiary);

				CREATE TABLE IF NOT EXISTS consumers (
					id BIGSERIAL PRIMARY KEY,
					component VARCHAR(255) NOT NULL,
					sub_component VARCHAR(255) NOT NULL DEFAULT '',
					host VARCHAR(255) NOT NULL,
					itype VARCHAR(255) NOT NULL,
					iprimary VARCHAR(255) NOT NULL DEFAULT '',
					isecondary VARCHAR(255) NOT NULL DEFAULT '',
					itertiary VARCHAR(255) NOT NULL DEFAULT '',
					optional BOOLEAN NOT NULL DEFAULT FALSE,
					UNIQUE (component, sub_component, host, itype, iprimary, isecondary, itertiary, optional)
				);

				CREATE INDEX IF NOT EXISTS idx_consumers_component ON consumers(component);
				CREATE INDEX IF NOT EXISTS idx_consumers_endpoint_key ON consumers(host, itype, iprimary, isecondary, itertiary);
			`,
		},
		{
			Version:     2,
			Description: "create T1 trigger enforcing C1 on consumer insert",
			SQL: `
				CREATE OR REPLACE FUNCTION check_producer_exists() RETURNS TRIGGER AS $$
				BEGIN
					IF NEW.optional THEN
						RETURN NEW;
					END IF;

					IF EXISTS (
						SELECT 1 FROM producers
						WHERE host = NEW.host
						  AND itype = NEW.itype
						  AND iprimary = NEW.iprimary
						  AND isecondary = NEW.isecondary
						  AND itertiary = NEW.itertiary
					) THEN
						RETURN NEW;
					END IF;

					RAISE EXCEPTION 'NO_PRODUCER_FOR_INTERFACE: %/%/%/%/%', NEW.host, NEW.itype, NEW.iprimary, NEW.isecondary, NEW.itertiary
						USING ERRCODE = 'IR001';
				END;
				$$ LANGUAGE plpgsql;

				DROP TRIGGER IF EXISTS trg_check_producer_exists ON consumers;
				CREATE TRIGGER trg_check_producer_exists
					BEFORE INSERT ON consumers
					FOR EACH ROW
					EXECUTE FUNCTION check_producer_exists();
			`,
		},
		{
			Version:     3,
			Description: "create T2 trigger enforcing C2 on producer delete",
			SQL: `
				CREATE OR REPLACE FUNCTION check_producer_withdrawal_safe() RETURNS TRIGGER AS $$
				BEGIN
					IF NOT EXISTS (
						SELECT 1 FROM consumers
						WHERE host = OLD.host
						  AND itype = OLD.itype
						  AND iprimary = OLD.iprimary
						  AND isecondary = OLD.isecondary
						  AND itertiary = OLD.itertiary
						  AND optional = FALSE
					) THEN
						RETURN OLD;
					END IF;

					IF EXISTS (
						SELECT 1 FROM producers
						WHERE host = OLD.host
						  AND itype = OLD.itype
						  AND iprimary = OLD.iprimary
						  AND isecondary = OLD.isecondary
						  AND itertiary = OLD.itertiary
						  AND component != OLD.component
						  AND sub_component != OLD.sub_component
					) THEN
						RETURN OLD;
					END IF;

					RAISE EXCEPTION 'NO_OTHER_PRODUCER_FOR_USED_INTERFACE: %/%/%/%/%', OLD.host, OLD.itype, OLD.iprimary, OLD.isecondary, OLD.itertiary
						USING ERRCODE = 'IR002';
				END;
				$$ LANGUAGE plpgsql;

				DROP TRIGGER IF EXISTS trg_check_producer_withdrawal_safe ON producers;
				CREATE TRIGGER trg_check_producer_withdrawal_safe
					BEFORE DELETE ON producers
					FOR EACH ROW
					EXECUTE FUNCTION check_producer_withdrawal_safe();
			`,
		},
	}
}

// RunMigrations applies every pending migration inside its own
// transaction, tracked by a schema_migrations table (mirroring the
// rbac_migrations tracking idiom).
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, m := range Migrations() {
		if applied[m.Version] {
			continue
		}

		logger.Infof("running migration %d: %s", m.Version, m.Description)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start migration transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		logger.Infof("migration %d applied", m.Version)
	}

	return nil
}
