package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS companies (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					name_normalized TEXT NOT NULL,
					domain TEXT,
					state TEXT,
					timezone TEXT NOT NULL DEFAULT 'central',
					notes TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_companies_normalized ON companies(name_normalized)`,

				`CREATE TABLE IF NOT EXISTS prospects (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company_id INTEGER NOT NULL,
					first_name TEXT NOT NULL DEFAULT '',
					last_name TEXT NOT NULL DEFAULT '',
					title TEXT,
					population TEXT NOT NULL,
					engagement_stage TEXT,
					follow_up_date DATETIME,
					last_contact_date DATETIME,
					parked_month TEXT,
					attempt_count INTEGER NOT NULL DEFAULT 0,
					prospect_score INTEGER NOT NULL DEFAULT 0,
					source TEXT,
					notes TEXT,
					referred_by INTEGER,
					dead_reason TEXT,
					dead_date DATETIME,
					lost_reason TEXT,
					lost_competitor TEXT,
					lost_date DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (company_id) REFERENCES companies(id),
					FOREIGN KEY (referred_by) REFERENCES prospects(id)
				)`,
				`CREATE INDEX idx_prospects_population ON prospects(population)`,
				`CREATE INDEX idx_prospects_company ON prospects(company_id)`,

				`CREATE TABLE IF NOT EXISTS contact_methods (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					prospect_id INTEGER NOT NULL,
					type TEXT NOT NULL,
					value TEXT NOT NULL,
					value_normalized TEXT NOT NULL,
					label TEXT,
					is_primary INTEGER NOT NULL DEFAULT 0,
					is_verified INTEGER NOT NULL DEFAULT 0,
					verified_date DATETIME,
					confidence_score INTEGER NOT NULL DEFAULT 0,
					is_suspect INTEGER NOT NULL DEFAULT 0,
					source TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (prospect_id) REFERENCES prospects(id)
				)`,
				`CREATE INDEX idx_contact_methods_value ON contact_methods(type, value_normalized)`,
				`CREATE INDEX idx_contact_methods_prospect ON contact_methods(prospect_id)`,

				`CREATE TABLE IF NOT EXISTS activities (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					prospect_id INTEGER NOT NULL,
					activity_type TEXT NOT NULL,
					outcome TEXT,
					population_before TEXT,
					population_after TEXT,
					stage_before TEXT,
					stage_after TEXT,
					follow_up_set DATETIME,
					notes TEXT,
					created_by TEXT NOT NULL DEFAULT 'user',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (prospect_id) REFERENCES prospects(id)
				)`,
				`CREATE INDEX idx_activities_prospect ON activities(prospect_id)`,
				`CREATE INDEX idx_activities_created ON activities(created_at)`,

				`CREATE TABLE IF NOT EXISTS import_sources (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					source_name TEXT NOT NULL,
					filename TEXT,
					total_records INTEGER NOT NULL DEFAULT 0,
					imported_records INTEGER NOT NULL DEFAULT 0,
					duplicate_records INTEGER NOT NULL DEFAULT 0,
					broken_records INTEGER NOT NULL DEFAULT 0,
					dnc_blocked_records INTEGER NOT NULL DEFAULT 0,
					import_date DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add data confidence and follow-up index",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE prospects ADD COLUMN data_confidence INTEGER NOT NULL DEFAULT 0`,
				`CREATE INDEX idx_prospects_follow_up ON prospects(follow_up_date)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", mapBusy(err))
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// PRAGMA does not accept bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, mapBusy(err))
		}
	}

	return nil
}
