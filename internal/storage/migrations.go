package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: customers, subscriptions, chart of accounts, transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS customers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					cpf_cnpj TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					phone TEXT NOT NULL DEFAULT '',
					mobile_phone TEXT NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					address_number TEXT NOT NULL DEFAULT '',
					complement TEXT NOT NULL DEFAULT '',
					province TEXT NOT NULL DEFAULT '',
					postal_code TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					asaas_id TEXT NOT NULL DEFAULT '',
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX idx_customers_asaas_id ON customers(asaas_id) WHERE asaas_id != ''`,
				`CREATE INDEX idx_customers_name ON customers(name)`,

				`CREATE TABLE IF NOT EXISTS subscriptions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					customer_id INTEGER NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					asaas_id TEXT NOT NULL DEFAULT '',
					cycle TEXT NOT NULL DEFAULT 'MONTHLY',
					billing_type TEXT NOT NULL DEFAULT 'UNDEFINED',
					status TEXT NOT NULL DEFAULT 'ACTIVE',
					next_due_date DATETIME NOT NULL,
					end_date DATETIME,
					max_payments INTEGER,
					value REAL NOT NULL DEFAULT 0,
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
				)`,
				`CREATE UNIQUE INDEX idx_subscriptions_asaas_id ON subscriptions(asaas_id) WHERE asaas_id != ''`,
				`CREATE INDEX idx_subscriptions_customer ON subscriptions(customer_id)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					code TEXT NOT NULL UNIQUE,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL,
					parent_id INTEGER,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (parent_id) REFERENCES categories(id) ON DELETE SET NULL
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					date DATETIME NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL DEFAULT 0,
					type TEXT NOT NULL DEFAULT 'OTHER',
					customer_id INTEGER,
					subscription_id INTEGER,
					category_id INTEGER,
					reconciliation TEXT NOT NULL DEFAULT 'unreconciled',
					notes TEXT NOT NULL DEFAULT '',
					raw_payload TEXT NOT NULL DEFAULT '',
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE SET NULL,
					FOREIGN KEY (subscription_id) REFERENCES subscriptions(id) ON DELETE SET NULL,
					FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_reconciliation ON transactions(reconciliation)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
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
		Description: "Categorization rules",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL DEFAULT '',
					field TEXT NOT NULL,
					operator TEXT NOT NULL,
					value TEXT NOT NULL,
					category_id INTEGER NOT NULL,
					priority INTEGER NOT NULL DEFAULT 0,
					times_applied INTEGER NOT NULL DEFAULT 0,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_rules_priority ON rules(priority DESC, id ASC)`,
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
		Version:     3,
		Description: "Payment links",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS payment_links (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					asaas_id TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					url TEXT NOT NULL DEFAULT '',
					billing_type TEXT NOT NULL DEFAULT 'UNDEFINED',
					charge_type TEXT NOT NULL DEFAULT 'DETACHED',
					status TEXT NOT NULL DEFAULT 'ACTIVE',
					value REAL,
					due_date_limit_days INTEGER,
					max_installments INTEGER,
					customer_id INTEGER,
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE SET NULL
				)`,
				`CREATE UNIQUE INDEX idx_payment_links_asaas_id ON payment_links(asaas_id) WHERE asaas_id != ''`,
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

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
