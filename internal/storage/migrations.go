package storage

import (
	"database/sql"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// MigrateToV2 migrates from schema v1 (no digest column) to v2 (digest
// column plus lookup index), backfilling digests from the stored
// manifests so FindPlanByDigest works on old histories.
func (ss *SQLiteStore) MigrateToV2() error {
	// Check if already migrated
	var version int
	err := ss.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return fmt.Errorf("checking migration version: %w", err)
	}
	if version >= 2 {
		return nil // Already migrated
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Check if the plans table has the digest column
	// If it doesn't, we need to migrate
	var digestColumn string
	err = tx.QueryRow(`
		SELECT name FROM pragma_table_info('plans')
		WHERE name='digest'
	`).Scan(&digestColumn)

	needsMigration := (err == sql.ErrNoRows)

	if needsMigration {
		_, err = tx.Exec(`ALTER TABLE plans ADD COLUMN digest TEXT NOT NULL DEFAULT ''`)
		if err != nil {
			// Column might already exist
			if !isDuplicateColumnError(err) {
				return fmt.Errorf("adding digest column: %w", err)
			}
		}

		// Recompute digests from the manifests already on record
		rows, err := tx.Query(`SELECT id, manifest FROM plans`)
		if err != nil {
			return fmt.Errorf("querying existing plans: %w", err)
		}
		defer rows.Close()

		digests := make(map[string]string)
		for rows.Next() {
			var id, manifest string
			if err := rows.Scan(&id, &manifest); err != nil {
				return fmt.Errorf("scanning plan: %w", err)
			}
			sum := blake2b.Sum256([]byte(manifest))
			digests[id] = hex.EncodeToString(sum[:])
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("reading existing plans: %w", err)
		}
		rows.Close()

		for id, digest := range digests {
			_, err = tx.Exec(`UPDATE plans SET digest = ? WHERE id = ?`, digest, id)
			if err != nil {
				return fmt.Errorf("backfilling digest for %s: %w", id, err)
			}
		}
	}

	// The digest index is created here rather than in the base schema so
	// that it exists on both fresh and migrated databases
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_plans_digest ON plans(digest)`)
	if err != nil {
		return fmt.Errorf("creating digest index: %w", err)
	}

	// Update migration version
	_, err = tx.Exec(`INSERT OR IGNORE INTO schema_migrations (version) VALUES (2)`)
	if err != nil {
		return fmt.Errorf("setting migration version: %w", err)
	}

	return tx.Commit()
}

// isDuplicateColumnError checks if the error is about duplicate column
func isDuplicateColumnError(err error) bool {
	return err != nil && err.Error() == "duplicate column name: digest"
}
