package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/martinsuchenak/netgen/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore implements PlanStore with a SQLite backend
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite-based plan store under dataDir
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "plans.db")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ss := &SQLiteStore{
		db:   db,
		path: dbPath,
	}

	if err := ss.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := ss.MigrateToV2(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return ss, nil
}

// initSchema creates the database schema
func (ss *SQLiteStore) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	_, err = ss.db.Exec(string(schema))
	return err
}

// Close closes the database connection
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

// SavePlan records a plan. Plans are immutable; saving an existing ID
// is an error.
func (ss *SQLiteStore) SavePlan(plan *model.Plan) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if plan.ID == "" {
		return ErrInvalidID
	}

	_, err := ss.db.Exec(`
		INSERT INTO plans (id, created_at, source, digest, networks, subnets, manifest, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, plan.ID, plan.CreatedAt, plan.Source, plan.Digest, plan.Networks, plan.Subnets, plan.Manifest, plan.Output)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a full plan by ID
func (ss *SQLiteStore) GetPlan(id string) (*model.Plan, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	row := ss.db.QueryRow(`
		SELECT id, created_at, source, digest, networks, subnets, manifest, output
		FROM plans
		WHERE id = ?
		LIMIT 1
	`, id)

	return scanPlan(row)
}

// FindPlanByDigest returns the most recent plan generated from the
// manifest with the given digest.
func (ss *SQLiteStore) FindPlanByDigest(digest string) (*model.Plan, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	row := ss.db.QueryRow(`
		SELECT id, created_at, source, digest, networks, subnets, manifest, output
		FROM plans
		WHERE digest = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, digest)

	return scanPlan(row)
}

// ListPlans returns plan summaries, newest first. The manifest and
// output bodies are left empty; GetPlan fetches them.
func (ss *SQLiteStore) ListPlans(filter *model.PlanFilter) ([]model.Plan, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, created_at, source, digest, networks, subnets
		FROM plans
	`
	args := []interface{}{}
	if filter != nil && filter.Source != "" {
		query += " WHERE source = ?"
		args = append(args, filter.Source)
	}
	query += " ORDER BY created_at DESC"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := make([]model.Plan, 0)
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Source, &p.Digest, &p.Networks, &p.Subnets); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan by ID
func (ss *SQLiteStore) DeletePlan(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// PrunePlans deletes plans created before the cutoff and reports how
// many were removed.
func (ss *SQLiteStore) PrunePlans(olderThan time.Time) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`DELETE FROM plans WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("pruning plans: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking prune result: %w", err)
	}
	return int(affected), nil
}

// CountPlans returns the number of stored plans
func (ss *SQLiteStore) CountPlans() (int, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var count int
	if err := ss.db.QueryRow(`SELECT COUNT(*) FROM plans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting plans: %w", err)
	}
	return count, nil
}

func scanPlan(row *sql.Row) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.CreatedAt, &p.Source, &p.Digest, &p.Networks, &p.Subnets, &p.Manifest, &p.Output)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("scanning plan: %w", err)
	}
	return &p, nil
}
