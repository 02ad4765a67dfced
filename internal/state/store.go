package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

// Store manages stage state persistence backed by SQLite. Every mutation is
// committed before the call returns, so a crash between invocations loses at
// most one in-flight stage.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the state database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.StatePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for sibling stores sharing the database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CreateUnit inserts a new work unit. The identifier derives from the
// creation time; a numeric suffix disambiguates collisions within a second.
func (s *Store) CreateUnit(ctx context.Context, topic string) (*Unit, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, services.Wrap(services.ErrValidation, "state", "create unit", "topic required", nil)
	}

	now := time.Now().UTC()
	base := now.Format("20060102-150405")
	timestamp := now.Format(time.RFC3339Nano)

	id := base
	for attempt := 2; ; attempt++ {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO work_units (id, topic, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			id, topic, timestamp, timestamp,
		)
		if err == nil {
			break
		}
		if isUniqueViolation(err) && attempt <= 10 {
			id = fmt.Sprintf("%s-%d", base, attempt)
			continue
		}
		return nil, fmt.Errorf("insert work unit: %w", err)
	}

	return &Unit{ID: id, Topic: topic, CreatedAt: now, UpdatedAt: now}, nil
}

// GetUnit loads one work unit by id.
func (s *Store) GetUnit(ctx context.Context, id string) (*Unit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, created_at, updated_at FROM work_units WHERE id = ?`, id)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "state", "get unit", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return unit, nil
}

// ListUnits returns all work units, newest first.
func (s *Store) ListUnits(ctx context.Context) ([]*Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, created_at, updated_at FROM work_units ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []*Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// Snapshot loads the stage records for one unit and variant in declared
// order. Stages without a persisted row appear as pending.
func (s *Store) Snapshot(ctx context.Context, unitID, variant string) (*Snapshot, error) {
	if _, err := s.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, output_ref, completed_at, error
		   FROM stage_records
		  WHERE unit_id = ? AND (variant = '' OR variant = ?)
		  ORDER BY ordinal`,
		unitID, variant)
	if err != nil {
		return nil, fmt.Errorf("load stage records: %w", err)
	}
	defer rows.Close()

	persisted := make(map[StageName]Record)
	for rows.Next() {
		var (
			name        string
			status      string
			outputRef   string
			completedAt sql.NullString
			errMsg      string
		)
		if err := rows.Scan(&name, &status, &outputRef, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("scan stage record: %w", err)
		}
		rec := Record{
			Name:      StageName(name),
			Status:    Status(status),
			OutputRef: outputRef,
			Error:     errMsg,
		}
		if completedAt.Valid && completedAt.String != "" {
			if ts, parseErr := time.Parse(time.RFC3339Nano, completedAt.String); parseErr == nil {
				rec.CompletedAt = &ts
			}
		}
		persisted[rec.Name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(declaredOrder))
	for _, name := range declaredOrder {
		if rec, ok := persisted[name]; ok {
			records = append(records, rec)
			continue
		}
		records = append(records, Record{Name: name, Status: StatusPending})
	}
	return newSnapshot(unitID, variant, records), nil
}

// MarkDone records a successful stage execution: status done, output
// reference, completion timestamp, cleared error.
func (s *Store) MarkDone(ctx context.Context, unitID, variant string, name StageName, outputRef string) error {
	ordinal, ok := OrdinalOf(name)
	if !ok {
		return services.Wrap(services.ErrValidation, "state", "mark done", "unknown stage "+string(name), nil)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_records (unit_id, variant, name, ordinal, status, output_ref, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, '')
		 ON CONFLICT(unit_id, variant, name) DO UPDATE SET
		     status = excluded.status,
		     output_ref = excluded.output_ref,
		     completed_at = excluded.completed_at,
		     error = ''`,
		unitID, VariantFor(name, variant), string(name), ordinal, string(StatusDone), outputRef, now)
	if err != nil {
		return fmt.Errorf("mark done %s: %w", name, err)
	}
	return s.touchUnit(ctx, unitID)
}

// MarkFailed records a failed stage execution. A previous successful run's
// output reference is preserved; only a forced re-run can reach this path
// for an already satisfied stage.
func (s *Store) MarkFailed(ctx context.Context, unitID, variant string, name StageName, failure string) error {
	ordinal, ok := OrdinalOf(name)
	if !ok {
		return services.Wrap(services.ErrValidation, "state", "mark failed", "unknown stage "+string(name), nil)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_records (unit_id, variant, name, ordinal, status, error)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(unit_id, variant, name) DO UPDATE SET
		     status = excluded.status,
		     completed_at = NULL,
		     error = excluded.error`,
		unitID, VariantFor(name, variant), string(name), ordinal, string(StatusFailed), failure)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", name, err)
	}
	return s.touchUnit(ctx, unitID)
}

// ResetFrom resets a stage and everything after it in declared order back to
// pending (cascade-invalidation). Resetting a shared stage invalidates the
// downstream stages of every language variant; resetting a variant stage
// touches only that variant.
func (s *Store) ResetFrom(ctx context.Context, unitID, variant string, name StageName) error {
	ordinal, ok := OrdinalOf(name)
	if !ok {
		return services.Wrap(services.ErrValidation, "state", "reset", "unknown stage "+string(name), nil)
	}

	var err error
	if IsShared(name) {
		_, err = s.db.ExecContext(ctx,
			`UPDATE stage_records
			    SET status = 'pending', output_ref = '', completed_at = NULL, error = ''
			  WHERE unit_id = ? AND ordinal >= ?`,
			unitID, ordinal)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE stage_records
			    SET status = 'pending', output_ref = '', completed_at = NULL, error = ''
			  WHERE unit_id = ? AND ordinal >= ? AND variant = ?`,
			unitID, ordinal, variant)
	}
	if err != nil {
		return fmt.Errorf("reset from %s: %w", name, err)
	}
	return s.touchUnit(ctx, unitID)
}

func (s *Store) touchUnit(ctx context.Context, unitID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE work_units SET updated_at = ? WHERE id = ?`, now, unitID); err != nil {
		return fmt.Errorf("touch unit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*Unit, error) {
	var (
		unit      Unit
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&unit.ID, &unit.Topic, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		unit.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		unit.UpdatedAt = ts
	}
	return &unit, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
