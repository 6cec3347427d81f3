package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/pkg/database"
)

// defaultListLimit caps List when the caller passes no limit.
const defaultListLimit = 20

// Store reads and writes assessments.
type Store struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStore creates a store on an already-migrated database.
func NewStore(db *database.DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Open connects to the assessment database and applies pending migrations.
func Open(cfg database.Config, logger *zap.Logger) (*Store, error) {
	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(db, logger).Run(Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate assessment store: %w", err)
	}
	return NewStore(db, logger), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores one assessment. A missing ID gets a fresh UUID and a zero
// CreatedAt the current time, so callers only fill what they know.
func (s *Store) Save(ctx context.Context, a *Assessment) error {
	if a == nil || a.Report == nil {
		return errors.New("assessment with a report is required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	metricsJSON, err := json.Marshal(a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	reportJSON, err := json.Marshal(a.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, source, metrics_json, report_json, status, variance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Source,
		string(metricsJSON),
		string(reportJSON),
		string(a.Report.Status),
		a.Report.Variance.StringFixed(2),
		a.CreatedAt,
	)
	if err != nil {
		s.logger.Error("failed to store assessment",
			zap.String("id", a.ID),
			zap.Error(err))
		return fmt.Errorf("failed to store assessment: %w", err)
	}

	s.logger.Debug("assessment stored",
		zap.String("id", a.ID),
		zap.String("source", a.Source),
		zap.String("status", string(a.Report.Status)))
	return nil
}

// List returns the most recent assessments, newest first. A non-positive
// limit falls back to the default page size.
func (s *Store) List(ctx context.Context, limit int) ([]*Assessment, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, metrics_json, report_json, created_at
		FROM assessments
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// Get returns the assessment with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Assessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, metrics_json, report_json, created_at
		FROM assessments
		WHERE id = ?`, id)

	a, err := scanAssessment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, err
}

func scanAssessment(scan func(dest ...any) error) (*Assessment, error) {
	var (
		a           Assessment
		metricsJSON string
		reportJSON  string
	)
	if err := scan(&a.ID, &a.Source, &metricsJSON, &reportJSON, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	if err := json.Unmarshal([]byte(metricsJSON), &a.Metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &a.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report for %s: %w", a.ID, err)
	}
	return &a, nil
}
