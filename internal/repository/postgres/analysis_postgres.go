package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"patentcheck/internal/model"
	"patentcheck/internal/repository"
)

// AnalysisPostgres is a PostgreSQL implementation of repository.AnalysisRepository.
// Reports are stored as JSONB.
type AnalysisPostgres struct {
	db *sql.DB
}

// NewAnalysisPostgres creates a new AnalysisPostgres repository.
func NewAnalysisPostgres(db *sql.DB) *AnalysisPostgres {
	return &AnalysisPostgres{db: db}
}

var _ repository.AnalysisRepository = (*AnalysisPostgres)(nil)

const analysisColumns = `id, source, document_id, status, report, error, created_at, started_at, completed_at`

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var (
		a          model.Analysis
		documentID sql.NullString
		report     []byte
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.Source,
		&documentID,
		&a.Status,
		&report,
		&a.Error,
		&a.CreatedAt,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}
	if documentID.Valid {
		a.DocumentID = &documentID.String
	}
	if len(report) > 0 {
		var rep model.Report
		if err := json.Unmarshal(report, &rep); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		a.Report = &rep
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		a.CompletedAt = &finishedAt.Time
	}
	return &a, nil
}

// Create inserts a new analysis row and returns the stored record.
func (r *AnalysisPostgres) Create(ctx context.Context, a *model.Analysis) (*model.Analysis, error) {
	const q = `
		INSERT INTO analyses (id, source, document_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + analysisColumns
	var documentID any
	if a.DocumentID != nil {
		documentID = *a.DocumentID
	}
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.Source,
		documentID,
		a.Status,
		a.CreatedAt,
	)
	return scanAnalysis(row)
}

// FindByID fetches a single analysis by its ID. A missing row yields sql.ErrNoRows.
func (r *AnalysisPostgres) FindByID(ctx context.Context, id string) (*model.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

// List returns analyses newest first, optionally restricted to one document.
func (r *AnalysisPostgres) List(ctx context.Context, documentID string, pq repository.PageQuery) (*repository.PageResult[model.Analysis], error) {
	const filter = ` WHERE ($1 = '' OR document_id::text = $1)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`+filter, documentID).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + analysisColumns + ` FROM analyses` + filter + `
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, q, documentID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Analysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Analysis]{Items: items, Total: total}, nil
}

// MarkRunning moves a pending analysis to running.
// It returns repository.ErrStaleTransition if the analysis is no longer pending.
func (r *AnalysisPostgres) MarkRunning(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE analyses SET status = $2, started_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, q, id, model.AnalysisRunning, at, model.AnalysisPending)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// Finish records a terminal status. Analyses that already reached a terminal
// status are left untouched and repository.ErrStaleTransition is returned.
func (r *AnalysisPostgres) Finish(ctx context.Context, id string, status model.AnalysisStatus, report *model.Report, errMsg string, at time.Time) error {
	var payload any
	if report != nil {
		b, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		payload = string(b)
	}

	const q = `
		UPDATE analyses
		SET status = $2, report = $3, error = $4, completed_at = $5
		WHERE id = $1 AND status IN ($6, $7)`
	res, err := r.db.ExecContext(ctx, q, id, status, payload, errMsg, at, model.AnalysisPending, model.AnalysisRunning)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStaleTransition
	}
	return nil
}
