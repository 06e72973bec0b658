package repository

import (
	"context"
	"errors"
	"time"

	"patentcheck/internal/model"
)

// ErrStaleTransition is returned when a status update targets an analysis
// that is no longer in the expected state (e.g. it was cancelled meanwhile).
var ErrStaleTransition = errors.New("analysis not in an updatable state")

// AnalysisRepository persists analysis runs and their state transitions.
type AnalysisRepository interface {
	// Create inserts a new analysis, normally in the pending state.
	Create(ctx context.Context, a *model.Analysis) (*model.Analysis, error)

	// FindByID returns an analysis by its ID, including its report if any.
	FindByID(ctx context.Context, id string) (*model.Analysis, error)

	// List returns analyses newest first. A non-empty documentID restricts the result to that document.
	List(ctx context.Context, documentID string, pq PageQuery) (*PageResult[model.Analysis], error)

	// MarkRunning moves a pending analysis to running.
	MarkRunning(ctx context.Context, id string, at time.Time) error

	// Finish stores the terminal status, the report (completed only) and an error message (failed only).
	Finish(ctx context.Context, id string, status model.AnalysisStatus, report *model.Report, errMsg string, at time.Time) error
}
