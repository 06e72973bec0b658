package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"patentcheck/internal/analysis"
	"patentcheck/internal/intake"
	"patentcheck/internal/model"
	"patentcheck/internal/repository"
	"patentcheck/internal/storage"
)

var (
	ErrAnalysisNotFound  = errors.New("analysis not found")
	ErrTextRequired      = errors.New("text is required")
	ErrAnalysisBusy      = errors.New("analysis capacity exhausted, try again later")
	ErrAnalysisThrottled = errors.New("too many analyses requested, slow down")
	ErrAnalysisFinished  = errors.New("analysis already finished")
	ErrAnalysisNotReady  = errors.New("analysis has no report yet")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

const (
	pastedTextName       = "pasted.txt"
	exportFilenamePrefix = "patent-analysis-"
)

// Scheduler runs analyses in the background. *analysis.Runner implements it.
type Scheduler interface {
	Submit(id string, in analysis.Input) error
	Cancel(id string) bool
}

// AnalysisListResult is the service-level DTO for paginated analyses.
type AnalysisListResult struct {
	Items []model.Analysis `json:"data"`
	Total int              `json:"total"`
}

// Export is a rendered report ready to be downloaded.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AnalysisService starts, tracks and exports analyses.
type AnalysisService interface {
	// StartDocument queues an analysis of a stored document.
	StartDocument(ctx context.Context, documentID string) (*model.Analysis, error)

	// StartText queues an analysis of pasted text. The text passes the intake gate as text/plain.
	StartText(ctx context.Context, text string) (*model.Analysis, error)

	Get(ctx context.Context, id string) (*model.Analysis, error)

	// List returns analyses newest first, optionally for one document only.
	List(ctx context.Context, documentID string, limit, offset int) (*AnalysisListResult, error)

	// Cancel stops a pending or running analysis and returns its final state.
	Cancel(ctx context.Context, id string) (*model.Analysis, error)

	// Export renders the report of a completed analysis as json or yaml.
	Export(ctx context.Context, id, format string) (*Export, error)
}

type analysisService struct {
	docs      repository.DocumentRepository
	analyses  repository.AnalysisRepository
	store     storage.Storage
	scheduler Scheduler
	gate      *intake.Gate
	metrics   *intake.Metrics
	now       func() time.Time
}

// NewAnalysisService constructs an AnalysisService. A nil gate means the default policy.
func NewAnalysisService(docs repository.DocumentRepository, analyses repository.AnalysisRepository, store storage.Storage, scheduler Scheduler, gate *intake.Gate, metrics *intake.Metrics) AnalysisService {
	if gate == nil {
		gate = intake.DefaultGate()
	}
	return &analysisService{
		docs:      docs,
		analyses:  analyses,
		store:     store,
		scheduler: scheduler,
		gate:      gate,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *analysisService) StartDocument(ctx context.Context, documentID string) (*model.Analysis, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	path := doc.StoragePath
	in := analysis.Input{
		ContentType: doc.ContentType,
		MaxBytes:    s.gate.MaxSize(),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			rc, _, err := s.store.Get(ctx, path)
			return rc, err
		},
	}
	docID := doc.ID
	return s.start(ctx, model.SourceDocument, &docID, in)
}

func (s *analysisService) StartText(ctx context.Context, text string) (*model.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}
	out := s.gate.Validate(intake.Candidate{
		Filename:    pastedTextName,
		ContentType: intake.TypeText,
		Size:        int64(len(text)),
	})
	s.metrics.Observe(out)
	if err := out.Err(); err != nil {
		return nil, err
	}
	return s.start(ctx, model.SourceText, nil, analysis.Input{ContentType: intake.TypeText, Text: text})
}

func (s *analysisService) start(ctx context.Context, source model.AnalysisSource, documentID *string, in analysis.Input) (*model.Analysis, error) {
	a, err := s.analyses.Create(ctx, &model.Analysis{
		ID:         uuid.New().String(),
		Source:     source,
		DocumentID: documentID,
		Status:     model.AnalysisPending,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}

	if err := s.scheduler.Submit(a.ID, in); err != nil {
		// The row must not stay pending forever.
		if ferr := s.analyses.Finish(ctx, a.ID, model.AnalysisFailed, nil, err.Error(), s.now()); ferr != nil {
			return nil, fmt.Errorf("submit failed: %v; mark failed: %v", err, ferr)
		}
		switch {
		case errors.Is(err, analysis.ErrRateLimited):
			return nil, fmt.Errorf("%w: %v", ErrAnalysisThrottled, err)
		case errors.Is(err, analysis.ErrQueueFull), errors.Is(err, analysis.ErrRunnerClosed):
			return nil, fmt.Errorf("%w: %v", ErrAnalysisBusy, err)
		}
		return nil, err
	}
	return a, nil
}

func (s *analysisService) Get(ctx context.Context, id string) (*model.Analysis, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	a, err := s.analyses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *analysisService) List(ctx context.Context, documentID string, limit, offset int) (*AnalysisListResult, error) {
	limit, offset = normalizePage(limit, offset)

	res, err := s.analyses.List(ctx, documentID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AnalysisListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *analysisService) Cancel(ctx context.Context, id string) (*model.Analysis, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, ErrAnalysisFinished
	}

	// The row is marked before the job is signalled, so the runner's own
	// cancelled update finds it terminal and is dropped.
	err = s.analyses.Finish(ctx, id, model.AnalysisCancelled, nil, "", s.now())
	switch {
	case errors.Is(err, repository.ErrStaleTransition):
		cur, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if cur.Status == model.AnalysisCancelled {
			return cur, nil
		}
		return nil, ErrAnalysisFinished
	case err != nil:
		return nil, fmt.Errorf("cancel analysis: %w", err)
	}
	s.scheduler.Cancel(id)
	return s.Get(ctx, id)
}

func (s *analysisService) Export(ctx context.Context, id, format string) (*Export, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AnalysisCompleted || a.Report == nil {
		return nil, ErrAnalysisNotReady
	}

	var (
		body        []byte
		ext         string
		contentType string
	)
	switch strings.ToLower(format) {
	case "", "json":
		body, err = json.MarshalIndent(a.Report, "", "  ")
		ext, contentType = ".json", "application/json"
	case "yaml", "yml":
		body, err = yaml.Marshal(a.Report)
		ext, contentType = ".yaml", "application/yaml"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &Export{
		Filename:    exportFilenamePrefix + a.ID + ext,
		ContentType: contentType,
		Body:        body,
	}, nil
}
