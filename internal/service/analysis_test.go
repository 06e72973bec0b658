package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"patentcheck/internal/analysis"
	"patentcheck/internal/intake"
	"patentcheck/internal/model"
	"patentcheck/internal/repository"
	repoMocks "patentcheck/internal/repository/mocks"
	"patentcheck/internal/storage"
	storeMocks "patentcheck/internal/storage/mocks"
)

type fakeScheduler struct {
	submitted map[string]analysis.Input
	cancelled []string
	err       error
}

func (f *fakeScheduler) Submit(id string, in analysis.Input) error {
	if f.err != nil {
		return f.err
	}
	if f.submitted == nil {
		f.submitted = map[string]analysis.Input{}
	}
	f.submitted[id] = in
	return nil
}

func (f *fakeScheduler) Cancel(id string) bool {
	f.cancelled = append(f.cancelled, id)
	return true
}

type analysisDeps struct {
	docs     *repoMocks.MockDocumentRepository
	analyses *repoMocks.MockAnalysisRepository
	store    *storeMocks.MockStorage
	sched    *fakeScheduler
}

func newAnalysisService(gate *intake.Gate) (AnalysisService, analysisDeps) {
	d := analysisDeps{
		docs:     new(repoMocks.MockDocumentRepository),
		analyses: new(repoMocks.MockAnalysisRepository),
		store:    new(storeMocks.MockStorage),
		sched:    &fakeScheduler{},
	}
	return NewAnalysisService(d.docs, d.analyses, d.store, d.sched, gate, nil), d
}

func returnCreated(d analysisDeps) {
	d.analyses.On("Create", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, a *model.Analysis) *model.Analysis { return a }, nil)
}

func TestAnalysisService_StartDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("queues a pending analysis reading from storage", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.docs.On("FindByID", ctx, "doc-1").Return(&model.Document{
			ID: "doc-1", StoragePath: "documents/x.txt", ContentType: "text/plain",
		}, nil)
		d.analyses.On("Create", ctx, mock.MatchedBy(func(a *model.Analysis) bool {
			return a.Status == model.AnalysisPending && a.Source == model.SourceDocument &&
				a.DocumentID != nil && *a.DocumentID == "doc-1" && a.ID != ""
		})).Return(&model.Analysis{ID: "an-1", Status: model.AnalysisPending}, nil)
		d.store.On("Get", mock.Anything, "documents/x.txt").
			Return(io.NopCloser(strings.NewReader("claim text")), storage.ObjectInfo{}, nil)

		a, err := svc.StartDocument(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "an-1", a.ID)

		in, ok := d.sched.submitted["an-1"]
		require.True(t, ok)
		assert.Equal(t, "text/plain", in.ContentType)
		assert.Equal(t, intake.MaxDocumentSize, in.MaxBytes)

		data, err := in.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "claim text", string(data))
		d.store.AssertExpectations(t)
	})

	t.Run("unknown document", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.docs.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.StartDocument(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		d.analyses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("empty id", func(t *testing.T) {
		svc, _ := newAnalysisService(nil)
		_, err := svc.StartDocument(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestAnalysisService_StartText(t *testing.T) {
	ctx := context.Background()

	t.Run("queues pasted text", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		returnCreated(d)

		a, err := svc.StartText(ctx, "1. A widget comprising a lever.")
		require.NoError(t, err)
		assert.Equal(t, model.SourceText, a.Source)
		assert.Nil(t, a.DocumentID)

		in := d.sched.submitted[a.ID]
		assert.Equal(t, intake.TypeText, in.ContentType)
		assert.Equal(t, "1. A widget comprising a lever.", in.Text)
	})

	t.Run("blank text", func(t *testing.T) {
		svc, _ := newAnalysisService(nil)
		_, err := svc.StartText(ctx, "  \n\t")
		assert.ErrorIs(t, err, ErrTextRequired)
	})

	t.Run("text over the size limit is rejected by the gate", func(t *testing.T) {
		svc, d := newAnalysisService(intake.NewGate(nil, 8))
		_, err := svc.StartText(ctx, "123456789")
		assert.ErrorIs(t, err, intake.ErrTooLarge)
		d.analyses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("text is gated as text/plain", func(t *testing.T) {
		svc, _ := newAnalysisService(intake.NewGate([]string{intake.TypePDF}, 100))
		_, err := svc.StartText(ctx, "hello")
		assert.ErrorIs(t, err, intake.ErrUnsupportedType)
	})

	t.Run("full queue marks the analysis failed", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.sched.err = analysis.ErrQueueFull
		returnCreated(d)
		d.analyses.On("Finish", ctx, mock.Anything, model.AnalysisFailed, (*model.Report)(nil), analysis.ErrQueueFull.Error(), mock.Anything).
			Return(nil).Once()

		_, err := svc.StartText(ctx, "hello")
		assert.ErrorIs(t, err, ErrAnalysisBusy)
		d.analyses.AssertExpectations(t)
	})
}

func TestAnalysisService_StartText_Throttled(t *testing.T) {
	ctx := context.Background()
	svc, d := newAnalysisService(nil)
	d.sched.err = analysis.ErrRateLimited
	returnCreated(d)
	d.analyses.On("Finish", ctx, mock.Anything, model.AnalysisFailed, (*model.Report)(nil), analysis.ErrRateLimited.Error(), mock.Anything).
		Return(nil).Once()

	_, err := svc.StartText(ctx, "hello")
	assert.ErrorIs(t, err, ErrAnalysisThrottled)
	assert.NotErrorIs(t, err, ErrAnalysisBusy)
	d.analyses.AssertExpectations(t)
}

func TestAnalysisService_Get(t *testing.T) {
	ctx := context.Background()
	svc, d := newAnalysisService(nil)
	d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1"}, nil)
	d.analyses.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
	d.analyses.On("FindByID", ctx, "broken").Return(nil, errors.New("db fail"))

	a, err := svc.Get(ctx, "an-1")
	require.NoError(t, err)
	assert.Equal(t, "an-1", a.ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrAnalysisNotFound)

	_, err = svc.Get(ctx, "broken")
	assert.EqualError(t, err, "db fail")

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestAnalysisService_List(t *testing.T) {
	ctx := context.Background()
	svc, d := newAnalysisService(nil)
	d.analyses.On("List", ctx, "doc-1", repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Analysis]{Items: []model.Analysis{{ID: "a"}}, Total: 1}, nil)

	res, err := svc.List(ctx, "doc-1", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestAnalysisService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("running analysis", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisRunning}, nil).Once()
		d.analyses.On("Finish", ctx, "an-1", model.AnalysisCancelled, (*model.Report)(nil), "", mock.Anything).Return(nil).Once()
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisCancelled}, nil).Once()

		a, err := svc.Cancel(ctx, "an-1")
		require.NoError(t, err)
		assert.Equal(t, model.AnalysisCancelled, a.Status)
		assert.Equal(t, []string{"an-1"}, d.sched.cancelled)
		d.analyses.AssertExpectations(t)
	})

	t.Run("already finished", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisCompleted}, nil)

		_, err := svc.Cancel(ctx, "an-1")
		assert.ErrorIs(t, err, ErrAnalysisFinished)
		assert.Empty(t, d.sched.cancelled)
	})

	t.Run("finished while cancelling", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisRunning}, nil).Once()
		d.analyses.On("Finish", ctx, "an-1", model.AnalysisCancelled, (*model.Report)(nil), "", mock.Anything).
			Return(repository.ErrStaleTransition).Once()
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisCompleted}, nil).Once()

		_, err := svc.Cancel(ctx, "an-1")
		assert.ErrorIs(t, err, ErrAnalysisFinished)
		assert.Empty(t, d.sched.cancelled)
		d.analyses.AssertExpectations(t)
	})

	t.Run("cancelled concurrently", func(t *testing.T) {
		svc, d := newAnalysisService(nil)
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisRunning}, nil).Once()
		d.analyses.On("Finish", ctx, "an-1", model.AnalysisCancelled, (*model.Report)(nil), "", mock.Anything).
			Return(repository.ErrStaleTransition).Once()
		d.analyses.On("FindByID", ctx, "an-1").Return(&model.Analysis{ID: "an-1", Status: model.AnalysisCancelled}, nil).Once()

		a, err := svc.Cancel(ctx, "an-1")
		require.NoError(t, err)
		assert.Equal(t, model.AnalysisCancelled, a.Status)
		d.analyses.AssertExpectations(t)
	})
}

func TestAnalysisService_Export(t *testing.T) {
	ctx := context.Background()
	report := &model.Report{
		Overall:     88,
		AIDetection: model.AIDetection{Score: 90, Status: model.CheckPass, Issues: []string{}},
		Format:      model.FormatCheck{Score: 70, Status: model.CheckWarning, Violations: []string{"Abstract too long"}},
		Engine:      analysis.SimulatedEngine,
	}

	svc, d := newAnalysisService(nil)
	d.analyses.On("FindByID", ctx, "done").Return(&model.Analysis{ID: "done", Status: model.AnalysisCompleted, Report: report}, nil)
	d.analyses.On("FindByID", ctx, "pending").Return(&model.Analysis{ID: "pending", Status: model.AnalysisPending}, nil)

	t.Run("json by default", func(t *testing.T) {
		exp, err := svc.Export(ctx, "done", "")
		require.NoError(t, err)
		assert.Equal(t, "patent-analysis-done.json", exp.Filename)
		assert.Equal(t, "application/json", exp.ContentType)
		assert.Contains(t, string(exp.Body), `"overall": 88`)
	})

	t.Run("yaml", func(t *testing.T) {
		exp, err := svc.Export(ctx, "done", "YAML")
		require.NoError(t, err)
		assert.Equal(t, "patent-analysis-done.yaml", exp.Filename)

		var got model.Report
		require.NoError(t, yaml.Unmarshal(exp.Body, &got))
		assert.Equal(t, 88, got.Overall)
		assert.Equal(t, []string{"Abstract too long"}, got.Format.Violations)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := svc.Export(ctx, "done", "xml")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("not completed", func(t *testing.T) {
		_, err := svc.Export(ctx, "pending", "json")
		assert.ErrorIs(t, err, ErrAnalysisNotReady)
	})
}
