package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"patentcheck/internal/model"
	"patentcheck/internal/repository"
	"patentcheck/internal/repository/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitFor = 2 * time.Second

// startRunner runs r in the background and returns a stop function that
// cancels it and waits for Run to return.
func startRunner(t *testing.T, r *Runner) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(waitFor):
			t.Fatal("runner did not stop")
		}
	}
}

func textInput() Input {
	return Input{ContentType: "text/plain", Text: "a claim"}
}

// expectFinish registers a Finish expectation for status and returns a
// channel receiving the stored error message.
func expectFinish(repo *mocks.MockAnalysisRepository, id string, status model.AnalysisStatus) <-chan string {
	ch := make(chan string, 1)
	repo.On("Finish", mock.Anything, id, status, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { ch <- args.String(4) }).
		Return(nil).Once()
	return ch
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for Finish")
		return ""
	}
}

func TestRunner_Completes(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	want := &model.Report{Overall: 91, Engine: "stub"}
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		return want, nil
	})

	repo.On("MarkRunning", mock.Anything, "a1", mock.Anything).Return(nil).Once()
	var stored *model.Report
	done := make(chan string, 1)
	repo.On("Finish", mock.Anything, "a1", model.AnalysisCompleted, mock.Anything, "", mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(3).(*model.Report)
			done <- ""
		}).Return(nil).Once()

	r := NewRunner(analyzer, repo, nil, metrics, Options{Workers: 2, QueueSize: 4})
	stop := startRunner(t, r)

	require.NoError(t, r.Submit("a1", textInput()))
	receive(t, done)
	stop()

	assert.Same(t, want, stored)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.finished.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.inFlight))
	assert.False(t, r.Cancel("a1"))
	repo.AssertExpectations(t)
}

func TestRunner_CancelRunning(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	started := make(chan struct{})
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	repo.On("MarkRunning", mock.Anything, "a1", mock.Anything).Return(nil).Once()
	finished := expectFinish(repo, "a1", model.AnalysisCancelled)

	r := NewRunner(analyzer, repo, nil, nil, Options{Workers: 1, QueueSize: 1})
	stop := startRunner(t, r)
	defer stop()

	require.NoError(t, r.Submit("a1", textInput()))
	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("analysis did not start")
	}

	assert.True(t, r.Cancel("a1"))
	assert.Empty(t, receive(t, finished))
	assert.Eventually(t, func() bool { return !r.Cancel("a1") }, waitFor, 5*time.Millisecond)
	repo.AssertExpectations(t)
}

func TestRunner_CancelQueued(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	called := false
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		called = true
		return &model.Report{}, nil
	})
	finished := expectFinish(repo, "a1", model.AnalysisCancelled)

	r := NewRunner(analyzer, repo, nil, nil, Options{Workers: 1, QueueSize: 1})
	require.NoError(t, r.Submit("a1", textInput()))
	assert.True(t, r.Cancel("a1"))

	stop := startRunner(t, r)
	receive(t, finished)
	stop()

	assert.False(t, called)
	repo.AssertNotCalled(t, "MarkRunning", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestRunner_AnalyzerFailure(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		return nil, errors.New("engine unavailable")
	})
	repo.On("MarkRunning", mock.Anything, "a1", mock.Anything).Return(nil).Once()
	finished := expectFinish(repo, "a1", model.AnalysisFailed)

	r := NewRunner(analyzer, repo, nil, nil, Options{Workers: 1, QueueSize: 1})
	stop := startRunner(t, r)
	defer stop()

	require.NoError(t, r.Submit("a1", textInput()))
	assert.Equal(t, "engine unavailable", receive(t, finished))
}

func TestRunner_Timeout(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	repo.On("MarkRunning", mock.Anything, "a1", mock.Anything).Return(nil).Once()
	finished := expectFinish(repo, "a1", model.AnalysisFailed)

	r := NewRunner(analyzer, repo, nil, nil, Options{Workers: 1, QueueSize: 1, Timeout: 20 * time.Millisecond})
	stop := startRunner(t, r)
	defer stop()

	require.NoError(t, r.Submit("a1", textInput()))
	assert.Equal(t, "analysis timed out after 20ms", receive(t, finished))
}

func TestRunner_StaleTransitionSkipsAnalysis(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	called := false
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		called = true
		return &model.Report{}, nil
	})
	marked := make(chan struct{})
	repo.On("MarkRunning", mock.Anything, "a1", mock.Anything).
		Run(func(mock.Arguments) { close(marked) }).
		Return(repository.ErrStaleTransition).Once()

	r := NewRunner(analyzer, repo, nil, nil, Options{Workers: 1, QueueSize: 1})
	stop := startRunner(t, r)

	require.NoError(t, r.Submit("a1", textInput()))
	select {
	case <-marked:
	case <-time.After(waitFor):
		t.Fatal("MarkRunning not called")
	}
	stop()

	assert.False(t, called)
	repo.AssertNotCalled(t, "Finish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_QueueFull(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	r := NewRunner(AnalyzerFunc(nil), repo, nil, nil, Options{Workers: 1, QueueSize: 1})

	require.NoError(t, r.Submit("a1", textInput()))
	assert.ErrorIs(t, r.Submit("a2", textInput()), ErrQueueFull)
	assert.False(t, r.Cancel("a2"))
	assert.True(t, r.Cancel("a1"))
}

func TestRunner_SubmitRate(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	r := NewRunner(AnalyzerFunc(nil), repo, nil, nil, Options{
		Workers:     1,
		QueueSize:   10,
		SubmitRate:  0.001,
		SubmitBurst: 2,
	})

	require.NoError(t, r.Submit("a1", textInput()))
	require.NoError(t, r.Submit("a2", textInput()))
	assert.ErrorIs(t, r.Submit("a3", textInput()), ErrRateLimited)
	assert.False(t, r.Cancel("a3"))
}

func TestRunner_UnthrottledByDefault(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	r := NewRunner(AnalyzerFunc(nil), repo, nil, nil, Options{Workers: 1, QueueSize: 50})
	for i := 0; i < 50; i++ {
		require.NoError(t, r.Submit(fmt.Sprintf("a%d", i), textInput()))
	}
}

func TestRunner_ShutdownCancelsQueuedJobs(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	analyzer := AnalyzerFunc(func(ctx context.Context, in Input) (*model.Report, error) {
		t.Error("analyzer must not run after shutdown")
		return nil, nil
	})
	repo.On("Finish", mock.Anything, mock.Anything, model.AnalysisCancelled, mock.Anything, "", mock.Anything).
		Return(nil).Times(3)

	r := NewRunner(analyzer, repo, nil, nil, Options{Workers: 2, QueueSize: 3})
	for _, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, r.Submit(id, textInput()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)

	assert.ErrorIs(t, r.Submit("a4", textInput()), ErrRunnerClosed)
	repo.AssertExpectations(t)
}
