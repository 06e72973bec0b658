package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"patentcheck/internal/model"
	"patentcheck/internal/repository"
)

var (
	ErrQueueFull    = errors.New("analysis queue is full")
	ErrRunnerClosed = errors.New("analysis runner is not accepting jobs")
	ErrRateLimited  = errors.New("analysis submission rate exceeded")
)

// persistTimeout bounds each status write, including those made after the
// job's own context is gone.
const persistTimeout = 5 * time.Second

// Options sizes the runner.
type Options struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single Analyze call; zero disables it.
	Timeout time.Duration
	// SubmitRate caps accepted submissions per second with bursts of
	// SubmitBurst. Zero leaves submissions unthrottled.
	SubmitRate  float64
	SubmitBurst int
}

type job struct {
	id    string
	ctx   context.Context
	input Input
}

// Runner executes analyses on a fixed pool of workers fed by a bounded
// queue. Every job has its own context so it can be cancelled while queued
// or running; stopping the runner cancels all of them.
type Runner struct {
	analyzer Analyzer
	repo     repository.AnalysisRepository
	log      *zap.Logger
	metrics  *Metrics
	opts     Options
	now      func() time.Time
	limiter  *rate.Limiter

	jobs chan job
	base context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	closed  bool
	cancels map[string]context.CancelFunc
}

// NewRunner builds a runner. Run must be called for queued jobs to execute.
func NewRunner(analyzer Analyzer, repo repository.AnalysisRepository, log *zap.Logger, metrics *Metrics, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if opts.SubmitRate > 0 {
		limit = rate.Limit(opts.SubmitRate)
		if opts.SubmitBurst <= 0 {
			opts.SubmitBurst = 1
		}
	}
	base, stop := context.WithCancel(context.Background())
	return &Runner{
		analyzer: analyzer,
		repo:     repo,
		log:      log.With(zap.String("component", "analysis_runner")),
		metrics:  metrics,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		limiter:  rate.NewLimiter(limit, opts.SubmitBurst),
		jobs:     make(chan job, opts.QueueSize),
		base:     base,
		stop:     stop,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Run starts the workers and blocks until ctx is done. On return every
// in-flight job has been cancelled and every queued job marked cancelled.
func (r *Runner) Run(ctx context.Context) error {
	stopOnDone := context.AfterFunc(ctx, r.stop)
	defer stopOnDone()

	r.log.Info("analysis_runner_started", zap.Int("workers", r.opts.Workers), zap.Int("queue_size", r.opts.QueueSize))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.opts.Workers; i++ {
		g.Go(func() error {
			r.work(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.stop()

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for {
		select {
		case j := <-r.jobs:
			r.finish(j, model.AnalysisCancelled, nil, "")
			r.release(j.id)
		default:
			r.log.Info("analysis_runner_stopped")
			return ctx.Err()
		}
	}
}

// Submit queues an analysis that already exists in the repository in the
// pending state.
func (r *Runner) Submit(id string, in Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.base.Err() != nil {
		return ErrRunnerClosed
	}
	if !r.limiter.Allow() {
		return ErrRateLimited
	}

	ctx, cancel := context.WithCancel(r.base)
	r.cancels[id] = cancel
	select {
	case r.jobs <- job{id: id, ctx: ctx, input: in}:
		return nil
	default:
		delete(r.cancels, id)
		cancel()
		return ErrQueueFull
	}
}

// Cancel cancels a queued or running job. It returns false when the job is
// unknown to the runner, typically because it already finished.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (r *Runner) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-r.jobs:
			if ctx.Err() != nil {
				r.finish(j, model.AnalysisCancelled, nil, "")
				r.release(j.id)
				return
			}
			r.process(j)
		}
	}
}

func (r *Runner) process(j job) {
	defer r.release(j.id)
	log := r.log.With(zap.String("analysis_id", j.id))

	if j.ctx.Err() != nil {
		r.finish(j, model.AnalysisCancelled, nil, "")
		return
	}

	pctx, pcancel := r.persistContext(j.ctx)
	err := r.repo.MarkRunning(pctx, j.id, r.now())
	pcancel()
	if err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			log.Warn("analysis_skipped", zap.String("reason", "no longer pending"))
			return
		}
		log.Error("analysis_mark_running_failed", zap.Error(err))
		r.finish(j, model.AnalysisFailed, nil, "could not start analysis")
		return
	}

	ctx, span := otel.Tracer("patentcheck/analysis").Start(j.ctx, "analysis.run")
	span.SetAttributes(attribute.String("analysis.id", j.id))
	defer span.End()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	r.metrics.started()
	report, err := r.analyzer.Analyze(ctx, j.input)
	r.metrics.stopped(time.Since(start).Seconds())

	switch {
	case err == nil:
		r.finish(j, model.AnalysisCompleted, report, "")
		log.Info("analysis_completed", zap.Int("overall", report.Overall), zap.Duration("duration", time.Since(start)))
	case j.ctx.Err() != nil:
		span.SetStatus(codes.Error, "cancelled")
		r.finish(j, model.AnalysisCancelled, nil, "")
		log.Info("analysis_cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		span.SetStatus(codes.Error, "timeout")
		r.finish(j, model.AnalysisFailed, nil, fmt.Sprintf("analysis timed out after %s", r.opts.Timeout))
		log.Warn("analysis_timed_out", zap.Duration("timeout", r.opts.Timeout))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.finish(j, model.AnalysisFailed, nil, err.Error())
		log.Warn("analysis_failed", zap.Error(err))
	}
}

// finish persists a terminal status. Persistence uses a context detached
// from the job so cancelled jobs can still be recorded.
func (r *Runner) finish(j job, status model.AnalysisStatus, report *model.Report, errMsg string) {
	ctx, cancel := r.persistContext(j.ctx)
	defer cancel()

	if err := r.repo.Finish(ctx, j.id, status, report, errMsg, r.now()); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return
		}
		r.log.Error("analysis_finish_failed", zap.String("analysis_id", j.id), zap.String("status", string(status)), zap.Error(err))
		return
	}
	r.metrics.finish(string(status))
}

func (r *Runner) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}
