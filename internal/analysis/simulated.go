package analysis

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"patentcheck/internal/model"
)

// SimulatedEngine is the engine name stamped on simulated reports.
const SimulatedEngine = "simulated"

// Thresholds are the pass marks per report section. A score within
// warningBand points below its threshold is a warning; lower is a failure.
type Thresholds struct {
	AI         int
	Plagiarism int
	Grammar    int
	Format     int
}

const warningBand = 15

// DefaultThresholds mirrors the defaults shown on the configuration screen.
func DefaultThresholds() Thresholds {
	return Thresholds{AI: 85, Plagiarism: 75, Grammar: 80, Format: 80}
}

// Grade maps a score to a check status against threshold.
func Grade(score, threshold int) model.CheckStatus {
	switch {
	case score >= threshold:
		return model.CheckPass
	case score >= threshold-warningBand:
		return model.CheckWarning
	default:
		return model.CheckFail
	}
}

var (
	plagiarismSources = []string{"Patent DB", "Academic Sources", "Web Content"}

	aiIssueCatalog = []string{
		"Abstract may need humanization",
		"Background section shows AI-generated patterns",
		"Detailed description shows repetitive phrasing",
		"Claims use templated language",
	}

	formatViolationCatalog = []string{
		"Missing claim dependencies",
		"Incorrect figure numbering",
		"Abstract too long",
		"Missing cross-reference to related applications",
		"Claims not numbered consecutively",
		"Inconsistent reference numerals",
		"Missing brief description of drawings",
		"Title exceeds 500 characters",
	}
)

// Simulated fabricates reports with random scores after a fixed delay. It
// performs no real analysis; only the document statistics are genuine.
type Simulated struct {
	delay      time.Duration
	thresholds Thresholds
	now        func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// SimulatedOption customises a Simulated analyzer.
type SimulatedOption func(*Simulated)

// WithSeed makes report generation deterministic.
func WithSeed(seed uint64) SimulatedOption {
	return func(s *Simulated) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock overrides the clock used for GeneratedAt.
func WithClock(now func() time.Time) SimulatedOption {
	return func(s *Simulated) { s.now = now }
}

// NewSimulated returns a simulated analyzer that waits delay before answering.
func NewSimulated(delay time.Duration, th Thresholds, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		delay:      delay,
		thresholds: th,
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Analyzer = (*Simulated)(nil)

// Analyze loads and inspects the input, waits for the configured delay
// (or until ctx is done) and returns a fabricated report.
func (s *Simulated) Analyze(ctx context.Context, in Input) (*model.Report, error) {
	data, err := in.Load(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := Inspect(in.ContentType, data)
	if err != nil {
		return nil, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := s.generate()
	report.Document = stats
	report.GeneratedAt = s.now().UTC()
	return report, nil
}

func (s *Simulated) generate() *model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	between := func(lo, n int) int { return lo + s.rng.IntN(n) }

	r := &model.Report{Engine: SimulatedEngine}

	r.AIDetection.Score = between(70, 30)
	r.AIDetection.Confidence = between(80, 20)
	r.AIDetection.Status = Grade(r.AIDetection.Score, s.thresholds.AI)
	r.AIDetection.Issues = []string{}
	if r.AIDetection.Status != model.CheckPass {
		r.AIDetection.Issues = s.pick(aiIssueCatalog, between(1, 2))
	}

	r.Plagiarism.Score = between(80, 20)
	r.Plagiarism.Matches = s.rng.IntN(5)
	r.Plagiarism.Sources = append([]string(nil), plagiarismSources...)
	r.Plagiarism.Status = Grade(r.Plagiarism.Score, s.thresholds.Plagiarism)

	r.Grammar.Score = between(70, 30)
	r.Grammar.Errors = s.rng.IntN(15)
	r.Grammar.Suggestions = s.rng.IntN(10)
	r.Grammar.Status = Grade(r.Grammar.Score, s.thresholds.Grammar)

	r.Format.Score = between(60, 40)
	r.Format.Violations = s.pick(formatViolationCatalog, s.rng.IntN(8))
	r.Format.Compliance = "USPTO Standard"
	r.Format.Status = Grade(r.Format.Score, s.thresholds.Format)

	sum := r.AIDetection.Score + r.Plagiarism.Score + r.Grammar.Score + r.Format.Score
	r.Overall = (sum + 2) / 4
	return r
}

// pick returns n distinct entries of catalog in random order. Callers hold s.mu.
func (s *Simulated) pick(catalog []string, n int) []string {
	out := make([]string, 0, n)
	for _, i := range s.rng.Perm(len(catalog))[:n] {
		out = append(out, catalog[i])
	}
	return out
}
