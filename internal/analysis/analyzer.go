// Package analysis runs document analyses. The Analyzer interface is the
// contract for the external analysis engine; Simulated stands in for it
// until a real engine is available. Runner executes analyses on a bounded
// worker pool with per-job cancellation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"

	"patentcheck/internal/model"
)

var ErrNoContent = errors.New("analysis input has no content")

// Analyzer produces a report for one input.
// Implementations must return promptly with ctx.Err() once ctx is done.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (*model.Report, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, in Input) (*model.Report, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, in Input) (*model.Report, error) {
	return f(ctx, in)
}

// Input is what gets analysed: either pasted Text, or a stored document
// read through Open. MaxBytes bounds how much of Open's stream is read;
// zero means unbounded.
type Input struct {
	ContentType string
	Text        string
	Open        func(ctx context.Context) (io.ReadCloser, error)
	MaxBytes    int64
}

// Load returns the input's bytes.
func (in Input) Load(ctx context.Context) ([]byte, error) {
	if in.Open == nil {
		if in.Text == "" {
			return nil, ErrNoContent
		}
		return []byte(in.Text), nil
	}

	rc, err := in.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open content: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if in.MaxBytes > 0 {
		r = io.LimitReader(rc, in.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if in.MaxBytes > 0 && int64(len(data)) > in.MaxBytes {
		return nil, fmt.Errorf("read content: stored object exceeds %d bytes", in.MaxBytes)
	}
	return data, nil
}
