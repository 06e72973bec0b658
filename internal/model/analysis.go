package model

import "time"

// AnalysisStatus is the lifecycle state of an analysis run.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
	AnalysisCancelled AnalysisStatus = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisCompleted || s == AnalysisFailed || s == AnalysisCancelled
}

// AnalysisSource tells whether an analysis ran on a stored document or on pasted text.
type AnalysisSource string

const (
	SourceDocument AnalysisSource = "document"
	SourceText     AnalysisSource = "text"
)

// Analysis is one analysis run and, once completed, its report.
type Analysis struct {
	ID          string         `json:"id"`
	Source      AnalysisSource `json:"source"`
	DocumentID  *string        `json:"document_id,omitempty"`
	Status      AnalysisStatus `json:"status"`
	Report      *Report        `json:"report,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// CheckStatus grades a single report section.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckWarning CheckStatus = "warning"
	CheckFail    CheckStatus = "fail"
)

// Report is the result of analysing one document or text.
type Report struct {
	Overall     int             `json:"overall" yaml:"overall"`
	AIDetection AIDetection     `json:"ai_detection" yaml:"ai_detection"`
	Plagiarism  PlagiarismCheck `json:"plagiarism" yaml:"plagiarism"`
	Grammar     GrammarCheck    `json:"grammar" yaml:"grammar"`
	Format      FormatCheck     `json:"format" yaml:"format"`
	Document    DocumentStats   `json:"document" yaml:"document"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
	Engine      string          `json:"engine" yaml:"engine"`
}

type AIDetection struct {
	Score      int         `json:"score" yaml:"score"`
	Status     CheckStatus `json:"status" yaml:"status"`
	Confidence int         `json:"confidence" yaml:"confidence"`
	Issues     []string    `json:"issues" yaml:"issues"`
}

type PlagiarismCheck struct {
	Score   int         `json:"score" yaml:"score"`
	Status  CheckStatus `json:"status" yaml:"status"`
	Matches int         `json:"matches" yaml:"matches"`
	Sources []string    `json:"sources" yaml:"sources"`
}

type GrammarCheck struct {
	Score       int         `json:"score" yaml:"score"`
	Status      CheckStatus `json:"status" yaml:"status"`
	Errors      int         `json:"errors" yaml:"errors"`
	Suggestions int         `json:"suggestions" yaml:"suggestions"`
}

type FormatCheck struct {
	Score      int         `json:"score" yaml:"score"`
	Status     CheckStatus `json:"status" yaml:"status"`
	Violations []string    `json:"violations" yaml:"violations"`
	Compliance string      `json:"compliance" yaml:"compliance"`
}

// DocumentStats describes the analysed input. Pages is only set for PDFs
// and Words only for plain text.
type DocumentStats struct {
	ContentType string `json:"content_type" yaml:"content_type"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
	Pages       int    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Words       int    `json:"words,omitempty" yaml:"words,omitempty"`
}
