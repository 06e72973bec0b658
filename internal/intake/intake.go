// Package intake decides whether a user-supplied document may proceed to
// storage and analysis. The decision looks only at the declared media type
// and the byte length; content is never read.
package intake

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MaxDocumentSize is the default upload limit (10 MiB).
const MaxDocumentSize int64 = 10 * 1024 * 1024

// Media types accepted by the default policy.
const (
	TypePDF  = "application/pdf"
	TypeDOC  = "application/msword"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeText = "text/plain"
)

// DefaultAllowedTypes is the default allow-list, in display order.
var DefaultAllowedTypes = []string{TypePDF, TypeDOC, TypeDOCX, TypeText}

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document too large")
)

// Reason explains a rejection.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonTooLarge        Reason = "too_large"
)

// Candidate is a document pending acceptance.
// Filename is informational and never affects the decision.
type Candidate struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Outcome is the result of validating a Candidate.
// Reason is ReasonNone exactly when Accepted is true. Limit and Allowed
// echo the policy of the gate that decided.
type Outcome struct {
	Accepted  bool      `json:"accepted"`
	Reason    Reason    `json:"reason,omitempty"`
	Candidate Candidate `json:"candidate"`
	Limit     int64     `json:"-"`
	Allowed   []string  `json:"-"`
}

// Err returns nil for an accepted outcome and a *RejectionError otherwise.
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	return &RejectionError{
		Reason:      o.Reason,
		ContentType: o.Candidate.ContentType,
		Size:        o.Candidate.Size,
		Limit:       o.Limit,
		Allowed:     o.Allowed,
	}
}

// RejectionError carries the reason a candidate was rejected.
// It unwraps to ErrUnsupportedType or ErrTooLarge.
type RejectionError struct {
	Reason      Reason
	ContentType string
	Size        int64
	Limit       int64
	Allowed     []string
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonUnsupportedType:
		return fmt.Sprintf("%s: %q", ErrUnsupportedType, e.ContentType)
	case ReasonTooLarge:
		return fmt.Sprintf("%s: %d bytes exceeds limit of %d bytes", ErrTooLarge, e.Size, e.Limit)
	default:
		return "document rejected"
	}
}

func (e *RejectionError) Unwrap() error {
	switch e.Reason {
	case ReasonUnsupportedType:
		return ErrUnsupportedType
	case ReasonTooLarge:
		return ErrTooLarge
	default:
		return nil
	}
}

// Policy describes what a Gate accepts.
type Policy struct {
	AllowedTypes []string `json:"allowed_types"`
	Extensions   []string `json:"extensions"`
	MaxSize      int64    `json:"max_size"`
}

// Gate applies an allow-list and a size limit. It holds no mutable state
// and is safe for concurrent use.
type Gate struct {
	allowed map[string]struct{}
	order   []string
	maxSize int64
}

// NewGate builds a gate. An empty allow-list or non-positive limit falls
// back to the defaults.
func NewGate(allowedTypes []string, maxSize int64) *Gate {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	if maxSize <= 0 {
		maxSize = MaxDocumentSize
	}
	g := &Gate{
		allowed: make(map[string]struct{}, len(allowedTypes)),
		maxSize: maxSize,
	}
	for _, t := range allowedTypes {
		n := NormalizeType(t)
		if n == "" {
			continue
		}
		if _, dup := g.allowed[n]; dup {
			continue
		}
		g.allowed[n] = struct{}{}
		g.order = append(g.order, n)
	}
	return g
}

var defaultGate = NewGate(DefaultAllowedTypes, MaxDocumentSize)

// DefaultGate returns the gate for the standard policy.
func DefaultGate() *Gate { return defaultGate }

// Validate runs the default gate.
func Validate(c Candidate) Outcome { return defaultGate.Validate(c) }

// Validate checks the media type first and the size second. Only the first
// failing check is reported. The type is matched after NormalizeType, so
// case and parameters such as charset are ignored.
func (g *Gate) Validate(c Candidate) Outcome {
	out := Outcome{Candidate: c, Limit: g.maxSize, Allowed: g.order}
	if _, ok := g.allowed[NormalizeType(c.ContentType)]; !ok {
		out.Reason = ReasonUnsupportedType
		return out
	}
	if c.Size > g.maxSize {
		out.Reason = ReasonTooLarge
		return out
	}
	out.Accepted = true
	return out
}

// MaxSize returns the size limit in bytes.
func (g *Gate) MaxSize() int64 { return g.maxSize }

// Policy returns the allow-list, the matching file extensions and the limit.
func (g *Gate) Policy() Policy {
	types := make([]string, len(g.order))
	copy(types, g.order)
	exts := make([]string, 0, len(types))
	for _, t := range types {
		if ext, ok := typeExtensions[t]; ok {
			exts = append(exts, ext)
		}
	}
	return Policy{AllowedTypes: types, Extensions: exts, MaxSize: g.maxSize}
}

// NormalizeType lower-cases a media type and drops its parameters.
// "Text/Plain; charset=utf-8" becomes "text/plain".
func NormalizeType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		if i := strings.IndexByte(contentType, ';'); i >= 0 {
			contentType = contentType[:i]
		}
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

var typeExtensions = map[string]string{
	TypePDF:  ".pdf",
	TypeDOC:  ".doc",
	TypeDOCX: ".docx",
	TypeText: ".txt",
}

var extensionTypes = map[string]string{
	".pdf":  TypePDF,
	".doc":  TypeDOC,
	".docx": TypeDOCX,
	".txt":  TypeText,
}

// TypeForExtension returns the media type declared for a file name, the way
// a browser file picker would. Unknown extensions fall back to the system
// mime table and then to application/octet-stream.
func TypeForExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return NormalizeType(t)
	}
	return "application/octet-stream"
}

// Describe returns the user-facing message for a rejection reason. allowed
// names the accepted media types; when empty the default allow-list is used.
func Describe(r Reason, limit int64, allowed ...string) string {
	switch r {
	case ReasonUnsupportedType:
		if len(allowed) == 0 {
			allowed = DefaultAllowedTypes
		}
		return fmt.Sprintf("Please upload a %s file.", listLabels(allowed))
	case ReasonTooLarge:
		return fmt.Sprintf("Please upload a file smaller than %s.", humanSize(limit))
	default:
		return ""
	}
}

// listLabels renders types as "PDF, DOC, or TXT". Types without a known
// extension are shown as is.
func listLabels(types []string) string {
	labels := make([]string, 0, len(types))
	for _, t := range types {
		n := NormalizeType(t)
		if ext, ok := typeExtensions[n]; ok {
			labels = append(labels, strings.ToUpper(strings.TrimPrefix(ext, ".")))
			continue
		}
		labels = append(labels, n)
	}
	switch len(labels) {
	case 0:
		return "supported"
	case 1:
		return labels[0]
	case 2:
		return labels[0] + " or " + labels[1]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + ", or " + labels[len(labels)-1]
}

func humanSize(n int64) string {
	const mib = 1024 * 1024
	if n > 0 && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
