package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/wasmlet/wasmlet/internal/ast"
)

// Report is wasmlet's canonical structured diagnostic. Every phase builder
// returns a *Report (wrapped via WrapReport) rather than a bare error, so
// the CLI and tests can inspect Code/Phase/Span without string-parsing a
// message. Grounded on the teacher's internal/errors/report.go.
type Report struct {
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *ast.Span      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report so it survives errors.As/errors.Unwrap chains.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	if e.Rep.Span != nil {
		return fmt.Sprintf("%s: %s: %s", e.Rep.Span.String(), e.Rep.Code, e.Rep.Message)
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts the *Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps r as an error. Returns nil if r is nil.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// New builds a Report for code at span with a formatted message.
func New(code string, span ast.Span, format string, args ...any) *Report {
	return &Report{
		Code:    code,
		Phase:   Phase(code),
		Message: fmt.Sprintf(format, args...),
		Span:    &span,
	}
}

// WithData attaches structured key/value context to r and returns it.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// ToJSON renders r deterministically (sorted map keys via encoding/json's
// default map ordering, plus indentation when pretty is true).
func (r *Report) ToJSON(pretty bool) (string, error) {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Sink accumulates Reports across a compilation phase. It is not
// goroutine-safe; each phase owns one Sink for the duration of its pass.
type Sink struct {
	reports []*Report
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Add appends r to the sink. A nil r is ignored, so callers can write
// `sink.Add(maybeNilReport)` unconditionally.
func (s *Sink) Add(r *Report) {
	if r != nil {
		s.reports = append(s.reports, r)
	}
}

// HasErrors reports whether any diagnostic has been recorded.
func (s *Sink) HasErrors() bool { return len(s.reports) > 0 }

// Reports returns the recorded diagnostics in a stable order: by span
// start (file, then line, then column), matching how a reader scans source
// top to bottom.
func (s *Sink) Reports() []*Report {
	out := make([]*Report, len(s.reports))
	copy(out, s.reports)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Span, out[j].Span
		if a == nil || b == nil {
			return b != nil
		}
		if a.Start.File != b.Start.File {
			return a.Start.File < b.Start.File
		}
		if a.Start.Line != b.Start.Line {
			return a.Start.Line < b.Start.Line
		}
		return a.Start.Column < b.Start.Column
	})
	return out
}

// Err returns a combined error over every recorded report, or nil if none
// were recorded. The error's chain supports errors.As into *ReportError
// for the first report only; callers that need every report should use
// Reports directly.
func (s *Sink) Err() error {
	if !s.HasErrors() {
		return nil
	}
	return WrapReport(s.reports[0])
}
