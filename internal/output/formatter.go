package output

import (
	"time"

	"github.com/masmgr/content-gateway/internal/git"
)

// Compile-time interface conformance checks.
var (
	_ HistoryReportWriter = (*ConsoleHistoryWriter)(nil)
	_ HistoryReportWriter = (*JSONHistoryWriter)(nil)
	_ HistoryReportWriter = (*NDJSONHistoryWriter)(nil)

	_ BranchReportWriter = (*ConsoleBranchWriter)(nil)
	_ BranchReportWriter = (*JSONBranchWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatNDJSON  OutputFormat = "ndjson"
)

// ParseFormat maps a format flag value to a format. Unknown values select
// the console.
func ParseFormat(s string) OutputFormat {
	switch s {
	case "json":
		return FormatJSON
	case "ndjson", "ci":
		return FormatNDJSON
	default:
		return FormatConsole
	}
}

// OutputOptions controls output behavior. Top caps the printed commits;
// zero prints all of them.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// HistoryReport holds decoded commits of one branch. Base is set when the
// report lists the commits Branch has and Base lacks.
type HistoryReport struct {
	RepoPath    string
	Branch      string
	Base        string
	Scope       string
	GeneratedAt time.Time
	HasMore     bool
	Items       []git.AnnotatedCommit
}

// BranchReport lists the recognized branches of a repository.
type BranchReport struct {
	RepoPath    string
	GeneratedAt time.Time
	Branches    []git.BranchStatus
}

// HistoryReportWriter writes history reports.
type HistoryReportWriter interface {
	Write(report *HistoryReport, options OutputOptions) error
}

// BranchReportWriter writes branch reports.
type BranchReportWriter interface {
	Write(report *BranchReport, options OutputOptions) error
}

// NewHistoryReportWriter creates a history report writer for the specified format.
func NewHistoryReportWriter(format OutputFormat) HistoryReportWriter {
	switch format {
	case FormatJSON:
		return &JSONHistoryWriter{}
	case FormatNDJSON:
		return &NDJSONHistoryWriter{}
	default:
		return &ConsoleHistoryWriter{}
	}
}

// NewBranchReportWriter creates a branch report writer for the specified
// format. Branch reports are small, so NDJSON falls back to JSON.
func NewBranchReportWriter(format OutputFormat) BranchReportWriter {
	switch format {
	case FormatJSON, FormatNDJSON:
		return &JSONBranchWriter{}
	default:
		return &ConsoleBranchWriter{}
	}
}
