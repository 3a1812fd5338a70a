package output

import (
	"fmt"
	"io"
)

// NDJSONHistoryWriter writes history reports as NDJSON (one JSON object per
// line) for scripts and pipelines.
type NDJSONHistoryWriter struct{}

// NDJSONSummary is the first line of NDJSON output.
type NDJSONSummary struct {
	Type      string `json:"type"`
	Branch    string `json:"branch"`
	Base      string `json:"base,omitempty"`
	Total     int    `json:"total"`
	Undecoded int    `json:"undecoded"`
	HasMore   bool   `json:"hasMore"`
}

// NDJSONCommit is one commit line of NDJSON output.
type NDJSONCommit struct {
	Type string `json:"type"`
	JSONCommit
}

// Write outputs the history report as NDJSON.
func (w *NDJSONHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	var undecoded int
	for _, item := range items {
		if !item.Decoded() {
			undecoded++
		}
	}

	summary := NDJSONSummary{
		Type:      "summary",
		Branch:    report.Branch,
		Base:      report.Base,
		Total:     len(items),
		Undecoded: undecoded,
		HasMore:   report.HasMore || len(items) < len(report.Items),
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, item := range items {
		if err := writeNDJSONLine(out, NDJSONCommit{Type: "commit", JSONCommit: newJSONCommit(item)}); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
