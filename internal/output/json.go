package output

import (
	"fmt"

	"github.com/masmgr/content-gateway/internal/codec"
	"github.com/masmgr/content-gateway/internal/git"
)

// JSONHistoryWriter writes history reports as one JSON document.
type JSONHistoryWriter struct{}

// JSONHistoryReport is the JSON output structure for history.
type JSONHistoryReport struct {
	RepoPath    string       `json:"repo"`
	Branch      string       `json:"branch"`
	Base        string       `json:"base,omitempty"`
	Scope       string       `json:"scope,omitempty"`
	GeneratedAt string       `json:"generatedAt"`
	HasMore     bool         `json:"hasMore"`
	Commits     []JSONCommit `json:"commits"`
}

// JSONCommit is the JSON output structure for a single commit.
type JSONCommit struct {
	Hash      string           `json:"hash"`
	Author    string           `json:"author"`
	Email     string           `json:"email"`
	Datetime  string           `json:"datetime"`
	Tag       string           `json:"tag,omitempty"`
	Subject   string           `json:"subject"`
	Operation *codec.Operation `json:"operation,omitempty"`
	Undecoded string           `json:"undecoded,omitempty"`
}

func newJSONCommit(c git.AnnotatedCommit) JSONCommit {
	return JSONCommit{
		Hash:      c.Commit.SHA,
		Author:    c.Commit.Author.Name,
		Email:     c.Commit.Author.Email,
		Datetime:  c.Commit.When.Format(reportDateTimeLayout),
		Tag:       c.Tag,
		Subject:   c.Commit.Subject(),
		Operation: c.Operation,
		Undecoded: c.Undecoded,
	}
}

// Write outputs the history report as indented JSON.
func (w *JSONHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	commits := make([]JSONCommit, len(items))
	for i, item := range items {
		commits[i] = newJSONCommit(item)
	}

	doc := JSONHistoryReport{
		RepoPath:    report.RepoPath,
		Branch:      report.Branch,
		Base:        report.Base,
		Scope:       report.Scope,
		GeneratedAt: report.GeneratedAt.Format(reportDateTimeLayout),
		HasMore:     report.HasMore || len(items) < len(report.Items),
		Commits:     commits,
	}
	return writeJSONDocument(doc, options.OutputPath)
}

// JSONBranchWriter writes branch reports as JSON.
type JSONBranchWriter struct{}

// JSONBranch is the JSON output structure for a single branch.
type JSONBranch struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
	Exists  bool   `json:"exists"`
	Hash    string `json:"hash,omitempty"`
}

// Write outputs the branch report as indented JSON.
func (w *JSONBranchWriter) Write(report *BranchReport, options OutputOptions) error {
	branches := make([]JSONBranch, len(report.Branches))
	for i, b := range report.Branches {
		branches[i] = JSONBranch{Name: b.Name, Default: b.Default, Exists: b.Exists}
		if b.Exists {
			branches[i].Hash = b.Hash.String()
		}
	}

	return writeJSONDocument(struct {
		RepoPath    string       `json:"repo"`
		GeneratedAt string       `json:"generatedAt"`
		Branches    []JSONBranch `json:"branches"`
	}{
		RepoPath:    report.RepoPath,
		GeneratedAt: report.GeneratedAt.Format(reportDateTimeLayout),
		Branches:    branches,
	}, options.OutputPath)
}

func writeJSONDocument(v any, outputPath string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
