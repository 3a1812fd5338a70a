package output

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ConsoleHistoryWriter writes history reports to the console.
type ConsoleHistoryWriter struct{}

// Write outputs the history report as a table.
func (w *ConsoleHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	items := limitTop(report.Items, options.Top)

	if report.Base != "" {
		color.New(color.FgGreen).Fprintf(out, "Changes on %s not on %s\n", report.Branch, report.Base)
	} else {
		color.New(color.FgGreen).Fprintf(out, "History of %s\n", report.Branch)
	}
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	if report.Scope != "" {
		fmt.Fprintf(out, "Scope: %s\n", report.Scope)
	}
	fmt.Fprintf(out, "Commits: %d\n\n", len(items))

	if len(items) == 0 {
		fmt.Fprintln(out, "No commits found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSHA\tDate\tAuthor\tTag\tOperation")
	for i, item := range items {
		label := operationLabel(item)
		if item.Decoded() {
			label = color.CyanString("%s", truncateMessage(label, 72))
		} else {
			label = color.YellowString("%s", truncateMessage(label, 60)) + " (undecoded)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			shortSHA(item.Commit.SHA),
			item.Commit.When.Format(consoleTimeLayout),
			item.Commit.Author.Name,
			item.Tag,
			label,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if report.HasMore || len(items) < len(report.Items) {
		fmt.Fprintln(out, "\nMore commits exist; raise --limit to see them.")
	}
	return nil
}

// ConsoleBranchWriter writes branch reports to the console.
type ConsoleBranchWriter struct{}

// Write outputs the branch report as a table.
func (w *ConsoleBranchWriter) Write(report *BranchReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	color.New(color.FgGreen).Fprintln(out, "Content Branches")
	fmt.Fprintf(out, "Repository: %s\n\n", report.RepoPath)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Branch\tDefault\tCommit")
	for _, b := range report.Branches {
		def := ""
		if b.Default {
			def = "*"
		}
		commit := color.RedString("missing")
		if b.Exists {
			commit = shortSHA(b.Hash.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Name, def, commit)
	}
	return tw.Flush()
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen-3] + "..."
}
