package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/content-gateway/internal/output"
)

func writeHistoryReport(c *cli.Context, report *output.HistoryReport) error {
	opts := OutputOptions(c)
	writer := output.NewHistoryReportWriter(opts.Format)
	return writer.Write(report, opts)
}

func writeBranchReport(c *cli.Context, report *output.BranchReport) error {
	opts := OutputOptions(c)
	writer := output.NewBranchReportWriter(opts.Format)
	return writer.Write(report, opts)
}
