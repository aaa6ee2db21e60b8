// Package report renders human-readable run output: the scan result table
// and the publish per-group summary.
package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/pipeline"
)

// ScanTable dumps the discovered modules in processing order.
func ScanTable(w io.Writer, records []module.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No outdated modules found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Module", "Category", "URL")
	for i, rec := range records {
		table.Append(fmt.Sprintf("%d", i+1), rec.Name, module.Normalize(rec.Suffix), rec.URL)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d outdated module(s) recorded\n", len(records))
	return nil
}

// PublishSummary dumps per-group outcome counts after a publish run.
func PublishSummary(w io.Writer, results []pipeline.GroupResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Endpoint", "Completed", "Unconfirmed", "Skipped", "Failed", "Status")
	for _, res := range results {
		status := "ok"
		if res.Aborted {
			status = "aborted: " + res.Err.Error()
		}
		table.Append(
			res.Endpoint,
			fmt.Sprintf("%d", res.Summary.Completed),
			fmt.Sprintf("%d", res.Summary.Unconfirmed),
			fmt.Sprintf("%d", res.Summary.Skipped),
			fmt.Sprintf("%d", res.Summary.Failed),
			status,
		)
	}
	return table.Render()
}
