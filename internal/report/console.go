// Package report renders run results: colored console summaries, CSV
// exports of raw counts and pivoted trends, and a YAML run manifest.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/gitloc/internal/run"
	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

// maxTrendRows caps how many buckets the console trend table shows; full
// series always go to CSV.
const maxTrendRows = 24

// durationRound keeps the printed run duration readable.
const durationRound = 10 * time.Millisecond

// Printer writes human-readable run output.
type Printer struct {
	Out io.Writer

	// Quiet suppresses everything except errors and warnings.
	Quiet bool

	// NoColor disables ANSI colors.
	NoColor bool
}

// PrintSummary renders the per-repository summary table followed by any
// warnings and errors.
func (p *Printer) PrintSummary(report *run.Report) {
	if !p.Quiet {
		p.header(fmt.Sprintf("Analyzed %d repositories (%s interval) in %s",
			len(report.Results),
			report.Interval,
			report.FinishedAt.Sub(report.StartedAt).Round(durationRound),
		))

		tw := p.newTable()
		tw.AppendHeader(table.Row{"Repository", "Branch", "Commits", "Cache hits", "Cache misses", "Total LOC"})

		for _, result := range report.Results {
			tw.AppendRow(table.Row{
				result.Spec.ID,
				result.Spec.Branch,
				len(result.Snapshots),
				result.CacheHits,
				result.CacheMisses,
				humanize.Comma(int64(finalTotal(result.Languages))),
			})
		}

		tw.Render()
	}

	p.printProblems(report)
}

// PrintTrend renders a pivoted trend table, newest buckets last. Empty
// tables print nothing.
func (p *Printer) PrintTrend(title string, tbl *trend.Table) {
	if p.Quiet || tbl.IsEmpty() {
		return
	}

	p.header(title)

	names := tbl.SeriesNames()

	tw := p.newTable()

	header := table.Row{"Date"}
	for _, name := range names {
		header = append(header, name)
	}

	tw.AppendHeader(header)

	start := 0
	if len(tbl.Buckets) > maxTrendRows {
		start = len(tbl.Buckets) - maxTrendRows

		fmt.Fprintf(p.Out, "(showing last %d of %d buckets)\n", maxTrendRows, len(tbl.Buckets))
	}

	for i := start; i < len(tbl.Buckets); i++ {
		row := table.Row{tbl.Interval.Label(tbl.Buckets[i])}
		for _, name := range names {
			row = append(row, humanize.Comma(int64(tbl.Value(name, i))))
		}

		tw.AppendRow(row)
	}

	tw.Render()
}

func (p *Printer) printProblems(report *run.Report) {
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	if p.NoColor {
		warn.DisableColor()
		fail.DisableColor()
	}

	for _, result := range report.Results {
		if result.Empty {
			warn.Fprintf(p.Out, "warning: %s: no commits matched the selection\n", result.Spec.ID)
		}

		for _, err := range result.CommitErrors {
			warn.Fprintf(p.Out, "warning: %s: %v\n", result.Spec.ID, err)
		}
	}

	for _, err := range report.RepoErrors {
		fail.Fprintf(p.Out, "error: %v\n", err)
	}
}

func (p *Printer) header(text string) {
	heading := color.New(color.FgCyan, color.Bold)
	if p.NoColor {
		heading.DisableColor()
	}

	heading.Fprintf(p.Out, "\n%s\n", text)
}

func (p *Printer) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.Out)
	tw.SetStyle(table.StyleLight)

	return tw
}

// finalTotal is the most recent bucket's total, zero for empty tables.
func finalTotal(tbl *trend.Table) int {
	if tbl.IsEmpty() {
		return 0
	}

	return tbl.RowTotal(len(tbl.Buckets) - 1)
}
