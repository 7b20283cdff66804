// Package format renders analysis results for terminal or machine
// consumption.
package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"zhc/internal/analyze"
)

// MaxCellWidth bounds command text in ranking table cells.
const MaxCellWidth = 40

const dateLayout = "2006-01-02"

// Options controls how an analysis is rendered.
type Options struct {
	// Format selects the output: "table" (default) or "json".
	Format string

	// Color enables ANSI styling in the table output.
	Color bool

	// MaxWidth clamps table rows to the terminal width when positive.
	MaxWidth int
}

// WriteAnalysis writes the analysis to w in the requested format. Color and
// width only apply to the table format.
func WriteAnalysis(w io.Writer, a analyze.Analysis, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", "table":
		writeAnalysisTable(w, a, opts)
		return nil
	case "json":
		return writeAnalysisJSON(w, a)
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

type analysisPayload struct {
	Filename       string            `json:"filename"`
	Size           int               `json:"size"`
	FirstDate      string            `json:"first_date"`
	LastDate       string            `json:"last_date"`
	SpanDays       int               `json:"span_days"`
	DuplicateCount int               `json:"duplicate_count"`
	TopCommands    []analyze.Ranking `json:"top_commands"`
	TopExecutables []analyze.Ranking `json:"top_executables"`
}

func writeAnalysisJSON(w io.Writer, a analyze.Analysis) error {
	payload := analysisPayload{
		Filename:       a.Filename,
		Size:           a.Size,
		FirstDate:      a.FirstDate.Format(dateLayout),
		LastDate:       a.LastDate.Format(dateLayout),
		SpanDays:       spanDays(a),
		DuplicateCount: a.DuplicateCount,
		TopCommands:    a.TopCommands,
		TopExecutables: a.TopExecutables,
	}

	out, err := sonic.ConfigDefault.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func writeAnalysisTable(w io.Writer, a analyze.Analysis, opts Options) {
	cyan := styler(opts.Color, text.FgCyan)
	green := styler(opts.Color, text.FgGreen)
	yellow := styler(opts.Color, text.FgYellow)
	magenta := styler(opts.Color, text.FgMagenta, text.Bold)
	dim := styler(opts.Color, text.Faint)

	duplicatePct := "(0.00%)"
	if a.Size > 0 {
		duplicatePct = fmt.Sprintf("(%.2f%%)", float64(a.DuplicateCount)/float64(a.Size)*100)
	}

	head := table.NewWriter()
	head.SetOutputMirror(w)
	head.SetStyle(table.StyleRounded)
	if opts.MaxWidth > 0 {
		head.SetAllowedRowLength(opts.MaxWidth)
	}
	head.AppendRow(table.Row{"History", cyan(a.Filename)})
	head.AppendRow(table.Row{"Date range", fmt.Sprintf("%s → %s %s",
		green(a.FirstDate.Format(dateLayout)),
		green(a.LastDate.Format(dateLayout)),
		dim(fmt.Sprintf("(%d days)", spanDays(a))))})
	head.AppendRow(table.Row{"Total commands", yellow(strconv.Itoa(a.Size))})
	head.AppendRow(table.Row{"Duplicate commands", fmt.Sprintf("%s %s",
		yellow(strconv.Itoa(a.DuplicateCount)), dim(duplicatePct))})
	head.Render()

	fmt.Fprintln(w, magenta(fmt.Sprintf("Top %d most used:", a.TopN)))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	if opts.MaxWidth > 0 {
		tw.SetAllowedRowLength(opts.MaxWidth)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
	})
	tw.AppendHeader(table.Row{"", "Commands", "Executables"})

	// The command and executable rankings may have different lengths.
	rows := len(a.TopCommands)
	if len(a.TopExecutables) > rows {
		rows = len(a.TopExecutables)
	}
	for i := 0; i < rows; i++ {
		tw.AppendRow(table.Row{
			rankIcon(i + 1),
			rankCell(a.TopCommands, i, dim),
			rankCell(a.TopExecutables, i, dim),
		})
	}
	if rows == 0 {
		tw.AppendRow(table.Row{"-", "(no commands)", "-"})
	}
	tw.Render()
}

// spanDays counts calendar days between the range ends. Both dates are
// re-anchored in UTC first: subtracting local midnights directly comes up an
// hour short across a spring DST transition and truncates to the wrong day.
func spanDays(a analyze.Analysis) int {
	fy, fm, fd := a.FirstDate.Date()
	ly, lm, ld := a.LastDate.Date()
	first := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	last := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return int(last.Sub(first).Hours() / 24)
}

// styler returns a function applying colors when enabled and the identity
// otherwise.
func styler(enabled bool, colors ...text.Color) func(string) string {
	if !enabled {
		return func(s string) string { return s }
	}
	c := text.Colors(colors)
	return func(s string) string { return c.Sprint(s) }
}

func rankCell(rankings []analyze.Ranking, i int, dim func(string) string) string {
	if i >= len(rankings) {
		return ""
	}
	r := rankings[i]
	return truncateCount(escapeNewlines(r.Text), MaxCellWidth, r.Count, dim)
}

// truncateCount shortens s to maxWidth display cells and appends the
// occurrence count.
func truncateCount(s string, maxWidth, count int, dim func(string) string) string {
	if runewidth.StringWidth(s) > maxWidth {
		s = runewidth.Truncate(s, maxWidth, "...")
	}
	return s + " " + dim(fmt.Sprintf("(%d times)", count))
}

// rankIcon renders medals for the podium and plain numbers below it.
func rankIcon(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return strconv.Itoa(rank)
	}
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}
