package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/charts"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var heading = color.New(color.FgCyan, color.Bold)

func okMark() string { return color.GreenString("✓") }

func warnMark() string { return color.YellowString("⚠") }

// resolveFormat picks the --format flag when set, else the configured default.
func resolveFormat(flag string) (string, error) {
	f := flag
	if f == "" && cfg != nil {
		f = cfg.OutputFormat
	}
	switch f {
	case "", "table":
		return "table", nil
	case "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use table, markdown or json)", f)
	}
}

// renderable is implemented by every report the commands print.
type renderable interface {
	Markdown() string
}

// emit renders v in the requested format and writes it to path, or to the
// command's output when path is empty.
func emit(cmd *cobra.Command, format, path string, v renderable, table func(io.Writer)) error {
	var buf bytes.Buffer
	switch format {
	case "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	case "markdown":
		buf.WriteString(v.Markdown())
	default:
		if path != "" {
			// terminal colours have no place in a file
			prev := color.NoColor
			color.NoColor = true
			defer func() { color.NoColor = prev }()
		}
		table(&buf)
	}
	if path == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s output to %s\n", okMark(), format, path)
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}

func renderReport(w io.Writer, rep *analysis.Report) {
	heading.Fprintln(w, rep.Title)
	fmt.Fprintf(w, "Rows: %d  Run ID: %s\n\n", rep.Rows, rep.RunID)

	title := rep.RankingTitle
	if len(rep.Ranking) < rep.RankingKeys {
		title = fmt.Sprintf("%s (top %d of %d)", title, len(rep.Ranking), rep.RankingKeys)
	}
	heading.Fprintln(w, title)
	t := newTable(w, "#", rep.RankingLabel, "Events")
	for i, e := range rep.Ranking {
		t.Append([]string{strconv.Itoa(i + 1), e.Key.String(), strconv.Itoa(e.Count)})
	}
	t.Render()

	fmt.Fprintln(w)
	heading.Fprintln(w, "Regressions")
	ft := newTable(w, "Relationship", "N", "Slope", "Intercept", "R-squared", "P-value")
	for _, f := range rep.Fits {
		if f.Result == nil {
			ft.Append([]string{f.Title, strconv.Itoa(len(f.Points)), "-", "-", "-", "-"})
			continue
		}
		ft.Append([]string{f.Title, strconv.Itoa(f.Result.N), f.Stats.Slope, f.Stats.Intercept, f.Stats.RSquared, f.Stats.PValue})
	}
	ft.Render()
	for _, f := range rep.Fits {
		if f.Note != "" {
			fmt.Fprintf(w, "%s %s: %s\n", warnMark(), f.Title, f.Note)
		}
		if f.Dropped > 0 {
			fmt.Fprintf(w, "%s %s: %d keys without a match were dropped\n", warnMark(), f.Title, f.Dropped)
		}
	}
}

func renderOverview(w io.Writer, o *analysis.OverviewReport) {
	heading.Fprintln(w, "Dataset Overview")
	t := newTable(w, "Metric", "Value")
	t.Append([]string{"Rows", strconv.Itoa(o.Rows)})
	t.Append([]string{"Number of States", strconv.Itoa(o.States)})
	t.Append([]string{"Number of Cities", strconv.Itoa(o.Cities)})
	t.Render()
}

func renderSummary(w io.Writer, s *analysis.Summary) {
	heading.Fprintf(w, "%s: %s\n", s.Selection.Level, s.Selection.Key().String())
	t := newTable(w, "Metric", "Value")
	t.Append([]string{"Number of Events", strconv.Itoa(s.Events)})
	t.Append([]string{"Population", s.PopulationText()})
	t.Append([]string{"Median Household Income", s.MedianIncomeText()})
	t.Append([]string{"Number of Airports", strconv.Itoa(s.Airports)})
	t.Render()
}

func renderProfile(w io.Writer, p *analysis.Profile) {
	heading.Fprintf(w, "%s (%d rows)\n", p.Name, p.Rows)
	t := newTable(w, "Column", "Kind", "Non-null", "Missing", "Unique", "Min", "Max", "Mean", "Std", "Top values")
	for _, c := range p.Columns {
		row := []string{c.Name, c.Kind, strconv.Itoa(c.NonNull), strconv.Itoa(c.Missing), strconv.Itoa(c.Unique), "", "", "", "", ""}
		switch c.Kind {
		case "numeric":
			row[5] = fmt.Sprintf("%.4g", c.Min)
			row[6] = fmt.Sprintf("%.4g", c.Max)
			row[7] = fmt.Sprintf("%.4g", c.Mean)
			row[8] = fmt.Sprintf("%.4g", c.Std)
		case "categorical":
			var top bytes.Buffer
			for i, kv := range c.TopValues {
				if i > 0 {
					top.WriteString(", ")
				}
				fmt.Fprintf(&top, "%s(%d)", kv.Value, kv.Count)
			}
			row[9] = top.String()
		}
		t.Append(row)
	}
	t.Render()
}

// writeCharts renders the report's charts into dir when dir is set.
func writeCharts(cmd *cobra.Command, dir string, rep *analysis.Report) error {
	if dir == "" {
		return nil
	}
	size := charts.Size{}
	if cfg != nil {
		size = charts.Size{Width: cfg.ChartWidth, Height: cfg.ChartHeight}
	}
	paths, err := charts.WriteReport(dir, rep, size)
	if err != nil {
		return fmt.Errorf("charts: %w", err)
	}
	logger.WithField("run_id", rep.RunID).WithField("charts", len(paths)).Debug("wrote charts")
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %d charts to %s\n", okMark(), len(paths), dir)
	return nil
}
