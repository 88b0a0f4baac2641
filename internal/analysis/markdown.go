package analysis

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Markdown renders the level report as a standalone document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Dataset != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", filepath.Base(r.Dataset)))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Run ID: %s\n\n", r.RunID))

	b.WriteString("[RANKING]\n")
	b.WriteString(r.RankingTitle)
	if len(r.Ranking) < r.RankingKeys {
		b.WriteString(fmt.Sprintf(" (top %d of %d)", len(r.Ranking), r.RankingKeys))
	}
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("| # | %s | Events |\n", r.RankingLabel))
	b.WriteString("| --- | --- | --- |\n")
	for i, e := range r.Ranking {
		b.WriteString(fmt.Sprintf("| %d | %s | %d |\n", i+1, escapeCell(e.Key.String()), e.Count))
	}

	b.WriteString("\n[REGRESSIONS]\n")
	var notes []string
	for _, f := range r.Fits {
		b.WriteString(fmt.Sprintf("- %s (n=%d", f.Title, len(f.Points)))
		if f.Dropped > 0 {
			b.WriteString(fmt.Sprintf(", %d unmatched keys dropped", f.Dropped))
		}
		b.WriteString(")\n")
		if f.Result == nil {
			b.WriteString("  • no fit\n")
			notes = append(notes, fmt.Sprintf("%s: %s", f.Title, f.Note))
			continue
		}
		b.WriteString(fmt.Sprintf("  • Slope: %s\n", f.Stats.Slope))
		b.WriteString(fmt.Sprintf("  • Intercept: %s\n", f.Stats.Intercept))
		b.WriteString(fmt.Sprintf("  • R-squared: %s\n", f.Stats.RSquared))
		b.WriteString(fmt.Sprintf("  • P-value: %s\n", f.Stats.PValue))
	}
	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders the dataset overview.
func (o *OverviewReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if o.Dataset != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", filepath.Base(o.Dataset)))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", o.Rows))
	b.WriteString(fmt.Sprintf("Number of States: %d\n", o.States))
	b.WriteString(fmt.Sprintf("Number of Cities: %d\n", o.Cities))
	return b.String()
}

// Markdown renders the metrics of one selection.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s: %s]\n", strings.ToUpper(string(s.Selection.Level)), s.Selection.Key().String()))
	b.WriteString(fmt.Sprintf("- Number of Events: %d\n", s.Events))
	b.WriteString(fmt.Sprintf("- Population: %s\n", s.PopulationText()))
	b.WriteString(fmt.Sprintf("- Median Household Income: %s\n", s.MedianIncomeText()))
	b.WriteString(fmt.Sprintf("- Number of Airports: %d\n", s.Airports))
	if len(s.Missing) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, m := range s.Missing {
			b.WriteString(fmt.Sprintf("- no %s data for %s\n", m, s.Selection.Key().String()))
		}
	}
	return b.String()
}

// Markdown renders the column profile.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d", c.Outliers))
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(p.Corr) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		lim := 10
		if len(p.Corr) < lim {
			lim = len(p.Corr)
		}
		for _, c := range p.Corr[:lim] {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", c.A, c.B, c.R))
		}
	}
	return b.String()
}

// PopulationText renders the population, or "n/a" when it is missing.
func (s *Summary) PopulationText() string {
	if !s.Has(AttrPopulation) {
		return "n/a"
	}
	return strconv.FormatInt(s.Population, 10)
}

// MedianIncomeText renders the income with a dollar sign, or "n/a" when it is missing.
func (s *Summary) MedianIncomeText() string {
	if !s.Has(AttrMedianIncome) {
		return "n/a"
	}
	return "$" + strconv.FormatInt(s.MedianIncome, 10)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
