// Package charts renders report rankings and regression panels as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/aggregate"
	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Size is the image size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = 1024
	}
	if s.Height <= 0 {
		s.Height = 768
	}
	return s
}

// lightcoral is used for bars, points and trendlines alike.
var lightcoral = drawing.ColorFromHex("f08080")

// pointStyle renders points only, without connecting lines.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

// barValues converts a ranking into bars, in ranking order, and returns the
// largest count.
func barValues(ranking []aggregate.Entry) ([]chart.Value, float64) {
	bars := make([]chart.Value, 0, len(ranking))
	maxV := 0.0
	for _, e := range ranking {
		v := float64(e.Count)
		maxV = math.Max(maxV, v)
		bars = append(bars, chart.Value{
			Label: e.Key.String(),
			Value: v,
			Style: chart.Style{FillColor: lightcoral, StrokeColor: lightcoral},
		})
	}
	return bars, maxV
}

// Bar renders a ranking as a bar chart.
func Bar(w io.Writer, title string, ranking []aggregate.Entry, size Size) error {
	if len(ranking) == 0 {
		return errors.New("bar chart: nothing to plot")
	}
	size = size.orDefault()
	bars, maxV := barValues(ranking)
	barWidth := size.Width / (len(bars) * 2)
	if barWidth < 4 {
		barWidth = 4
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 60}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		// counts start at zero; a fixed range also keeps equal bars renderable
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(maxV*1.1) + 1}},
		Bars:  bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// fitSeries builds the point series of a fit, plus its trendline when the fit
// has a result, and the padded axis ranges covering both.
func fitSeries(fit analysis.FitReport) (series []chart.Series, xr, yr *chart.ContinuousRange) {
	xs := make([]float64, len(fit.Points))
	ys := make([]float64, len(fit.Points))
	for i, p := range fit.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	minX, maxX := bounds(xs)
	minY, maxY := bounds(ys)

	series = []chart.Series{
		chart.ContinuousSeries{Name: fit.YLabel, XValues: xs, YValues: ys, Style: pointStyle(lightcoral)},
	}
	if fit.Result != nil {
		y0, y1 := fit.Result.Predict(minX), fit.Result.Predict(maxX)
		series = append(series, chart.ContinuousSeries{
			Name:    "Trendline",
			XValues: []float64{minX, maxX},
			YValues: []float64{y0, y1},
			Style:   chart.Style{StrokeColor: lightcoral, StrokeWidth: 2},
		})
		minY = math.Min(minY, math.Min(y0, y1))
		maxY = math.Max(maxY, math.Max(y0, y1))
	}
	return series, padded(minX, maxX), padded(minY, maxY)
}

// Scatter renders the points of a fit with its trendline. Fits without a result
// are drawn as points only.
func Scatter(w io.Writer, fit analysis.FitReport, size Size) error {
	if len(fit.Points) == 0 {
		return fmt.Errorf("scatter %q: nothing to plot", fit.Title)
	}
	size = size.orDefault()
	series, xr, yr := fitSeries(fit)
	ch := chart.Chart{
		Title:      fit.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: fit.XLabel, Range: xr},
		YAxis:      chart.YAxis{Name: fit.YLabel, Range: yr},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scatter %q: %w", fit.Title, err)
	}
	return nil
}

// WriteReport renders the ranking and every fit of rep into dir and returns the
// written paths.
func WriteReport(dir string, rep *analysis.Report, size Size) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	var paths []string
	write := func(name string, render func(io.Writer) error) error {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
		if err := render(f); err != nil {
			f.Close()
			_ = os.Remove(p)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", p, err)
		}
		paths = append(paths, p)
		return nil
	}

	if len(rep.Ranking) > 0 {
		err := write(Slug(rep.RankingTitle)+".png", func(w io.Writer) error {
			return Bar(w, rep.RankingTitle, rep.Ranking, size)
		})
		if err != nil {
			return paths, err
		}
	}
	for _, fit := range rep.Fits {
		if len(fit.Points) == 0 {
			continue
		}
		fit := fit
		if err := write(Slug(fit.Title)+".png", func(w io.Writer) error { return Scatter(w, fit, size) }); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a chart title into a file name stem.
func Slug(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// padded widens [lo, hi] by 5% on each side; a zero-width range is widened by
// one unit so the axis stays drawable.
func padded(lo, hi float64) *chart.ContinuousRange {
	d := hi - lo
	if d == 0 {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return &chart.ContinuousRange{Min: lo - d*0.05, Max: hi + d*0.05}
}
