package analysis

import (
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ProfileOptions controls the column profile.
type ProfileOptions struct {
	// TopValues is the number of most frequent values listed for categorical columns.
	TopValues int
	// OutlierThreshold is the robust |z| above which a numeric value is an outlier.
	OutlierThreshold float64
}

// DefaultProfileOptions returns the settings used by the describe command.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{TopValues: 5, OutlierThreshold: 3.5}
}

// Profile summarizes every column of an input file.
type Profile struct {
	Name    string          `json:"name"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
	Corr    []PairCorr      `json:"correlations,omitempty"`
}

// ColumnProfile captures inferred kind and statistics per column.
type ColumnProfile struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|categorical|empty
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Mean     float64 `json:"mean,omitempty"`
	Std      float64 `json:"std,omitempty"`
	Outliers int     `json:"outliers,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PairCorr is a Pearson correlation between two numeric columns.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// ProfileFrame profiles a frame of text columns. A column is numeric when every
// non-empty value parses as a number once currency symbols and thousands
// separators are removed.
func ProfileFrame(path string, df dataframe.DataFrame, opt ProfileOptions) *Profile {
	p := &Profile{Name: filepath.Base(path), Rows: df.Nrow()}
	numeric := map[string][]float64{}
	var numCols []string
	for _, name := range df.Names() {
		vals := df.Col(name).Records()
		cp, nums := profileColumn(name, vals, opt)
		if cp.Kind == "numeric" {
			numeric[name] = nums
			numCols = append(numCols, name)
		}
		p.Columns = append(p.Columns, cp)
	}
	for i := 0; i < len(numCols); i++ {
		for j := i + 1; j < len(numCols); j++ {
			if r, ok := pearson(numeric[numCols[i]], numeric[numCols[j]]); ok {
				p.Corr = append(p.Corr, PairCorr{A: numCols[i], B: numCols[j], R: r})
			}
		}
	}
	sort.SliceStable(p.Corr, func(i, j int) bool { return math.Abs(p.Corr[i].R) > math.Abs(p.Corr[j].R) })
	return p
}

// profileColumn returns the column summary and, for numeric columns, the parsed
// values aligned with the input rows (NaN where missing).
func profileColumn(name string, vals []string, opt ProfileOptions) (ColumnProfile, []float64) {
	cp := ColumnProfile{Name: name}
	cats := map[string]int{}
	nums := make([]float64, len(vals))
	allNumeric := true

	present := make([]float64, 0, len(vals))
	for i, raw := range vals {
		v := strings.TrimSpace(raw)
		if v == "" || v == "NaN" {
			cp.Missing++
			nums[i] = math.NaN()
			continue
		}
		cp.NonNull++
		cats[v]++
		x, ok := parseNumber(v)
		if !ok {
			allNumeric = false
			continue
		}
		nums[i] = x
		present = append(present, x)
	}
	cp.Unique = len(cats)

	switch {
	case cp.NonNull == 0:
		cp.Kind = "empty"
		return cp, nil
	case allNumeric:
		cp.Kind = "numeric"
		cp.Min, cp.Max = floats.Min(present), floats.Max(present)
		if len(present) > 1 {
			cp.Mean, cp.Std = stat.MeanStdDev(present, nil)
		} else {
			cp.Mean = present[0]
		}
		cp.Outliers = countOutliers(nums, opt.OutlierThreshold)
		return cp, nums
	default:
		cp.Kind = "categorical"
		tops := make([]CategoryCount, 0, len(cats))
		for k, c := range cats {
			tops = append(tops, CategoryCount{Value: k, Count: c})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		limit := opt.TopValues
		if limit <= 0 {
			limit = 5
		}
		if len(tops) > limit {
			tops = tops[:limit]
		}
		cp.TopValues = tops
		return cp, nil
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// countOutliers counts values whose robust Z-score (via MAD) exceeds thr.
func countOutliers(vals []float64, thr float64) int {
	if thr <= 0 {
		thr = 3.5
	}
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 8 {
		return 0
	}
	median, mad := medianMAD(clean)
	if mad == 0 {
		return 0
	}
	cnt := 0
	for _, v := range clean {
		if math.Abs(0.6745*(v-median)/mad) > thr {
			cnt++
		}
	}
	return cnt
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.Empirical, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, stat.Quantile(0.5, stat.Empirical, dev, nil)
}

// pearson correlates two aligned columns over rows where both are present.
func pearson(a, b []float64) (float64, bool) {
	var xs, ys []float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}
