// Package join merges per-key counts with per-key scalar attributes.
package join

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/aggregate"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	keyCol   = "key"
	countCol = "count"
	valueCol = "value"
	// keyPrefix keeps key cells clear of the frame's missing-value markers ("NA", "NaN").
	keyPrefix = "k:"
)

// MissingKeyError reports a key with no row in an attribute table.
type MissingKeyError struct {
	Attribute string
	Key       aggregate.Key
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("no attribute data for key %q (%s)", e.Key.String(), e.Attribute)
}

// AttributeTable holds one scalar per key.
type AttributeTable struct {
	Name   string
	Spec   aggregate.KeySpec
	values map[string]float64
	keys   map[string]aggregate.Key
}

// Attributes builds a table from the first record seen for every key, the same way
// a drop-duplicates-by-key keeps the first row.
func Attributes(records []dataset.EventRecord, spec aggregate.KeySpec, name string, get func(dataset.EventRecord) float64) *AttributeTable {
	t := &AttributeTable{Name: name, Spec: spec, values: map[string]float64{}, keys: map[string]aggregate.Key{}}
	for _, r := range records {
		k := spec.Of(r)
		id := k.ID()
		if _, ok := t.values[id]; ok {
			continue
		}
		t.values[id] = get(r)
		t.keys[id] = k
	}
	return t
}

// AttributesFromCounts exposes a count table as a predictor attribute.
func AttributesFromCounts(c *aggregate.CountTable, name string) *AttributeTable {
	t := &AttributeTable{Name: name, Spec: c.Spec, values: map[string]float64{}, keys: map[string]aggregate.Key{}}
	for _, e := range c.Entries() {
		id := e.Key.ID()
		t.values[id] = float64(e.Count)
		t.keys[id] = e.Key
	}
	return t
}

// Len returns the number of keys in the table.
func (t *AttributeTable) Len() int { return len(t.values) }

// Lookup returns the attribute for key or a *MissingKeyError.
func (t *AttributeTable) Lookup(k aggregate.Key) (float64, error) {
	v, ok := t.values[k.ID()]
	if !ok {
		return 0, &MissingKeyError{Attribute: t.Name, Key: k}
	}
	return v, nil
}

// Row is one observation of a regression input: X is the attribute, Y the count.
type Row struct {
	Key aggregate.Key `json:"key"`
	X   float64       `json:"x"`
	Y   float64       `json:"y"`
}

// Input is the inner join of a count table and an attribute table.
type Input struct {
	Predictor string
	Rows      []Row
	// Keys present on one side only, dropped by the join.
	DroppedCounts     int
	DroppedAttributes int
}

// XY returns the predictor and response columns.
func (in *Input) XY() (xs, ys []float64) {
	xs = make([]float64, len(in.Rows))
	ys = make([]float64, len(in.Rows))
	for i, r := range in.Rows {
		xs[i] = r.X
		ys[i] = r.Y
	}
	return xs, ys
}

// Inner joins counts with attrs on key. Keys missing from either side are dropped
// without error; the result is sorted by key.
func Inner(counts *aggregate.CountTable, attrs *AttributeTable) (*Input, error) {
	if strings.Join(counts.Spec.Names(), ",") != strings.Join(attrs.Spec.Names(), ",") {
		return nil, fmt.Errorf("join: key mismatch: counts keyed by %v, %s keyed by %v", counts.Spec.Names(), attrs.Name, attrs.Spec.Names())
	}
	in := &Input{Predictor: attrs.Name}
	entries := counts.Entries()
	if len(entries) == 0 || attrs.Len() == 0 {
		in.DroppedCounts = len(entries)
		in.DroppedAttributes = attrs.Len()
		return in, nil
	}

	left := [][]string{{keyCol, countCol}}
	for _, e := range entries {
		left = append(left, []string{keyPrefix + e.Key.ID(), strconv.Itoa(e.Count)})
	}
	right := [][]string{{keyCol, valueCol}}
	ids := make([]string, 0, len(attrs.values))
	for id := range attrs.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		right = append(right, []string{keyPrefix + id, strconv.FormatFloat(attrs.values[id], 'g', -1, 64)})
	}

	opts := []dataframe.LoadOption{dataframe.DetectTypes(false), dataframe.DefaultType(series.String), dataframe.NaNValues(nil)}
	lf := dataframe.LoadRecords(left, opts...)
	rf := dataframe.LoadRecords(right, opts...)
	joined := lf.InnerJoin(rf, keyCol)
	if joined.Err != nil {
		return nil, fmt.Errorf("join: %w", joined.Err)
	}

	keys := joined.Col(keyCol).Records()
	cnts := joined.Col(countCol).Records()
	vals := joined.Col(valueCol).Records()
	for i := range keys {
		id := strings.TrimPrefix(keys[i], keyPrefix)
		y, err := strconv.Atoi(cnts[i])
		if err != nil {
			return nil, fmt.Errorf("join: count for %q: %w", id, err)
		}
		x, err := strconv.ParseFloat(vals[i], 64)
		if err != nil {
			return nil, fmt.Errorf("join: %s for %q: %w", attrs.Name, id, err)
		}
		in.Rows = append(in.Rows, Row{Key: attrs.keys[id], X: x, Y: float64(y)})
	}
	sort.Slice(in.Rows, func(i, j int) bool { return in.Rows[i].Key.Less(in.Rows[j].Key) })
	in.DroppedCounts = len(entries) - len(in.Rows)
	in.DroppedAttributes = attrs.Len() - len(in.Rows)
	return in, nil
}
