// Package aggregate counts distinct entities per grouping key.
package aggregate

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
)

// Field extracts one string attribute from a record.
type Field struct {
	Name string
	Get  func(dataset.EventRecord) string
}

var (
	EventNumber = Field{Name: dataset.ColEventNumber, Get: func(r dataset.EventRecord) string { return r.EventNumber }}
	State       = Field{Name: dataset.ColState, Get: func(r dataset.EventRecord) string { return r.State }}
	City        = Field{Name: dataset.ColCity, Get: func(r dataset.EventRecord) string { return r.City }}
	IATA        = Field{Name: dataset.ColIATA, Get: func(r dataset.EventRecord) string { return r.IATA }}
)

// KeySpec is an ordered list of grouping fields.
type KeySpec []Field

var (
	ByState     = KeySpec{State}
	ByCityState = KeySpec{City, State}
	ByCity      = KeySpec{City}
)

// Names returns the column names of the key fields.
func (ks KeySpec) Names() []string {
	out := make([]string, len(ks))
	for i, f := range ks {
		out[i] = f.Name
	}
	return out
}

// Of returns the key of a record.
func (ks KeySpec) Of(r dataset.EventRecord) Key {
	k := make(Key, len(ks))
	for i, f := range ks {
		k[i] = f.Get(r)
	}
	return k
}

// Key holds the values of a KeySpec for one group, in KeySpec order.
type Key []string

// String renders the key for display, e.g. "Austin, TX".
func (k Key) String() string { return strings.Join(k, ", ") }

// ID is an unambiguous identity for the key; the unit separator does not occur in
// the text fields of the dataset.
func (k Key) ID() string { return strings.Join(k, "\x1f") }

// Less orders keys field by field.
func (k Key) Less(o Key) bool {
	for i := 0; i < len(k) && i < len(o); i++ {
		if k[i] != o[i] {
			return k[i] < o[i]
		}
	}
	return len(k) < len(o)
}

// Entry is one group of a CountTable.
type Entry struct {
	Key   Key `json:"key"`
	Count int `json:"count"`
}

// CountTable maps keys to distinct-identifier counts. Keys with no identifiers are
// absent; Get reports them as zero.
type CountTable struct {
	Spec   KeySpec
	Ident  Field
	counts map[string]int
	keys   map[string]Key
	order  []string
}

// CountDistinct removes rows that repeat an (identifier, key) pair, groups what is
// left by key and counts rows per group. Rows with an empty identifier are skipped.
func CountDistinct(records []dataset.EventRecord, ident Field, spec KeySpec) *CountTable {
	t := &CountTable{
		Spec:   spec,
		Ident:  ident,
		counts: make(map[string]int),
		keys:   make(map[string]Key),
	}
	seen := make(map[string]struct{})
	for _, r := range records {
		idv := ident.Get(r)
		if idv == "" {
			continue
		}
		k := spec.Of(r)
		kid := k.ID()
		pair := idv + "\x1e" + kid
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		if _, ok := t.keys[kid]; !ok {
			t.keys[kid] = k
			t.order = append(t.order, kid)
		}
		t.counts[kid]++
	}
	return t
}

// Get returns the count for key, or 0 when the key has no identifiers.
func (t *CountTable) Get(k Key) int { return t.counts[k.ID()] }

// Len returns the number of keys with a non-zero count.
func (t *CountTable) Len() int { return len(t.counts) }

// Entries returns all groups ordered by key.
func (t *CountTable) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, kid := range t.order {
		out = append(out, Entry{Key: t.keys[kid], Count: t.counts[kid]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// Ranked returns all groups sorted by count descending, ties by key ascending.
func (t *CountTable) Ranked() []Entry {
	out := t.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Total sums counts over all keys.
func (t *CountTable) Total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}
