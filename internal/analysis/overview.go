package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/aggregate"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/KaramelBytes/gigstats-cli/internal/join"
	"github.com/google/uuid"
)

// Level selects the granularity of a search.
type Level string

const (
	LevelState Level = "state"
	LevelCity  Level = "city"
)

// ParseLevel accepts "state" or "city" in any case.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelState:
		return LevelState, nil
	case LevelCity:
		return LevelCity, nil
	default:
		return "", fmt.Errorf("unsupported level: %s (use state or city)", s)
	}
}

// OverviewReport describes the coverage of the dataset.
type OverviewReport struct {
	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Rows    int    `json:"rows"`
	States  int    `json:"states"`
	Cities  int    `json:"cities"`
}

// Overview counts the states and cities covered by the dataset.
func Overview(ds *dataset.Dataset) *OverviewReport {
	return &OverviewReport{
		RunID:   uuid.NewString(),
		Dataset: ds.Path,
		Rows:    ds.Rows(),
		States:  ds.UniqueStates(),
		Cities:  ds.UniqueCities(),
	}
}

// Selection is a user's choice of one state, or one city within a state.
type Selection struct {
	Level Level  `json:"level"`
	State string `json:"state"`
	City  string `json:"city,omitempty"`
}

// Key returns the lookup key of the selection.
func (s Selection) Key() aggregate.Key {
	if s.Level == LevelCity {
		return aggregate.Key{s.City, s.State}
	}
	return aggregate.Key{s.State}
}

func (s Selection) spec() aggregate.KeySpec {
	if s.Level == LevelCity {
		return aggregate.ByCityState
	}
	return aggregate.ByState
}

// Summary holds the metrics shown for one selection.
type Summary struct {
	Selection    Selection `json:"selection"`
	Events       int       `json:"events"`
	Population   int64     `json:"population"`
	MedianIncome int64     `json:"median_household_income"`
	Airports     int       `json:"airports"`
	// Missing names the attributes with no row for the selection; their fields are zero.
	Missing []string `json:"missing,omitempty"`
}

// Has reports whether the attribute was found for the selection.
func (s *Summary) Has(attribute string) bool {
	for _, m := range s.Missing {
		if m == attribute {
			return false
		}
	}
	return true
}

// Attribute names used by Lookup.
const (
	AttrPopulation   = "population"
	AttrMedianIncome = "median household income"
)

// Lookup computes the metrics of one state or city. Event and airport counts
// default to zero for unknown keys. When population or income has no row for the
// key, the summary is still returned, with those attributes listed in Missing,
// together with the *join.MissingKeyError values.
func Lookup(ds *dataset.Dataset, sel Selection) (*Summary, error) {
	if sel.Level != LevelState && sel.Level != LevelCity {
		return nil, fmt.Errorf("unsupported level: %s", sel.Level)
	}
	if sel.State == "" {
		return nil, fmt.Errorf("a state is required")
	}
	if sel.Level == LevelCity && sel.City == "" {
		return nil, fmt.Errorf("a city is required at city level")
	}
	if sel.Level == LevelState && sel.City != "" {
		return nil, fmt.Errorf("a city was given at state level (use level city)")
	}
	spec := sel.spec()
	key := sel.Key()

	sum := &Summary{Selection: sel}
	sum.Events = aggregate.CountDistinct(ds.Records, aggregate.EventNumber, spec).Get(key)
	sum.Airports = aggregate.CountDistinct(ds.Records, aggregate.IATA, spec).Get(key)

	popOf := func(r dataset.EventRecord) float64 { return float64(r.PopulationState) }
	incOf := func(r dataset.EventRecord) float64 { return float64(r.IncomeState) }
	if sel.Level == LevelCity {
		popOf = func(r dataset.EventRecord) float64 { return float64(r.PopulationCity) }
		incOf = func(r dataset.EventRecord) float64 { return float64(r.IncomeCity) }
	}
	var errs []error
	if pop, err := join.Attributes(ds.Records, spec, AttrPopulation, popOf).Lookup(key); err != nil {
		sum.Missing = append(sum.Missing, AttrPopulation)
		errs = append(errs, err)
	} else {
		sum.Population = int64(pop)
	}
	if inc, err := join.Attributes(ds.Records, spec, AttrMedianIncome, incOf).Lookup(key); err != nil {
		sum.Missing = append(sum.Missing, AttrMedianIncome)
		errs = append(errs, err)
	} else {
		sum.MedianIncome = int64(inc)
	}
	return sum, errors.Join(errs...)
}
