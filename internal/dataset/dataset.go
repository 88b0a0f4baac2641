package dataset

import (
	"sort"
)

// Column names of the pre-joined events dataset.
const (
	ColEventNumber     = "Event Number"
	ColState           = "State"
	ColCity            = "City"
	ColIATA            = "IATA"
	ColPopulationState = "Population_state"
	ColPopulationCity  = "Population_city"
	ColIncomeState     = "Median Household Income_state"
	ColIncomeCity      = "Median Household Income_city"
)

// RequiredColumns lists the header fields every input must carry.
var RequiredColumns = []string{
	ColEventNumber,
	ColState,
	ColCity,
	ColIATA,
	ColPopulationState,
	ColPopulationCity,
	ColIncomeState,
	ColIncomeCity,
}

// EventRecord is one (event, venue city, airport) observation. Several records may
// share an EventNumber, one per airport linked to the venue city.
type EventRecord struct {
	EventNumber     string
	City            string
	State           string
	IATA            string // empty when the city has no airport
	PopulationCity  int64
	PopulationState int64
	IncomeCity      int64
	IncomeState     int64
}

// Dataset is the in-memory copy of one input file.
type Dataset struct {
	Path    string
	Records []EventRecord
}

// Rows returns the number of data rows loaded.
func (d *Dataset) Rows() int { return len(d.Records) }

// States returns the distinct states in ascending order.
func (d *Dataset) States() []string {
	seen := make(map[string]struct{})
	for _, r := range d.Records {
		seen[r.State] = struct{}{}
	}
	return sortedKeys(seen)
}

// Cities returns the distinct cities of one state in ascending order.
func (d *Dataset) Cities(state string) []string {
	seen := make(map[string]struct{})
	for _, r := range d.Records {
		if r.State == state {
			seen[r.City] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// UniqueStates counts distinct states.
func (d *Dataset) UniqueStates() int { return len(d.States()) }

// UniqueCities counts distinct cities within each state and sums them, so a city
// name shared by two states counts twice.
func (d *Dataset) UniqueCities() int {
	perState := make(map[string]map[string]struct{})
	for _, r := range d.Records {
		m := perState[r.State]
		if m == nil {
			m = make(map[string]struct{})
			perState[r.State] = m
		}
		m[r.City] = struct{}{}
	}
	total := 0
	for _, m := range perState {
		total += len(m)
	}
	return total
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
