package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/KaramelBytes/gigstats-cli/internal/join"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func rec(ev, city, state, iata string, popCity, popState, incCity, incState int64) dataset.EventRecord {
	return dataset.EventRecord{
		EventNumber:     ev,
		City:            city,
		State:           state,
		IATA:            iata,
		PopulationCity:  popCity,
		PopulationState: popState,
		IncomeCity:      incCity,
		IncomeState:     incState,
	}
}

// Events per state: TX=3, NY=2, CA=1. Austin exists in TX and CA.
func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Path: "/data/final_data.csv",
		Records: []dataset.EventRecord{
			rec("1", "Austin", "TX", "AUS", 10, 100, 5, 50),
			rec("1", "Austin", "TX", "AUS", 10, 100, 5, 50),
			rec("2", "Austin", "TX", "AUS", 10, 100, 5, 50),
			rec("3", "Dallas", "TX", "DAL", 20, 100, 6, 50),
			rec("4", "Austin", "CA", "", 30, 200, 7, 60),
			rec("5", "NYC", "NY", "JFK", 40, 300, 8, 70),
			rec("5", "NYC", "NY", "LGA", 40, 300, 8, 70),
			rec("6", "NYC", "NY", "JFK", 40, 300, 8, 70),
		},
	}
}

func TestStates(t *testing.T) {
	rep, err := States(sampleDataset(), DefaultOptions())
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if rep.RunID == "" {
		t.Fatalf("missing run id")
	}
	var got []string
	for _, e := range rep.Ranking {
		got = append(got, e.Key.String())
	}
	if strings.Join(got, "|") != "TX|NY|CA" {
		t.Fatalf("ranking = %v", got)
	}
	if rep.Ranking[0].Count != 3 || rep.Ranking[2].Count != 1 {
		t.Fatalf("counts = %+v", rep.Ranking)
	}
	if len(rep.Fits) != 3 {
		t.Fatalf("fits = %d, want 3", len(rep.Fits))
	}

	pop := rep.Fits[0]
	if pop.Result == nil || len(pop.Points) != 3 {
		t.Fatalf("population fit = %+v", pop)
	}
	// the population slope keeps the p-value precision
	if pop.Stats.Slope != "-0.0050000000" || pop.Stats.Intercept != "3.000" {
		t.Fatalf("population stats = %+v", pop.Stats)
	}

	inc := rep.Fits[1]
	if inc.Stats.Slope != "-0.050" || inc.Stats.Intercept != "5.000" {
		t.Fatalf("income stats = %+v", inc.Stats)
	}

	// CA has no airports; TX and NY both have two, leaving one distinct x
	air := rep.Fits[2]
	if air.Result != nil || air.Note == "" {
		t.Fatalf("airport fit should be degenerate: %+v", air)
	}
	if air.Dropped != 1 || len(air.Points) != 2 {
		t.Fatalf("airport points=%d dropped=%d", len(air.Points), air.Dropped)
	}
}

func TestCitiesRankingByCityState(t *testing.T) {
	rep, err := Cities(sampleDataset(), DefaultOptions())
	if err != nil {
		t.Fatalf("Cities: %v", err)
	}
	var got []string
	for _, e := range rep.Ranking {
		got = append(got, e.Key.String())
	}
	want := "Austin, TX|NYC, NY|Austin, CA|Dallas, TX"
	if strings.Join(got, "|") != want {
		t.Fatalf("ranking = %q, want %q", strings.Join(got, "|"), want)
	}
	if n := len(rep.Fits[0].Points); n != 4 {
		t.Fatalf("city_state population points = %d, want 4", n)
	}
}

func TestCitiesKeyedByName(t *testing.T) {
	opt := DefaultOptions()
	opt.CityKey = "city"
	rep, err := Cities(sampleDataset(), opt)
	if err != nil {
		t.Fatalf("Cities: %v", err)
	}
	// ranking stays keyed by (City, State)
	if rep.RankingKeys != 4 {
		t.Fatalf("ranking keys = %d, want 4", rep.RankingKeys)
	}
	pop := rep.Fits[0]
	if len(pop.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(pop.Points))
	}
	// Austin merges TX and CA: 3 events, population from its first row
	for _, p := range pop.Points {
		if p.Key.String() == "Austin" {
			if p.Y != 3 || p.X != 10 {
				t.Fatalf("Austin point = %+v", p)
			}
			return
		}
	}
	t.Fatalf("Austin missing from %+v", pop.Points)
}

func TestCitiesRejectsUnknownKey(t *testing.T) {
	opt := DefaultOptions()
	opt.CityKey = "county"
	if _, err := Cities(sampleDataset(), opt); err == nil {
		t.Fatalf("expected error for unknown city key")
	}
}

func TestTopNAndMarkdown(t *testing.T) {
	opt := DefaultOptions()
	opt.TopN = 2
	rep, err := Cities(sampleDataset(), opt)
	if err != nil {
		t.Fatalf("Cities: %v", err)
	}
	if len(rep.Ranking) != 2 || rep.RankingKeys != 4 {
		t.Fatalf("ranking len=%d keys=%d", len(rep.Ranking), rep.RankingKeys)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: final_data.csv",
		"Run ID: " + rep.RunID,
		"[RANKING]",
		"(top 2 of 4)",
		"| 1 | Austin, TX | 2 |",
		"[REGRESSIONS]",
		"Relationship between City Population and Number of Music Events",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownNotesDegenerateFit(t *testing.T) {
	rep, err := States(sampleDataset(), DefaultOptions())
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	md := rep.Markdown()
	if !strings.Contains(md, "[NOTES]") || !strings.Contains(md, "no fit") {
		t.Fatalf("expected degenerate note:\n%s", md)
	}
}

func TestOverview(t *testing.T) {
	o := Overview(sampleDataset())
	if o.States != 3 || o.Cities != 4 || o.Rows != 8 {
		t.Fatalf("overview = %+v", o)
	}
	if !strings.Contains(o.Markdown(), "Number of Cities: 4") {
		t.Fatalf("markdown = %s", o.Markdown())
	}
}

func TestLookupState(t *testing.T) {
	s, err := Lookup(sampleDataset(), Selection{Level: LevelState, State: "TX"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if s.Events != 3 || s.Airports != 2 || s.Population != 100 || s.MedianIncome != 50 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestLookupCity(t *testing.T) {
	s, err := Lookup(sampleDataset(), Selection{Level: LevelCity, State: "CA", City: "Austin"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if s.Events != 1 || s.Airports != 0 || s.Population != 30 || s.MedianIncome != 7 {
		t.Fatalf("summary = %+v", s)
	}
	if !strings.Contains(s.Markdown(), "[CITY: Austin, CA]") {
		t.Fatalf("markdown = %s", s.Markdown())
	}
}

func TestLookupAbsentStateDefaultsToZero(t *testing.T) {
	s, err := Lookup(sampleDataset(), Selection{Level: LevelState, State: "ZZ"})
	var mk *join.MissingKeyError
	if !errors.As(err, &mk) {
		t.Fatalf("err = %v, want MissingKeyError", err)
	}
	if s == nil {
		t.Fatalf("expected a summary alongside the missing-key error")
	}
	if s.Events != 0 || s.Airports != 0 || s.Population != 0 || s.MedianIncome != 0 {
		t.Fatalf("summary = %+v, want zero counts", s)
	}
	if len(s.Missing) != 2 || s.Has(AttrPopulation) || s.Has(AttrMedianIncome) {
		t.Fatalf("missing = %v", s.Missing)
	}
	md := s.Markdown()
	for _, want := range []string{"- Number of Events: 0", "- Population: n/a", "- no population data for ZZ"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestLookupErrors(t *testing.T) {
	ds := sampleDataset()
	if s, err := Lookup(ds, Selection{Level: LevelState, State: "TX"}); err != nil || len(s.Missing) != 0 {
		t.Fatalf("Lookup(TX) = %+v, %v", s, err)
	}
	if _, err := Lookup(ds, Selection{Level: LevelState, State: "TX", City: "Austin"}); err == nil {
		t.Fatalf("expected error for a city at state level")
	}
	if _, err := Lookup(ds, Selection{Level: "county", State: "TX"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := Lookup(ds, Selection{Level: LevelCity, State: "TX"}); err == nil {
		t.Fatalf("expected missing city error")
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel(" City "); err != nil || l != LevelCity {
		t.Fatalf("ParseLevel = %q, %v", l, err)
	}
	if _, err := ParseLevel("county"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProfileFrame(t *testing.T) {
	records := [][]string{
		{"State", "Income", "Double", "Blank"},
		{"TX", "$10", "20", ""},
		{"TX", "$11", "22", ""},
		{"CA", "$10", "20", ""},
		{"NY", "$12", "24", ""},
		{"TX", "$11", "22", ""},
		{"CA", "$10", "20", ""},
		{"NY", "$11", "22", ""},
		{"TX", "$1,000", "2000", ""},
	}
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	p := ProfileFrame("/tmp/events.csv", df, DefaultProfileOptions())
	if p.Name != "events.csv" || p.Rows != 8 || len(p.Columns) != 4 {
		t.Fatalf("profile = %+v", p)
	}
	state, income, blank := p.Columns[0], p.Columns[1], p.Columns[3]
	if state.Kind != "categorical" || state.TopValues[0].Value != "TX" || state.TopValues[0].Count != 4 {
		t.Fatalf("state = %+v", state)
	}
	if income.Kind != "numeric" || income.Max != 1000 || income.Outliers != 1 {
		t.Fatalf("income = %+v", income)
	}
	if blank.Kind != "empty" || blank.Missing != 8 {
		t.Fatalf("blank = %+v", blank)
	}
	if len(p.Corr) != 1 || p.Corr[0].R < 0.999 {
		t.Fatalf("corr = %+v", p.Corr)
	}
	if !strings.Contains(p.Markdown(), "[CORRELATIONS]") {
		t.Fatalf("markdown = %s", p.Markdown())
	}
}

func TestProfileColumnStats(t *testing.T) {
	cp, nums := profileColumn("x", []string{"2", "4", "4", "4", "5", "5", "7", "9", ""}, DefaultProfileOptions())
	if cp.Kind != "numeric" || cp.NonNull != 8 || cp.Missing != 1 || len(nums) != 9 || !math.IsNaN(nums[8]) {
		t.Fatalf("column = %+v", cp)
	}
	if cp.Min != 2 || cp.Max != 9 || cp.Mean != 5 {
		t.Fatalf("min/max/mean = %v/%v/%v", cp.Min, cp.Max, cp.Mean)
	}
	if want := math.Sqrt(32.0 / 7.0); math.Abs(cp.Std-want) > 1e-12 {
		t.Fatalf("std = %v, want sample std %v", cp.Std, want)
	}
	if med, mad := medianMAD([]float64{9, 2, 4, 5, 4, 7, 4, 5}); med != 4 || mad != 1 {
		t.Fatalf("median/mad = %v/%v, want 4/1", med, mad)
	}

	single, _ := profileColumn("y", []string{"7"}, DefaultProfileOptions())
	if single.Mean != 7 || single.Std != 0 {
		t.Fatalf("single value = %+v", single)
	}
}
