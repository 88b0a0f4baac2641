package analysis

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/gigstats-cli/internal/aggregate"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/KaramelBytes/gigstats-cli/internal/join"
	"github.com/KaramelBytes/gigstats-cli/internal/regression"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Report is the outcome of one level page: a ranking of event counts plus the
// regressions of event counts on population, income and airports.
type Report struct {
	RunID        string            `json:"run_id"`
	Title        string            `json:"title"`
	Dataset      string            `json:"dataset"`
	Rows         int               `json:"rows"`
	RankingTitle string            `json:"ranking_title"`
	RankingLabel string            `json:"ranking_label"`
	Ranking      []aggregate.Entry `json:"ranking"`
	// Keys in the full ranking before TopN was applied.
	RankingKeys int         `json:"ranking_keys"`
	Fits        []FitReport `json:"fits"`
}

// FitReport is one scatter-with-trendline panel.
type FitReport struct {
	Title   string               `json:"title"`
	XLabel  string               `json:"x_label"`
	YLabel  string               `json:"y_label"`
	Points  []join.Row           `json:"points"`
	Result  *regression.Result   `json:"-"`
	Stats   regression.Formatted `json:"stats"`
	Dropped int                  `json:"dropped_keys"`
	// Note explains why Result is nil.
	Note string `json:"note,omitempty"`
}

// States builds the state-level report.
func States(ds *dataset.Dataset, opt Options) (*Report, error) {
	log := opt.logger()
	rep := newReport(ds, "State-level Analysis")
	rep.RankingTitle = "Number of Music Events per State"
	rep.RankingLabel = "State"

	events := aggregate.CountDistinct(ds.Records, aggregate.EventNumber, aggregate.ByState)
	airports := aggregate.CountDistinct(ds.Records, aggregate.IATA, aggregate.ByState)
	rep.setRanking(events, opt.TopN)
	log.WithFields(logrus.Fields{"run_id": rep.RunID, "states": events.Len(), "events": events.Total()}).Debug("aggregated events per state")

	popPrec := opt.precision()
	// state populations are large enough that a 3-decimal slope reads as zero
	popPrec.Slope = opt.PValuePrecision

	specs := []fitSpec{
		{
			title:  "Relationship between State Population and Number of Events",
			xLabel: "State Population",
			yLabel: "Number of Events",
			attrs: join.Attributes(ds.Records, aggregate.ByState, "State Population",
				func(r dataset.EventRecord) float64 { return float64(r.PopulationState) }),
			prec: popPrec,
		},
		{
			title:  "Relationship between Median Household Income and Number of Music Events per State",
			xLabel: "Median Household Income",
			yLabel: "Number of Music Events",
			attrs: join.Attributes(ds.Records, aggregate.ByState, "Median Household Income",
				func(r dataset.EventRecord) float64 { return float64(r.IncomeState) }),
			prec: opt.precision(),
		},
		{
			title:  "Relationship between Number of Airports and Number of Music Events per State",
			xLabel: "Number of Airports",
			yLabel: "Number of Music Events",
			attrs:  join.AttributesFromCounts(airports, "Number of Airports"),
			prec:   opt.precision(),
		},
	}
	for _, s := range specs {
		fr, err := buildFit(events, s, log.WithField("run_id", rep.RunID))
		if err != nil {
			return nil, err
		}
		rep.Fits = append(rep.Fits, fr)
	}
	return rep, nil
}

// Cities builds the city-level report. The ranking is always keyed by (City, State);
// the fits use opt.CityKey.
func Cities(ds *dataset.Dataset, opt Options) (*Report, error) {
	log := opt.logger()
	fitKey, err := opt.cityFitKey()
	if err != nil {
		return nil, err
	}
	rep := newReport(ds, "City-level Analysis")
	rep.RankingTitle = "Number of Music Events per City"
	rep.RankingLabel = "City, State"

	ranked := aggregate.CountDistinct(ds.Records, aggregate.EventNumber, aggregate.ByCityState)
	rep.setRanking(ranked, opt.TopN)

	events := aggregate.CountDistinct(ds.Records, aggregate.EventNumber, fitKey)
	airports := aggregate.CountDistinct(ds.Records, aggregate.IATA, fitKey)
	log.WithFields(logrus.Fields{"run_id": rep.RunID, "cities": events.Len(), "key": fitKey.Names()}).Debug("aggregated events per city")

	specs := []fitSpec{
		{
			title:  "Relationship between City Population and Number of Music Events",
			xLabel: "City Population",
			yLabel: "Number of Music Events",
			attrs: join.Attributes(ds.Records, fitKey, "City Population",
				func(r dataset.EventRecord) float64 { return float64(r.PopulationCity) }),
			prec: opt.precision(),
		},
		{
			title:  "Relationship between City Median Household Income and Number of Music Events",
			xLabel: "Median Household Income",
			yLabel: "Number of Music Events",
			attrs: join.Attributes(ds.Records, fitKey, "Median Household Income",
				func(r dataset.EventRecord) float64 { return float64(r.IncomeCity) }),
			prec: opt.precision(),
		},
		{
			title:  "Relationship between Number of Airports and Number of Music Events per City",
			xLabel: "Number of Airports",
			yLabel: "Number of Music Events",
			attrs:  join.AttributesFromCounts(airports, "Number of Airports"),
			prec:   opt.precision(),
		},
	}
	for _, s := range specs {
		fr, err := buildFit(events, s, log.WithField("run_id", rep.RunID))
		if err != nil {
			return nil, err
		}
		rep.Fits = append(rep.Fits, fr)
	}
	return rep, nil
}

type fitSpec struct {
	title, xLabel, yLabel string
	attrs                 *join.AttributeTable
	prec                  regression.Precision
}

func buildFit(events *aggregate.CountTable, s fitSpec, log logrus.FieldLogger) (FitReport, error) {
	fr := FitReport{Title: s.title, XLabel: s.xLabel, YLabel: s.yLabel}
	in, err := join.Inner(events, s.attrs)
	if err != nil {
		return fr, fmt.Errorf("%s: %w", s.title, err)
	}
	fr.Points = in.Rows
	fr.Dropped = in.DroppedCounts + in.DroppedAttributes
	xs, ys := in.XY()
	res, err := regression.Fit(xs, ys)
	var de *regression.DegenerateError
	switch {
	case errors.As(err, &de):
		fr.Note = de.Error()
		log.WithField("fit", s.title).Warn(de.Error())
		return fr, nil
	case err != nil:
		return fr, fmt.Errorf("%s: %w", s.title, err)
	}
	fr.Result = res
	fr.Stats = res.Format(s.prec)
	log.WithFields(logrus.Fields{
		"fit":     s.title,
		"n":       res.N,
		"dropped": fr.Dropped,
		"r2":      fr.Stats.RSquared,
	}).Debug("fitted")
	return fr, nil
}

func newReport(ds *dataset.Dataset, title string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Title:   title,
		Dataset: ds.Path,
		Rows:    ds.Rows(),
	}
}

func (r *Report) setRanking(t *aggregate.CountTable, topN int) {
	ranked := t.Ranked()
	r.RankingKeys = len(ranked)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	r.Ranking = ranked
}
