package analysis

import (
	"fmt"

	"github.com/KaramelBytes/gigstats-cli/internal/aggregate"
	"github.com/KaramelBytes/gigstats-cli/internal/logging"
	"github.com/KaramelBytes/gigstats-cli/internal/regression"
	"github.com/sirupsen/logrus"
)

// Options controls the state and city reports.
type Options struct {
	// CityKey selects the key of the city-level fits: "city_state" groups by
	// (City, State); "city" groups by the city name alone, merging same-named
	// cities across states.
	CityKey string
	// TopN limits the ranking kept in the report; 0 keeps every key.
	TopN int
	// Precision is the number of decimals for slope, intercept and R².
	Precision int
	// PValuePrecision is used for p-values and for the state population slope.
	PValuePrecision int
	Logger          logrus.FieldLogger
}

// DefaultOptions returns the precision used by the dashboard pages.
func DefaultOptions() Options {
	return Options{
		CityKey:         "city_state",
		Precision:       regression.DefaultPrecision.Slope,
		PValuePrecision: regression.DefaultPrecision.PValue,
	}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

func (o Options) precision() regression.Precision {
	return regression.Precision{
		Slope:     o.Precision,
		Intercept: o.Precision,
		RSquared:  o.Precision,
		PValue:    o.PValuePrecision,
	}
}

func (o Options) cityFitKey() (aggregate.KeySpec, error) {
	switch o.CityKey {
	case "", "city_state":
		return aggregate.ByCityState, nil
	case "city":
		return aggregate.ByCity, nil
	default:
		return nil, fmt.Errorf("unsupported city key: %s (use city_state or city)", o.CityKey)
	}
}
