package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	lvlTop       int
	lvlChartsDir string
	lvlOutput    string
	lvlFormat    string
	lvlCityKey   string
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Rank states by music events and regress events on population, income and airports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLevel(cmd, analysis.States)
	},
}

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Rank cities by music events and regress events on population, income and airports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLevel(cmd, analysis.Cities)
	},
}

func runLevel(cmd *cobra.Command, build func(*dataset.Dataset, analysis.Options) (*analysis.Report, error)) error {
	format, err := resolveFormat(lvlFormat)
	if err != nil {
		return err
	}
	opt, err := levelOptions(cmd)
	if err != nil {
		return err
	}
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	rep, err := build(ds, opt)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"run_id": rep.RunID,
		"keys":   rep.RankingKeys,
		"fits":   len(rep.Fits),
	}).Debug(rep.Title)

	chartsDir := lvlChartsDir
	if !cmd.Flags().Changed("charts") && cfg.ChartsDir != "" {
		chartsDir = cfg.ChartsDir
	}
	if err := writeCharts(cmd, chartsDir, rep); err != nil {
		return err
	}
	return emit(cmd, format, lvlOutput, rep, func(w io.Writer) { renderReport(w, rep) })
}

// levelOptions merges configuration with the command's flags.
func levelOptions(cmd *cobra.Command) (analysis.Options, error) {
	c, err := requireConfig()
	if err != nil {
		return analysis.Options{}, err
	}
	opt := analysis.DefaultOptions()
	opt.CityKey = c.CityKey
	opt.TopN = c.TopN
	opt.Precision = c.Precision
	opt.PValuePrecision = c.PValuePrecision
	opt.Logger = logger

	f := cmd.Flags()
	if f.Changed("top") {
		if lvlTop < 0 {
			return opt, fmt.Errorf("--top must be >= 0")
		}
		opt.TopN = lvlTop
	}
	if f.Changed("city-key") {
		switch lvlCityKey {
		case "city_state", "city":
			opt.CityKey = lvlCityKey
		default:
			return opt, fmt.Errorf("unsupported --city-key: %s (use city_state or city)", lvlCityKey)
		}
	}
	return opt, nil
}

func init() {
	for _, c := range []*cobra.Command{statesCmd, citiesCmd} {
		rootCmd.AddCommand(c)
		c.Flags().IntVar(&lvlTop, "top", 0, "number of ranked keys to show (0 = all, overrides config)")
		c.Flags().StringVar(&lvlChartsDir, "charts", "", "directory to write PNG charts into")
		c.Flags().StringVarP(&lvlOutput, "output", "o", "", "optional path to write the report")
		c.Flags().StringVar(&lvlFormat, "format", "", "output format: table|markdown|json (overrides config)")
	}
	citiesCmd.Flags().StringVar(&lvlCityKey, "city-key", "city_state", "key of the city fits: city_state|city")
}
