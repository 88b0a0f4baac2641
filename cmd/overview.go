package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/join"
	"github.com/spf13/cobra"
)

var (
	ovLevel  string
	ovState  string
	ovCity   string
	ovOutput string
	ovFormat string
	ovList   bool
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show dataset coverage, or the metrics of one state or city",
	Long: `Without --state, prints the number of rows, states and cities in the dataset.
With --state (and --city at city level), prints the number of events, population,
median household income and number of airports of that state or city.`,
	Example: `  gigstats overview
  gigstats overview --state TX
  gigstats overview --level city --state TX --city Austin
  gigstats overview --list
  gigstats overview --list --state TX`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat(ovFormat)
		if err != nil {
			return err
		}
		level, err := analysis.ParseLevel(ovLevel)
		if err != nil {
			return err
		}
		if ovCity != "" && level != analysis.LevelCity {
			return fmt.Errorf("--city requires --level city")
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		if ovList {
			values := ds.States()
			if ovState != "" {
				values = ds.Cities(ovState)
				if len(values) == 0 {
					return fmt.Errorf("no cities for state %q", ovState)
				}
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		}
		if ovState == "" && ovCity == "" {
			o := analysis.Overview(ds)
			logger.WithField("run_id", o.RunID).Debug("overview")
			return emit(cmd, format, ovOutput, o, func(w io.Writer) { renderOverview(w, o) })
		}
		sum, err := analysis.Lookup(ds, analysis.Selection{Level: level, State: ovState, City: ovCity})
		var mk *join.MissingKeyError
		if err != nil && (sum == nil || !errors.As(err, &mk)) {
			return err
		}
		if err := emit(cmd, format, ovOutput, sum, func(w io.Writer) { renderSummary(w, sum) }); err != nil {
			return err
		}
		for _, m := range sum.Missing {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s No %s data for %s\n", warnMark(), m, sum.Selection.Key().String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().StringVar(&ovLevel, "level", "state", "search level: state|city")
	overviewCmd.Flags().StringVar(&ovState, "state", "", "state to look up")
	overviewCmd.Flags().StringVar(&ovCity, "city", "", "city to look up (requires --level city)")
	overviewCmd.Flags().BoolVar(&ovList, "list", false, "list the states, or the cities of --state, instead of reporting")
	overviewCmd.Flags().StringVarP(&ovOutput, "output", "o", "", "optional path to write the result")
	overviewCmd.Flags().StringVar(&ovFormat, "format", "", "output format: table|markdown|json (overrides config)")
}
