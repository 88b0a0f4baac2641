package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/gigstats-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set GigStats configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "dataset_path: %s\n", cfg.DatasetPath)
		if cfg.DatasetSheet != "" {
			fmt.Fprintf(out, "dataset_sheet: %s\n", cfg.DatasetSheet)
		}
		fmt.Fprintf(out, "city_key: %s\n", cfg.CityKey)
		fmt.Fprintf(out, "top_n: %d\n", cfg.TopN)
		fmt.Fprintf(out, "precision: %d\n", cfg.Precision)
		fmt.Fprintf(out, "p_value_precision: %d\n", cfg.PValuePrecision)
		if cfg.ChartsDir != "" {
			fmt.Fprintf(out, "charts_dir: %s\n", cfg.ChartsDir)
		}
		fmt.Fprintf(out, "chart_width: %d\n", cfg.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", cfg.ChartHeight)
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		cur := cfg
		if cur == nil {
			// the stored config failed validation; start from it anyway so it can be fixed
			c, err := cfgpkg.Read(cfgFile)
			if err != nil {
				return err
			}
			cur = c
		}
		next := *cur
		switch key {
		case "dataset_path":
			next.DatasetPath = val
		case "dataset_sheet":
			next.DatasetSheet = val
		case "city_key":
			next.CityKey = val
		case "top_n":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for top_n: %w", err)
			}
			next.TopN = i
		case "precision":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for precision: %w", err)
			}
			next.Precision = i
		case "p_value_precision":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for p_value_precision: %w", err)
			}
			next.PValuePrecision = i
		case "charts_dir":
			next.ChartsDir = val
		case "chart_width", "chart_height":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid size for %s: %v", key, val)
			}
			if key == "chart_width" {
				next.ChartWidth = i
			} else {
				next.ChartHeight = i
			}
		case "output_format":
			next.OutputFormat = val
		case "log_level":
			next.LogLevel = val
		case "log_format":
			next.LogFormat = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintf(cmd.OutOrStdout(), "%s Saved config\n", okMark())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
