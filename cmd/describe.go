package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	descTopValues    int
	descOutlierThr   float64
	descDelimiter    string
	descOutputPath   string
	descOutputFormat string
	descQuiet        bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [files...]",
	Short: "Profile the columns of the dataset, or of other CSV/TSV/XLSX files",
	Long: `Profiles every column: inferred kind, missing and unique counts, numeric range,
mean and standard deviation, robust outlier counts and the most frequent categorical
values. Without arguments the configured dataset is profiled; arguments may be globs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat(descOutputFormat)
		if err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		var files []string
		if len(args) == 0 {
			path, err := resolveDataset(c.DatasetPath)
			if err != nil {
				return err
			}
			files = []string{path}
		} else if files, err = expandInputs(args); err != nil {
			return err
		}
		if descOutputPath != "" && len(files) > 1 {
			return fmt.Errorf("--output needs a single input file, got %d", len(files))
		}

		lopt := dataset.LoadOptions{Sheet: c.DatasetSheet}
		switch descDelimiter {
		case "":
		case ",":
			lopt.Delimiter = ','
		case "\t", "tab":
			lopt.Delimiter = '\t'
		case ";":
			lopt.Delimiter = ';'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", descDelimiter)
		}
		popt := analysis.DefaultProfileOptions()
		if descTopValues > 0 {
			popt.TopValues = descTopValues
		}
		if descOutlierThr > 0 {
			popt.OutlierThreshold = descOutlierThr
		}

		total := len(files)
		for i, path := range files {
			if total > 1 && !descQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			df, err := dataset.LoadFrame(path, lopt)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			p := analysis.ProfileFrame(path, df, popt)
			logger.WithField("dataset", path).WithField("columns", len(p.Columns)).Debug("profiled")
			if err := emit(cmd, format, descOutputPath, p, func(w io.Writer) { renderProfile(w, p) }); err != nil {
				return err
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().IntVar(&descTopValues, "top-values", 5, "most frequent values listed per categorical column")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the profile (single input only)")
	describeCmd.Flags().StringVar(&descOutputFormat, "format", "", "output format: table|markdown|json (overrides config)")
	describeCmd.Flags().BoolVarP(&descQuiet, "quiet", "q", false, "suppress per-file progress output")
}
