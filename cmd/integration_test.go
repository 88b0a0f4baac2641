package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const fixtureCSV = `Event Number,State,City,IATA,Population_state,Population_city,Median Household Income_state,Median Household Income_city
1,TX,Austin,AUS,100,10,$50,$5
1,TX,Austin,AUS,100,10,$50,$5
2,TX,Austin,AUS,100,10,$50,$5
3,TX,Dallas,DAL,100,20,$50,$6
4,CA,Austin,,200,30,$60,$7
5,NY,NYC,JFK,300,40,$70,$8
5,NY,NYC,LGA,300,40,$70,$8
6,NY,NYC,JFK,300,40,$70,$8
`

// resetFlags restores every flag to its default so that Changed state does not
// leak between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setup isolates HOME and writes the fixture dataset.
func setup(t *testing.T) (home, dataPath string) {
	t.Helper()
	home = t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)

	dataPath = filepath.Join(home, "final_data.csv")
	if err := os.WriteFile(dataPath, []byte(fixtureCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return home, dataPath
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func TestCLI_StatesMarkdown(t *testing.T) {
	_, data := setup(t)
	out := runCmd(t, "states", "--dataset", data, "--format", "markdown")
	for _, want := range []string{
		"# State-level Analysis",
		"Number of Music Events per State",
		"| 1 | TX | 3 |",
		"| 3 | CA | 1 |",
		"Relationship between State Population and Number of Events",
		"Slope: -0.0050000000",
		"[NOTES]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_StatesTable(t *testing.T) {
	_, data := setup(t)
	out := runCmd(t, "states", "--dataset", data, "--top", "2")
	if !strings.Contains(out, "(top 2 of 3)") {
		t.Fatalf("expected truncated ranking title:\n%s", out)
	}
	if !strings.Contains(out, "REGRESSIONS") && !strings.Contains(out, "Regressions") {
		t.Fatalf("missing regressions table:\n%s", out)
	}
	if strings.Contains(out, "| CA ") {
		t.Fatalf("CA should be cut by --top 2:\n%s", out)
	}
}

func TestCLI_CitiesJSONToFile(t *testing.T) {
	home, data := setup(t)
	outPath := filepath.Join(home, "cities.json")
	out := runCmd(t, "cities", "--dataset", data, "--city-key", "city", "--format", "json", "-o", outPath)
	if !strings.Contains(out, "Wrote json output to") {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var rep struct {
		RunID   string `json:"run_id"`
		Ranking []struct {
			Key   []string `json:"key"`
			Count int      `json:"count"`
		} `json:"ranking"`
		Fits []struct {
			Title  string            `json:"title"`
			Points []json.RawMessage `json:"points"`
			Stats  map[string]string `json:"stats"`
		} `json:"fits"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, b)
	}
	if rep.RunID == "" || len(rep.Ranking) != 4 || len(rep.Fits) != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if got := strings.Join(rep.Ranking[0].Key, ","); got != "Austin,TX" {
		t.Fatalf("top city = %s", got)
	}
	// keyed by city name: Austin, Dallas, NYC
	if n := len(rep.Fits[0].Points); n != 3 {
		t.Fatalf("population points = %d, want 3", n)
	}
}

func TestCLI_Charts(t *testing.T) {
	home, data := setup(t)
	dir := filepath.Join(home, "charts")
	runCmd(t, "states", "--dataset", data, "--charts", dir, "--format", "json")
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	// ranking + three scatters
	if len(matches) != 4 {
		t.Fatalf("charts = %v, want 4", matches)
	}
}

func TestCLI_OverviewAndLookup(t *testing.T) {
	_, data := setup(t)
	out := runCmd(t, "overview", "--dataset", data, "--format", "markdown")
	if !strings.Contains(out, "Number of States: 3") || !strings.Contains(out, "Number of Cities: 4") {
		t.Fatalf("overview:\n%s", out)
	}
	out = runCmd(t, "overview", "--dataset", data, "--state", "TX", "--format", "markdown")
	if !strings.Contains(out, "Number of Events: 3") || !strings.Contains(out, "Number of Airports: 2") {
		t.Fatalf("state lookup:\n%s", out)
	}
	out = runCmd(t, "overview", "--dataset", data, "--level", "city", "--state", "CA", "--city", "Austin", "--format", "markdown")
	if !strings.Contains(out, "Number of Events: 1") || !strings.Contains(out, "Population: 30") {
		t.Fatalf("city lookup:\n%s", out)
	}
}

func TestCLI_OverviewAbsentState(t *testing.T) {
	_, data := setup(t)
	out := runCmd(t, "overview", "--dataset", data, "--state", "ZZ", "--format", "markdown")
	for _, want := range []string{"Number of Events: 0", "Number of Airports: 0", "Population: n/a", "⚠", "No population data for ZZ"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_OverviewCityNeedsCityLevel(t *testing.T) {
	_, data := setup(t)
	_, err := execute("overview", "--dataset", data, "--state", "TX", "--city", "Austin")
	if err == nil || !strings.Contains(err.Error(), "--level city") {
		t.Fatalf("err = %v, want --level city hint", err)
	}
}

func TestCLI_OverviewList(t *testing.T) {
	_, data := setup(t)
	out := runCmd(t, "overview", "--dataset", data, "--list")
	if out != "CA\nNY\nTX\n" {
		t.Fatalf("states = %q", out)
	}
	out = runCmd(t, "overview", "--dataset", data, "--list", "--state", "TX")
	if out != "Austin\nDallas\n" {
		t.Fatalf("cities = %q", out)
	}
}

func TestCLI_Describe(t *testing.T) {
	_, data := setup(t)
	out := runCmd(t, "describe", data, "--format", "markdown")
	for _, want := range []string{"[SCHEMA]", "- State: categorical", "- Population_state: numeric"} {
		if !strings.Contains(out, want) {
			t.Fatalf("describe missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_MissingDataset(t *testing.T) {
	home, _ := setup(t)
	if _, err := execute("states", "--dataset", filepath.Join(home, "nope", "missing.csv")); err == nil {
		t.Fatalf("expected error for missing dataset")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setup(t)
	runCmd(t, "config", "set", "top_n", "2")
	runCmd(t, "config", "set", "city_key", "city")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 2") || !strings.Contains(out, "city_key: city") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := execute("config", "set", "city_key", "county"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := execute("config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_ConfigSetRepairsInvalidFile(t *testing.T) {
	home, data := setup(t)
	dir := filepath.Join(home, ".gigstats")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	bad := "city_key: county\ntop_n: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute("states", "--dataset", data); err == nil {
		t.Fatalf("expected states to fail on an invalid config")
	}
	runCmd(t, "config", "set", "city_key", "city")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "city_key: city") || !strings.Contains(out, "top_n: 3") {
		t.Fatalf("config show after repair:\n%s", out)
	}
	if _, err := execute("config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected log_level validation error")
	}
}
