package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// LoadOptions controls how an input file is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Sheet selects the XLSX worksheet by name; empty means the first sheet.
	Sheet string
}

// Load reads a CSV/TSV or XLSX file into a Dataset. Every column is kept as text
// while loading; numeric columns are converted afterwards so that a malformed
// value surfaces as a DataQualityError naming its row.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	df, err := LoadFrame(path, opt)
	if err != nil {
		return nil, err
	}
	return fromFrame(path, df)
}

// LoadFrame reads the file into a frame of text columns without interpreting them.
func LoadFrame(path string, opt LoadOptions) (dataframe.DataFrame, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return readXLSX(path, opt.Sheet)
	}
	return readCSV(path, opt.Delimiter)
}

func readCSV(path string, delim rune) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	df := dataframe.ReadCSV(f,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
		dataframe.WithDelimiter(delim),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read csv: %w", df.Err)
	}
	return df, nil
}

func readXLSX(path, sheet string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q in %s is empty", sheet, filepath.Base(path))
	}
	// excelize trims trailing empty cells; the frame needs rectangular records.
	width := len(rows[0])
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		} else if len(r) > width {
			rows[i] = r[:width]
		}
	}
	df := dataframe.LoadRecords(rows,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load sheet %q: %w", sheet, df.Err)
	}
	return df, nil
}

func fromFrame(path string, df dataframe.DataFrame) (*Dataset, error) {
	have := make(map[string]bool)
	for _, n := range df.Names() {
		have[n] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Path: filepath.Base(path), Missing: missing}
	}

	cols := make(map[string][]string, len(RequiredColumns))
	for _, c := range RequiredColumns {
		cols[c] = df.Col(c).Records()
	}

	ds := &Dataset{Path: path, Records: make([]EventRecord, 0, df.Nrow())}
	for i := 0; i < df.Nrow(); i++ {
		rec := EventRecord{
			EventNumber: cell(cols[ColEventNumber][i]),
			City:        cell(cols[ColCity][i]),
			State:       cell(cols[ColState][i]),
			IATA:        cell(cols[ColIATA][i]),
		}
		var err error
		if rec.PopulationCity, err = ParsePopulation(ColPopulationCity, cols[ColPopulationCity][i]); err != nil {
			return nil, withRow(err, i+1)
		}
		if rec.PopulationState, err = ParsePopulation(ColPopulationState, cols[ColPopulationState][i]); err != nil {
			return nil, withRow(err, i+1)
		}
		if rec.IncomeCity, err = ParseIncome(ColIncomeCity, cols[ColIncomeCity][i]); err != nil {
			return nil, withRow(err, i+1)
		}
		if rec.IncomeState, err = ParseIncome(ColIncomeState, cols[ColIncomeState][i]); err != nil {
			return nil, withRow(err, i+1)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// cell trims a value. Texts such as "NA" are kept: the frame is loaded without
// missing-value markers, so only an empty cell means "no value".
func cell(v string) string { return strings.TrimSpace(v) }

func withRow(err error, row int) error {
	var dq *DataQualityError
	if errors.As(err, &dq) {
		dq.Row = row
		return dq
	}
	return err
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
