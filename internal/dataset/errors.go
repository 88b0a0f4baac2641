package dataset

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns that are absent from the input header.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset %s is missing required columns: %s", e.Path, strings.Join(e.Missing, ", "))
}

// DataQualityError reports a cell that could not be converted to a number.
// Row is the 1-based data row (the header is not counted).
type DataQualityError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *DataQualityError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("data quality: column %q row %d: cannot parse %q as integer", e.Column, e.Row, e.Value)
	}
	return fmt.Sprintf("data quality: column %q: cannot parse %q as integer", e.Column, e.Value)
}

func (e *DataQualityError) Unwrap() error { return e.Err }
