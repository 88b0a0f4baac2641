package dataset

import (
	"regexp"
	"strconv"
	"strings"
)

var currencyChars = regexp.MustCompile(`[$,]`)

// ParseIncome converts a currency-formatted value such as "$50,000" into an integer.
// Every '$' and ',' is stripped before the cast, so an already-numeric value passes
// through unchanged. Anything else that survives the strip (decimals, spaces, words)
// is rejected rather than coerced.
func ParseIncome(column, raw string) (int64, error) {
	return parseInt(column, raw, currencyChars.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// ParsePopulation converts a population count with optional thousands separators.
func ParsePopulation(column, raw string) (int64, error) {
	return parseInt(column, raw, strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
}

func parseInt(column, raw, cleaned string) (int64, error) {
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, &DataQualityError{Column: column, Value: raw, Err: err}
	}
	return n, nil
}
