package ingest

import (
	"errors"
	"fmt"
)

// ErrCountMismatch is returned when company and registration number lists differ in length.
var ErrCountMismatch = errors.New("company and registration number counts do not match")

// Record is one company to verify.
type Record struct {
	Company string `json:"company"`
	RegNum  string `json:"regnum"`
}

// Pair zips companies and registration numbers. Registration numbers are
// normalized.
func Pair(companies, regnums []string) ([]Record, error) {
	if len(companies) != len(regnums) {
		return nil, fmt.Errorf("%w: %d companies, %d registration numbers",
			ErrCountMismatch, len(companies), len(regnums))
	}

	records := make([]Record, len(companies))
	for i := range companies {
		records[i] = Record{Company: companies[i], RegNum: NormalizeRegNum(regnums[i])}
	}
	return records, nil
}
