package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

//nolint:gochecknoglobals // Read-only column headers.
var (
	queryColumns = []string{
		"query", "name", "reg_number", "status", "type", "legal_person", "establish_date",
		"reg_capital", "address", "business_scope", "province", "city", "district",
		"licensed_business_scope", "error",
	}
	verifyColumns = []string{"company", "regnum", "status", "name_match", "code_match", "error"}
)

// report is the JSON document layout.
type report[T any] struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Failed      int       `json:"failed"`
	Records     []T       `json:"records"`
}

// RenderQueryJSON writes rows as an indented JSON report. Raw API payloads are
// dropped unless includeRaw is set.
func RenderQueryJSON(w io.Writer, rows []QueryRow, includeRaw bool, at time.Time) error {
	out := make([]QueryRow, len(rows))
	failed := 0
	for i, row := range rows {
		if row.License != nil && !includeRaw {
			l := *row.License
			l.Raw = nil
			row.License = &l
		}
		if row.Failed() {
			failed++
		}
		out[i] = row
	}
	return writeJSON(w, report[QueryRow]{GeneratedAt: at, Total: len(rows), Failed: failed, Records: out})
}

// RenderVerifyJSON writes rows as an indented JSON report.
func RenderVerifyJSON(w io.Writer, rows []VerifyRow, includeRaw bool, at time.Time) error {
	out := make([]VerifyRow, len(rows))
	failed := 0
	for i, row := range rows {
		if row.Result != nil && !includeRaw {
			v := *row.Result
			v.Raw = nil
			row.Result = &v
		}
		if row.Failed() {
			failed++
		}
		out[i] = row
	}
	return writeJSON(w, report[VerifyRow]{GeneratedAt: at, Total: len(rows), Failed: failed, Records: out})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}
	return nil
}

// RenderQueryCSV writes one CSV row per lookup.
func RenderQueryCSV(w io.Writer, rows []QueryRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, queryColumns)
	for _, row := range rows {
		rec := make([]string, len(queryColumns))
		rec[0] = row.Query
		if l := row.License; l != nil {
			copy(rec[1:], []string{
				l.Name, l.RegNumber, l.Status, l.Type, l.LegalPerson, l.EstablishDate,
				l.RegCapital, l.Address, l.BusinessScope, l.Province, l.City, l.District,
				l.LicensedBusinessScope,
			})
		}
		rec[len(rec)-1] = row.Error
		records = append(records, rec)
	}
	return writeCSV(w, records)
}

// RenderVerifyCSV writes one CSV row per verification.
func RenderVerifyCSV(w io.Writer, rows []VerifyRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, verifyColumns)
	for _, row := range rows {
		rec := []string{row.Company, row.RegNum, "", "", "", row.Error}
		if v := row.Result; v != nil {
			rec[2] = v.Status
			rec[3] = strconv.FormatBool(v.NameMatch)
			rec[4] = strconv.FormatBool(v.CodeMatch)
		}
		records = append(records, rec)
	}
	return writeCSV(w, records)
}

func writeCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv report: %w", err)
	}
	return nil
}
