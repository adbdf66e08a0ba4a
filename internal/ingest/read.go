package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files other than .txt and .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// utf8BOM is stripped from the first line of files exported by spreadsheets.
const utf8BOM = "\uFEFF"

//nolint:gochecknoglobals // Read-only header alias tables.
var (
	companyHeaders = []string{"name", "company", "company name", "companyname", "公司名称", "企业名称", "名称"}
	regnumHeaders  = []string{"regnum", "reg number", "regnumber", "code", "credit code", "注册号", "统一社会信用代码", "信用代码"}
)

// ReadOptions controls ReadRecords.
type ReadOptions struct {
	// SkipEmptyRows drops records missing a company or a registration number.
	SkipEmptyRows bool
}

// ReadLines reads company names from a .txt file (one per line) or a .csv
// file (the company column, header optional).
func ReadLines(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return readTextLines(path)
	case ".csv":
		records, err := ReadRecords(path, ReadOptions{})
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(records))
		for _, r := range records {
			if r.Company != "" {
				names = append(names, r.Company)
			}
		}
		return names, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadRecords reads company/registration-number records from a .csv file.
// A header row naming the columns is detected; without one the first two
// columns are used.
func ReadRecords(path string, opts ReadOptions) ([]Record, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := parseCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func parseCSV(r io.Reader, opts ReadOptions) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}

	nameCol, regCol := 0, 1
	if n, reg, ok := detectHeader(rows[0]); ok {
		nameCol, regCol = n, reg
		rows = rows[1:]
	}

	var records []Record
	for _, row := range rows {
		rec := Record{
			Company: strings.TrimSpace(cell(row, nameCol)),
			RegNum:  NormalizeRegNum(cell(row, regCol)),
		}
		if rec.Company == "" && rec.RegNum == "" {
			continue
		}
		if opts.SkipEmptyRows && (rec.Company == "" || rec.RegNum == "") {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// detectHeader returns the company and registration-number columns when row
// looks like a header. A header without a registration column maps it to -1.
func detectHeader(row []string) (int, int, bool) {
	nameCol, regCol := -1, -1
	for i, c := range row {
		h := strings.ToLower(strings.TrimSpace(c))
		switch {
		case nameCol < 0 && contains(companyHeaders, h):
			nameCol = i
		case regCol < 0 && contains(regnumHeaders, h):
			regCol = i
		}
	}
	if nameCol < 0 && regCol < 0 {
		return 0, 0, false
	}
	if nameCol < 0 {
		nameCol = 0
		if regCol == 0 {
			nameCol = 1
		}
	}
	return nameCol, regCol, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func readTextLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
