package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// RenderQueryMarkdown writes the business information report.
func RenderQueryMarkdown(w io.Writer, rows []QueryRow, includeRaw bool, at time.Time) error {
	mw := &mdWriter{w: w}
	mw.header("Business Information Query Results", at, len(rows))

	for i, row := range rows {
		title := row.Query
		if row.License != nil && row.License.Name != "" {
			title = row.License.Name
		}
		mw.printf("## %d. %s\n\n", i+1, title)
		mw.tableHeader()

		if row.Failed() {
			mw.field("Query", row.Query)
			mw.field("Error", row.Error)
		} else {
			l := row.License
			mw.field("Registration Number", l.RegNumber)
			mw.field("Status", l.Status)
			mw.field("Type", l.Type)
			mw.field("Legal Representative", l.LegalPerson)
			mw.field("Establishment Date", l.EstablishDate)
			mw.field("Registered Capital", l.RegCapital)
			mw.field("Address", l.Address)
			mw.field("Business Scope", l.BusinessScope)
			mw.field("Province", l.Province)
			mw.field("City", l.City)
			mw.field("District", l.District)
			mw.field("Licensed Business Scope", l.LicensedBusinessScope)
			if includeRaw {
				mw.raw(l.Raw)
			}
		}
		mw.printf("\n---\n\n")
	}

	if mw.err != nil {
		return fmt.Errorf("writing markdown report: %w", mw.err)
	}
	return nil
}

// RenderVerifyMarkdown writes the verification report.
func RenderVerifyMarkdown(w io.Writer, rows []VerifyRow, includeRaw bool, at time.Time) error {
	mw := &mdWriter{w: w}
	mw.header("Business Verification Results", at, len(rows))

	for i, row := range rows {
		mw.printf("## %d. %s\n\n", i+1, row.Company)
		mw.tableHeader()
		mw.field("Registration Number", row.RegNum)

		if row.Failed() {
			mw.field("Error", row.Error)
		} else {
			mw.field("Result", row.Result.Status)
			mw.field("Name Match", yesNo(row.Result.NameMatch))
			mw.field("Registration Number Match", yesNo(row.Result.CodeMatch))
			if includeRaw {
				mw.raw(row.Result.Raw)
			}
		}
		mw.printf("\n---\n\n")
	}

	if mw.err != nil {
		return fmt.Errorf("writing markdown report: %w", mw.err)
	}
	return nil
}

// mdWriter keeps the first write error so rendering reads top to bottom.
type mdWriter struct {
	w   io.Writer
	err error
}

func (m *mdWriter) printf(format string, args ...any) {
	if m.err != nil {
		return
	}
	_, m.err = fmt.Fprintf(m.w, format, args...)
}

func (m *mdWriter) header(title string, at time.Time, total int) {
	m.printf("# %s\n\n", title)
	m.printf("Query Time: %s\n\n", at.Format(reportTimeLayout))
	m.printf("Total Records: %d\n\n", total)
}

func (m *mdWriter) tableHeader() {
	m.printf("| Field | Content |\n")
	m.printf("|-------|---------|\n")
}

func (m *mdWriter) field(name, value string) {
	m.printf("| %s | %s |\n", name, escapeCell(value))
}

func (m *mdWriter) raw(data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		buf.Reset()
		buf.Write(data)
	}
	m.printf("\n<details><summary>Raw Data</summary>\n\n")
	m.printf("```json\n%s\n```\n</details>\n\n", buf.String())
}

// escapeCell keeps a value on one table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
