package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rshade/bizcheck/internal/bizapi"
	"github.com/rshade/bizcheck/internal/export"
)

// RenderQueryTable renders lookups as a table.
func RenderQueryTable(rows []export.QueryRow) string {
	if len(rows) == 0 {
		return InfoStyle.Render("No results to display.")
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		if r.Failed() {
			data[i] = []string{strconv.Itoa(i + 1), truncate(r.Query), "", "", "", truncate(r.Error)}
			continue
		}
		l := r.License
		data[i] = []string{
			strconv.Itoa(i + 1), truncate(l.Name), l.RegNumber, l.Status, truncate(l.LegalPerson), l.EstablishDate,
		}
	}

	t := newTable([]string{"#", "Company", "Registration No.", "Status", "Legal Person", "Established"}, data)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return TableHeaderStyle
		}
		if row >= 0 && row < len(rows) && rows[row].Failed() && col == 5 {
			return TableCellStyle.Foreground(ColorCritical)
		}
		return TableCellStyle
	})
	return t.Render()
}

// RenderVerifyTable renders verifications as a table.
func RenderVerifyTable(rows []export.VerifyRow) string {
	if len(rows) == 0 {
		return InfoStyle.Render("No results to display.")
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		status, name, code := r.Error, "", ""
		if !r.Failed() {
			status = r.Result.Status
			name = yesNo(r.Result.NameMatch)
			code = yesNo(r.Result.CodeMatch)
		}
		data[i] = []string{strconv.Itoa(i + 1), truncate(r.Company), r.RegNum, truncate(status), name, code}
	}

	t := newTable([]string{"#", "Company", "Registration No.", "Result", "Name", "Code"}, data)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return TableHeaderStyle
		}
		if row < 0 || row >= len(rows) || col != 3 { //nolint:mnd // Result column.
			return TableCellStyle
		}
		switch r := rows[row]; {
		case r.Failed():
			return TableCellStyle.Foreground(ColorCritical)
		case r.Result.Status == bizapi.StatusVerified:
			return TableCellStyle.Foreground(ColorOK)
		default:
			return TableCellStyle.Foreground(ColorWarning)
		}
	})
	return t.Render()
}

// Summary describes a finished run.
type Summary struct {
	Title     string
	Total     int
	Succeeded int
	Failed    int
	Retries   int
	Elapsed   time.Duration
	Files     []string
}

// RenderSummary renders a boxed run summary.
func RenderSummary(s Summary, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	var content strings.Builder
	content.WriteString(HeaderStyle.Render(s.Title))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Total: "))
	content.WriteString(ValueStyle.Render(strconv.Itoa(s.Total)))
	content.WriteString(LabelStyle.Render("    Succeeded: "))
	content.WriteString(OKStyle.Render(strconv.Itoa(s.Succeeded)))
	content.WriteString(LabelStyle.Render("    Failed: "))
	failed := ValueStyle
	if s.Failed > 0 {
		failed = CriticalStyle
	}
	content.WriteString(failed.Render(strconv.Itoa(s.Failed)))
	if s.Retries > 0 {
		content.WriteString(LabelStyle.Render("    Retries: "))
		content.WriteString(ValueStyle.Render(strconv.Itoa(s.Retries)))
	}
	content.WriteString(LabelStyle.Render("    Elapsed: "))
	content.WriteString(ValueStyle.Render(s.Elapsed.Round(time.Millisecond).String()))

	for _, f := range s.Files {
		content.WriteString("\n")
		content.WriteString(SubtleStyle.Render(fmt.Sprintf("Exported: %s", f)))
	}

	return BoxStyle.Width(width - borderPadding).Render(content.String())
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(headers...).
		Rows(rows...)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
