package tui

import "github.com/charmbracelet/lipgloss"

// Colors.
const (
	ColorHeader   = lipgloss.Color("12")
	ColorLabel    = lipgloss.Color("245")
	ColorValue    = lipgloss.Color("255")
	ColorOK       = lipgloss.Color("10")
	ColorWarning  = lipgloss.Color("11")
	ColorCritical = lipgloss.Color("9")
	ColorBorder   = lipgloss.Color("240")
)

// Layout constants.
const (
	defaultWidth  = 100
	borderPadding = 2
	maxCellLen    = 40
	truncSuffix   = "..."
)

//nolint:gochecknoglobals // Shared read-only styles.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	InfoStyle     = lipgloss.NewStyle().Foreground(ColorHeader)
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorLabel).Italic(true)
	OKStyle       = lipgloss.NewStyle().Foreground(ColorOK)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// truncate shortens s to maxCellLen runes.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellLen {
		return s
	}
	return string(r[:maxCellLen-len(truncSuffix)]) + truncSuffix
}
