package ingest

import (
	"strings"
)

// DefaultSeparators split lists pasted from spreadsheets, chat or documents.
//
//nolint:gochecknoglobals // Read-only default separator set.
var DefaultSeparators = []string{",", "，", "\n", "、", "|", "/", "\\", ";", "；", "#"}

// ParseSeparators turns a whitespace-separated separator list such as
// "@ $ +" into separators. Empty input yields DefaultSeparators.
func ParseSeparators(list string) []string {
	fields := strings.Fields(list)
	if len(fields) == 0 {
		return DefaultSeparators
	}
	return fields
}

// Split splits text on any of separators, trims each part and drops empty
// parts. A nil or empty separator list uses DefaultSeparators. Carriage
// returns are treated as whitespace.
func Split(text string, separators []string) []string {
	if len(separators) == 0 {
		separators = DefaultSeparators
	}

	pairs := make([]string, 0, 2*len(separators))
	for _, sep := range separators {
		if sep == "" {
			continue
		}
		pairs = append(pairs, sep, "\x00")
	}
	replaced := strings.NewReplacer(pairs...).Replace(text)

	var items []string
	for _, part := range strings.Split(replaced, "\x00") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
