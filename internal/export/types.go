package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rshade/bizcheck/internal/bizapi"
)

// Format is a report file format.
type Format string

// Supported formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// Sentinel errors.
var (
	ErrNoData        = errors.New("no data to export")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return ""
	}
}

// ParseFormat parses a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: markdown, json, csv)", ErrUnknownFormat, s)
	}
}

// ParseFormats parses format names, dropping duplicates and keeping order.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool, len(names))
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Options controls where and how reports are written.
type Options struct {
	Formats        []Format
	Directory      string
	IncludeRawData bool

	// Now stamps the file names and report headers. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// QueryRow is the outcome of looking up one company.
type QueryRow struct {
	Query   string                  `json:"query"`
	License *bizapi.BusinessLicense `json:"license,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// Failed reports whether the lookup produced no license.
func (r QueryRow) Failed() bool {
	return r.License == nil
}

// VerifyRow is the outcome of verifying one company/registration-number pair.
type VerifyRow struct {
	Company string               `json:"company"`
	RegNum  string               `json:"regnum"`
	Result  *bizapi.Verification `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Failed reports whether the verification produced no result.
func (r VerifyRow) Failed() bool {
	return r.Result == nil
}
