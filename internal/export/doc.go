// Package export writes query and verification results to report files.
//
// Reports are written as Markdown, JSON or CSV into a directory, one file per
// format and kind, named after the run date (for example
// business_info_2026-01-02.md). The package also formats the plain-text
// blocks copied to the clipboard.
package export
