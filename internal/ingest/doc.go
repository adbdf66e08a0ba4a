// Package ingest turns user input into lookup items.
//
// Free text is split on a set of separators, CSV and text files are read into
// company names or company/registration-number records, and registration
// numbers are normalized so full-width input matches the registry.
package ingest
