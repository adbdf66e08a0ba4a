// Package logging provides structured logging for bizcheck on top of zerolog.
//
// Loggers are built from a Config (level, format, output), tagged per component,
// and carried through request scopes in a context.Context together with a
// ULID trace ID so that a single CLI invocation can be followed across the
// batch engine, the API client, and the exporters.
package logging
