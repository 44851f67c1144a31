// Package appender provides the Appender interface and the built-in output
// destinations for formatted events.
//
// An appender receives events from the dispatcher, either one at a time via
// Append or as an ordered batch via AppendBatch. Every appender owns a
// filter that is applied per event before anything is written; events the
// filter rejects are counted and skipped.
//
// Built-in appenders:
//
//   - Console writes one line per event to stdout or stderr, with optional
//     level colors when the stream is a terminal.
//   - File writes to a file with rotation by size, age, or interval, and
//     removes old backups beyond MaxBackups.
//   - Database inserts one row per event through database/sql. A failed
//     row never prevents the other rows of the batch from being inserted.
//   - HTTP posts JSON records to a collector, one request per event or one
//     array per batch, with retries.
//   - Memory keeps events in memory for tests and inspection.
//
// A Registry maps kind tags to providers so that configuration files can
// name appenders by kind. NewRegistry returns a registry holding the
// built-in kinds; applications may Register their own.
package appender
