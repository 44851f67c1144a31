// Package layout compiles text templates into per-event formatters.
//
// A template is literal text containing at most one of each placeholder
// %level, %date, %logger, %thread, %msg and %throwable, in any order:
//
//	l := layout.Compile("[%level] %date %logger: %msg")
//	line := l.Format(event)
//
// Compile searches for each placeholder on its own, in a fixed order, and
// remembers where it was found. The bound extractors are then sorted by that
// offset, so values are always emitted in the order the operator wrote them.
// Unknown %tokens and repeated placeholders stay as literal text; a template
// without placeholders formats every event to the same string.
//
// A compiled Layout is read-only. Format and FormatTo may be called from
// any number of goroutines at once. Format uses a pooled bytes.Buffer; buffers
// larger than 64 KiB are not returned to the pool to prevent one large line
// from permanently inflating memory usage.
package layout
