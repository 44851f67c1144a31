// Package dispatch implements the batching queue that sits between the
// logger front-end and the appenders.
//
// A Dispatcher owns one FIFO buffer of events. Events are flushed to every
// appender when the buffer reaches the configured batch size, when the
// Scheduler fires, when Flush is called, or during pipeline shutdown. Each
// flush swaps the buffer for an empty one, so a flushed batch belongs to
// exactly one flush and is never delivered twice.
//
// Appender failures and panics are isolated per appender: they are counted,
// reported on the diagnostics logger, and never reach the producer that
// triggered the flush.
package dispatch
