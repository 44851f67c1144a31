// Package core defines the shared types used across batchlog.
//
// It provides the Level type for severity filtering, the Event type that
// represents a single log occurrence, the Message type for deferred
// formatting, the Filter contract, and the Field type for structured
// key-value pairs.
//
// An Event is immutable once NewEvent returns. The logger front-end builds
// it on a worker goroutine from values captured at the call site, the
// dispatcher queues it, and every sink reads the same instance. Because
// nothing mutates an Event after construction, no locking is needed when
// several sinks format it concurrently.
//
// A Message is rendered only when a sink formats the event. NewMessage
// keeps the printf template and its arguments until then, so a call that
// is filtered out by every sink never pays for fmt.Sprintf.
//
// Go does not name its goroutines, so ThreadName reports either a name
// attached to a context with WithThreadName or "goroutine-<id>".
package core
