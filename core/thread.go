package core

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
)

type threadNameKey struct{}

// WithThreadName returns a context that names the calling goroutine for
// log events produced with it.
func WithThreadName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, threadNameKey{}, name)
}

// ThreadName returns the name stored in ctx by WithThreadName. Without one it
// falls back to "goroutine-<id>" for the calling goroutine, so it must be
// called on the goroutine being identified.
func ThreadName(ctx context.Context) string {
	if ctx != nil {
		if name, ok := ctx.Value(threadNameKey{}).(string); ok && name != "" {
			return name
		}
	}
	return "goroutine-" + strconv.FormatUint(goroutineID(), 10)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id from the first line of the current stack,
// which has the form "goroutine 17 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
