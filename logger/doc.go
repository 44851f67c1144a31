// Package logger is the front-end of batchlog: named loggers whose calls
// are turned into events on a worker pool.
//
// A Registry hands out one Logger per name. Repeated calls to Get with the
// same name return the same instance:
//
//	log := reg.Get("orders")
//	log.Infof("charged %d cents", amount)
//	log.Errorw("charge failed", logger.String("card", last4))
//
// Each call captures its timestamp and the calling goroutine's name, then
// queues the rest of the work on the Pool and returns. The Pool builds the
// Event on a worker goroutine and hands it to the dispatcher, so callers
// never wait on appender I/O and a failing appender can never panic into
// application code.
//
// A logger is pinned to one worker by hashing its name, which keeps the
// calls of one logger in call order. Worker queues are unbounded unless
// PoolConfig.QueueSize sets a cap; a full capped queue applies the
// per-level OverflowPolicy, which decides between blocking and dropping.
//
// Go does not name goroutines. Attach a name to a context with
// core.WithThreadName and log through Log, or through a slog.Logger built
// on NewSlogHandler, to make it appear as %thread; otherwise the
// goroutine id is used.
package logger
