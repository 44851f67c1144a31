// Package pipeline wires the batchlog components into one explicitly owned
// object.
//
// A Pipeline connects named loggers to a set of appenders:
//
//	caller -> Logger -> worker pool -> Dispatcher -> appenders
//
// Calls return as soon as they are queued on the worker pool. The
// dispatcher collects events into batches and writes a batch to every
// appender when it reaches BatchSize, when the flush timer fires, or on
// Shutdown. Each appender only receives events at or above its threshold.
//
// Typical use:
//
//	p, err := pipeline.New(pipeline.Config{
//	    BatchSize: 50,
//	    Appenders: []pipeline.Registration{
//	        {Appender: console, Threshold: core.InfoLevel},
//	        {Appender: db, Threshold: core.ErrorLevel},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown(context.Background())
//
//	p.Logger("orders").Infof("order %d placed", id)
//
// Problems inside the pipeline itself, such as an appender failing or a
// call being dropped, are reported to the Diagnostics zap logger and never
// to the code that logged.
package pipeline
