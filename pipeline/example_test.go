package pipeline_test

import (
	"context"

	"go.uber.org/zap"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/pipeline"
)

func Example() {
	console, err := appender.NewConsole("stdout", appender.ConsoleConfig{Color: appender.ColorNever})
	if err != nil {
		panic(err)
	}

	p, err := pipeline.New(pipeline.Config{
		Template:    "%level %logger: %msg",
		Appenders:   []pipeline.Registration{{Appender: console, Threshold: core.InfoLevel}},
		Diagnostics: zap.NewNop(),
	})
	if err != nil {
		panic(err)
	}

	log := p.Logger("orders")
	log.Debug("not shown")
	log.Info("order placed")
	log.Warnf("stock low: %d left", 3)

	_ = p.Shutdown(context.Background())
	// Output:
	// INFO orders: order placed
	// WARN orders: stock low: 3 left
}
