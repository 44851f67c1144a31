package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/config"
	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/pipeline"
)

var configFlag = &cli.StringFlag{
	Name:     "config",
	Aliases:  []string{"c"},
	Usage:    "path to the YAML configuration",
	Required: true,
}

func cmdRun() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "emit synthetic events through the configured pipeline",
		Flags: []cli.Flag{
			configFlag,
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "number of events to emit",
				Value:   1000,
			},
			&cli.IntFlag{
				Name:    "producers",
				Aliases: []string{"p"},
				Usage:   "number of concurrent producer goroutines",
				Value:   4,
			},
			&cli.StringFlag{
				Name:  "logger",
				Usage: "logger name the events are emitted under",
				Value: "batchlog.load",
			},
			&cli.StringFlag{
				Name:  "level",
				Usage: "level of the emitted events",
				Value: "INFO",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address while running, e.g. :9090",
			},
		},
		Action: runLoad,
	}
}

func runLoad(c *cli.Context) error {
	level, err := core.ParseLevel(c.String("level"))
	if err != nil {
		return err
	}
	producers := c.Int("producers")
	if producers <= 0 {
		return errors.Errorf("producers must be positive, got %d", producers)
	}
	count := c.Int("count")

	f, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	cfg, err := f.Build(appender.NewRegistry(), nil)
	if err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		cfg.Registerer = reg
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				cfg.Diagnostics.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		for _, r := range cfg.Appenders {
			err = multierr.Append(err, r.Appender.Close())
		}
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	log := p.Logger(c.String("logger"))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < producers; i++ {
		i := i
		g.Go(func() error {
			tctx := core.WithThreadName(gctx, fmt.Sprintf("producer-%d", i))
			for n := i; n < count; n += producers {
				if err := gctx.Err(); err != nil {
					return err
				}
				log.Log(tctx, level, core.NewMessage("synthetic event %d of %d", n+1, count), nil)
			}
			return nil
		})
	}
	runErr := g.Wait()
	emitted := time.Since(start)

	shutdownErr := p.Shutdown(context.Background())
	total := time.Since(start)

	s := p.Stats()
	fmt.Fprintf(c.App.Writer, "emitted %d events in %v, delivered in %v\n", count, emitted, total)
	fmt.Fprintf(c.App.Writer, "flushes: size=%d timer=%d shutdown=%d events=%d appender_failures=%d\n",
		s.Dispatch.SizeFlushes, s.Dispatch.TimerFlushes, s.Dispatch.ShutdownFlushes,
		s.Dispatch.Flushed, s.Dispatch.AppenderFailures)
	fmt.Fprintf(c.App.Writer, "pool: submitted=%d blocked=%d dropped=%d discarded=%d\n",
		s.Pool.SubmittedTotal, s.Pool.BlockedTotal, totalDropped(s.Pool.DroppedTotal), s.Pool.DiscardedTotal)
	for name, a := range s.Appenders {
		fmt.Fprintf(c.App.Writer, "appender %s: processed=%d filtered=%d failed=%d\n", name, a.Processed, a.Filtered, a.Failed)
	}

	return multierr.Combine(runErr, shutdownErr)
}

func totalDropped(dropped map[core.Level]uint64) uint64 {
	var n uint64
	for _, v := range dropped {
		n += v
	}
	return n
}
