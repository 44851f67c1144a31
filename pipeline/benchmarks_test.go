package pipeline

import (
	"context"
	"io"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/batchlog/appender"
)

func BenchmarkPipeline_Info(b *testing.B) {
	console, _ := appender.NewConsole("discard", appender.ConsoleConfig{Writer: io.Discard})
	p, err := New(Config{
		Appenders:   []Registration{{Appender: console}},
		Diagnostics: zap.NewNop(),
	})
	if err != nil {
		b.Fatal(err)
	}
	log := p.Logger("bench")

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			log.Info("benchmark message")
		}
	})
	b.StopTimer()
	_ = p.Shutdown(context.Background())
}

func BenchmarkPipeline_Infof(b *testing.B) {
	console, _ := appender.NewConsole("discard", appender.ConsoleConfig{Writer: io.Discard})
	p, err := New(Config{
		Appenders:   []Registration{{Appender: console}},
		Diagnostics: zap.NewNop(),
	})
	if err != nil {
		b.Fatal(err)
	}
	log := p.Logger("bench")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Infof("request %d served in %dms", i, 12)
	}
	b.StopTimer()
	_ = p.Shutdown(context.Background())
}

// BenchmarkZap_Info is the synchronous baseline the pipeline is compared to
func BenchmarkZap_Info(b *testing.B) {
	log := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(io.Discard),
		zapcore.InfoLevel,
	))

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			log.Info("benchmark message")
		}
	})
}
