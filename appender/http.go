package appender

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

// KindHTTP is the registry tag of the HTTP appender
const KindHTTP = "http"

// HTTPConfig holds configuration for the HTTP appender
type HTTPConfig struct {
	// URL receives the POST requests
	URL string `yaml:"url"`
	// Authorization is sent verbatim as the Authorization header when set
	Authorization string `yaml:"authorization"`
	// Headers are added to every request
	Headers map[string]string `yaml:"headers"`
	// Batch posts one JSON array per batch instead of one object per event
	Batch bool `yaml:"batch"`
	// Timeout bounds a single attempt (default: 10s)
	Timeout time.Duration `yaml:"timeout"`
	// RetryMax is the number of retries after a failed attempt (default: 0)
	RetryMax int `yaml:"retry_max"`
	// RetryWaitMin is the minimum backoff between attempts (default: 100ms)
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	// RetryWaitMax is the maximum backoff between attempts (default: 2s)
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`
	// Diagnostics receives the retry client's own log output
	Diagnostics *zap.Logger `yaml:"-"`
}

// HTTP posts events as JSON records to a collector endpoint.
type HTTP struct {
	*Base
	url           string
	authorization string
	headers       map[string]string
	batch         bool
	client        *retryablehttp.Client
}

// NewHTTP creates an HTTP appender
func NewHTTP(name string, cfg HTTPConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, errors.New("url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 100 * time.Millisecond
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = 2 * time.Second
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.Logger = retryLogger{cfg.Diagnostics.Sugar().With("appender", name)}

	return &HTTP{
		Base:          NewBase(name),
		url:           cfg.URL,
		authorization: cfg.Authorization,
		headers:       cfg.Headers,
		batch:         cfg.Batch,
		client:        client,
	}, nil
}

func newHTTPFromParams(p Params) (Appender, error) {
	cfg := HTTPConfig{Diagnostics: p.diagnostics()}
	if err := p.decode(&cfg); err != nil {
		return nil, err
	}
	return NewHTTP(p.Name, cfg)
}

// Append posts a single event as one JSON object
func (h *HTTP) Append(e *core.Event, l *layout.Layout) error {
	if !h.Accept(e) {
		return nil
	}
	err := h.post(NewRecord(e, l))
	h.Record(1, err)
	return errors.Wrapf(err, "http appender %q", h.Name())
}

// AppendBatch posts the accepted events, either one request per event or a
// single JSON array in batch mode
func (h *HTTP) AppendBatch(events []*core.Event, l *layout.Layout) error {
	if !h.batch {
		return AppendEach(h, events, l)
	}

	records := make([]Record, 0, len(events))
	for _, e := range events {
		if h.Accept(e) {
			records = append(records, NewRecord(e, l))
		}
	}
	if len(records) == 0 {
		return nil
	}
	err := h.post(records)
	h.Record(len(records), err)
	return errors.Wrapf(err, "http appender %q", h.Name())
}

func (h *HTTP) post(payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal records")
	}

	req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodPost, h.url, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if h.authorization != "" {
		req.Header.Set("Authorization", h.authorization)
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post records")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("collector responded %s", resp.Status)
	}
	return nil
}

// Close releases idle connections
func (h *HTTP) Close() error {
	h.client.HTTPClient.CloseIdleConnections()
	return nil
}

// retryLogger adapts a sugared zap logger to retryablehttp.LeveledLogger
type retryLogger struct {
	l *zap.SugaredLogger
}

func (r retryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.l.Errorw(msg, keysAndValues...)
}

func (r retryLogger) Info(msg string, keysAndValues ...interface{}) {
	r.l.Infow(msg, keysAndValues...)
}

func (r retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.l.Debugw(msg, keysAndValues...)
}

func (r retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.l.Warnw(msg, keysAndValues...)
}
