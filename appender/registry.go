package appender

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrUnknownKind is returned by Registry.New for an unregistered kind.
var ErrUnknownKind = errors.New("unknown appender kind")

// Params is what a Provider receives when building an appender.
type Params struct {
	// Name is the registered name of the new appender
	Name string
	// Decode unmarshals the kind-specific options into v. Nil means the
	// configuration carried no options.
	Decode func(v any) error
	// Diagnostics receives the appender's own failure reports
	Diagnostics *zap.Logger
}

// decode fills v from p.Decode, leaving v untouched when there are no options.
func (p Params) decode(v any) error {
	if p.Decode == nil {
		return nil
	}
	return errors.Wrapf(p.Decode(v), "decode options for appender %q", p.Name)
}

func (p Params) diagnostics() *zap.Logger {
	if p.Diagnostics == nil {
		return zap.NewNop()
	}
	return p.Diagnostics
}

// Provider builds an appender of one kind
type Provider func(p Params) (Appender, error)

// Registry maps a kind tag such as "console" or "file" to its Provider.
// It is populated at startup; lookups are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	r.Register(KindConsole, newConsoleFromParams)
	r.Register(KindFile, newFileFromParams)
	r.Register(KindDatabase, newDatabaseFromParams)
	r.Register(KindHTTP, newHTTPFromParams)
	r.Register(KindMemory, newMemoryFromParams)
	return r
}

// Register adds or replaces the provider for kind
func (r *Registry) Register(kind string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[kind] = p
}

// Has reports whether kind is registered
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[kind]
	return ok
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds an appender of the given kind
func (r *Registry) New(kind string, p Params) (Appender, error) {
	r.mu.RLock()
	provider, ok := r.providers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q for appender %q", kind, p.Name)
	}
	a, err := provider(p)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s appender %q", kind, p.Name)
	}
	return a, nil
}
