package breaker

import (
	"sort"
	"sync"

	"kwenda/internal/logger"
)

// Registry owns one breaker per named dependency for the life of the process.
// It is built once at startup and injected where calls are made.
type Registry struct {
	defaults  Options
	overrides map[string]Options
	log       logger.Logger
	onChange  func(name string, from, to State)

	mu       sync.Mutex
	breakers map[string]*Breaker
}

func NewRegistry(defaults Options, overrides map[string]Options, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop{}
	}
	return &Registry{
		defaults:  defaults.withDefaults(DefaultOptions()),
		overrides: overrides,
		log:       log,
		breakers:  make(map[string]*Breaker),
	}
}

// OnStateChange installs a hook called on every transition of breakers
// created after this call.
func (r *Registry) OnStateChange(fn func(name string, from, to State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	opts := r.defaults
	if o, ok := r.overrides[name]; ok {
		opts = o.withDefaults(r.defaults)
	}
	b := New(name, opts, r.log)
	b.onChange = r.onChange
	r.breakers[name] = b
	return b
}

// Snapshots lists every known breaker sorted by name.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	list := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		list = append(list, b)
	}
	r.mu.Unlock()

	out := make([]Snapshot, 0, len(list))
	for _, b := range list {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset closes the named breaker. It reports false for unknown names.
func (r *Registry) Reset(name string) bool {
	r.mu.Lock()
	b, ok := r.breakers[name]
	r.mu.Unlock()
	if !ok {
		return false
	}
	b.Reset()
	return true
}
