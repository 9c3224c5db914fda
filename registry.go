package cacheable

import (
	"errors"
	"sort"
	"sync"
)

// Registry records which operations of one type are cacheable. Instance and
// type scope are separate tables; the same name may appear in both.
// Registries are never shared between types, so embedding a type does not
// inherit its registrations.
type Registry struct {
	typ Type

	mu       sync.RWMutex
	instance map[string]Policy
	static   map[string]Policy
}

func newRegistry(t Type) *Registry {
	return &Registry{
		typ:      t,
		instance: make(map[string]Policy),
		static:   make(map[string]Policy),
	}
}

// Registry returns the registry for t, creating it on first use.
func (c *Cache) Registry(t Type) *Registry {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	r, ok := c.registries[t.name]
	if !ok {
		r = newRegistry(t)
		c.registries[t.name] = r
	}
	return r
}

func (r *Registry) Type() Type { return r.typ }

// Register marks names as cacheable instance operations. Registering a name
// again replaces its policy.
func (r *Registry) Register(p Policy, names ...string) error {
	return r.register(r.instance, p, names)
}

// RegisterStatic marks names as cacheable type-scope operations.
func (r *Registry) RegisterStatic(p Policy, names ...string) error {
	return r.register(r.static, p, names)
}

// RegisterAll registers every policy in ps at instance scope, e.g. the
// output of DecodePolicies. Nothing is registered if any entry is invalid.
func (r *Registry) RegisterAll(ps map[string]Policy) error {
	for name, p := range ps {
		if err := checkEntry(p, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, p := range ps {
		r.instance[name] = p
	}
	return nil
}

func (r *Registry) register(tbl map[string]Policy, p Policy, names []string) error {
	if len(names) == 0 {
		return &ConfigError{Op: "register " + r.typ.name, Err: errors.New("no operation names")}
	}
	for _, n := range names {
		if err := checkEntry(p, n); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		tbl[n] = p
	}
	return nil
}

func checkEntry(p Policy, name string) error {
	if name == "" {
		return &ConfigError{Op: "register", Field: "name", Err: errors.New("empty operation name")}
	}
	if err := p.Validate(); err != nil {
		return &ConfigError{Op: "register", Field: name, Err: err}
	}
	return nil
}

func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Policy(name)
	return ok
}

func (r *Registry) IsRegisteredStatic(name string) bool {
	_, ok := r.StaticPolicy(name)
	return ok
}

func (r *Registry) Policy(name string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instance[name]
	return p, ok
}

func (r *Registry) StaticPolicy(name string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.static[name]
	return p, ok
}

// Names returns the registered instance operations, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.instance)
}

// StaticNames returns the registered type-scope operations, sorted.
func (r *Registry) StaticNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.static)
}

func sortedNames(m map[string]Policy) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
