package corefx

import (
	"strings"
	"sync/atomic"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

// instanceMap is the Component Instance Map of spec §3: a lock-free-read,
// atomic-swap-on-write mapping from module code to instance. Reads clone the
// stored pointer; reload replaces it wholesale, never mutates it in place.
type instanceMap[T any] struct {
	p atomic.Pointer[map[string]T]
}

func newInstanceMap[T any]() *instanceMap[T] {
	m := &instanceMap[T]{}
	empty := map[string]T{}
	m.p.Store(&empty)
	return m
}

func (m *instanceMap[T]) get(code string) (T, bool) {
	mp := *m.p.Load()
	v, ok := mp[code]
	return v, ok
}

// byModuleOrDefault resolves code, lower-cased, falling back to "" (spec
// §4.1 "<family>_by_module_or_default").
func (m *instanceMap[T]) byModuleOrDefault(code string) (T, bool) {
	if v, ok := m.get(strings.ToLower(code)); ok {
		return v, true
	}
	return m.get("")
}

func (m *instanceMap[T]) store(mp map[string]T) {
	m.p.Store(&mp)
}

func (m *instanceMap[T]) all() map[string]T {
	return *m.p.Load()
}

// buildFamily constructs a module-code -> instance map from a FamilyConfig
// by calling initBy on the default block and every named module (spec §9
// "a generic Map<code, Instance> that implements 'construct from whole
// framework-config' by iterating default + modules").
func buildFamily[C any, T any](fam fwconfig.FamilyConfig[C], initBy func(C) (T, error)) (map[string]T, error) {
	out := make(map[string]T, len(fam.Modules)+1)
	def, err := initBy(fam.Default)
	if err != nil {
		return nil, err
	}
	out[""] = def
	for code, cfg := range fam.Modules {
		inst, err := initBy(cfg)
		if err != nil {
			return nil, err
		}
		out[strings.ToLower(code)] = inst
	}
	return out, nil
}
