package avm

import "github.com/dolthub/swiss"

// libFuncRegistry is a single mapping replacing the source's two parallel
// arrays (namedLibFuncs[]/library_func_t_addresses[]) kept in sync by hand:
// a name→callable binding built once at VM construction time. It keeps no
// order; in particular not the image's NamedLibFuncs order. Lookup by name
// at call time (spec §4.7, §6: "the loader enumerates namedLibFuncs[]...
// calls by name perform a linear search") is served here in O(1) instead of
// linearly, via the same swiss-table map the teacher uses for its own Map
// value (lang/machine/map.go).
type libFuncRegistry struct {
	m *swiss.Map[string, Builtin]
}

func newLibFuncRegistry() *libFuncRegistry {
	return &libFuncRegistry{m: swiss.NewMap[string, Builtin](16)}
}

func (r *libFuncRegistry) register(name string, fn Builtin) {
	r.m.Put(name, fn)
}

func (r *libFuncRegistry) lookup(name string) (Builtin, bool) {
	return r.m.Get(name)
}
