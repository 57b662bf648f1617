package model

import "sort"

// Filters is a set of named boolean toggles. A name mapped to false is
// present but switched off.
type Filters map[string]bool

func NewFilters(names ...string) Filters {
	f := make(Filters, len(names))
	for _, name := range names {
		if name != "" {
			f[name] = true
		}
	}
	return f
}

func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f Filters) Has(name string) bool {
	return f[name]
}

// Enabled returns the sorted names of every filter switched on.
func (f Filters) Enabled() []string {
	names := make([]string, 0, len(f))
	for k, v := range f {
		if v {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
