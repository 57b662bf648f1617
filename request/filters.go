package request

import (
	"strings"

	"github.com/to404hanga/online_judge_compiler/model"
)

// FilterQuery holds the three legacy filter parameters, each a
// comma-separated list.
type FilterQuery struct {
	Filters       string
	AddFilters    string
	RemoveFilters string
}

// Resolve computes the filters for a legacy request. An explicit list
// replaces defaults entirely and is used as given. Otherwise additions and
// then removals are applied over a copy of defaults.
func (q FilterQuery) Resolve(defaults model.Filters) model.Filters {
	if q.Filters != "" {
		return model.NewFilters(splitList(q.Filters)...)
	}
	filters := defaults.Clone()
	for _, name := range splitList(q.AddFilters) {
		filters[name] = true
	}
	for _, name := range splitList(q.RemoveFilters) {
		filters[name] = false
	}
	return filters
}

func splitList(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
