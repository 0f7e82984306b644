package projection

import "strings"

// FilterSet is the gallery's category selection. Categories missing from the
// map are not selected.
type FilterSet map[string]bool

// NewFilterSet seeds every category as not selected.
func NewFilterSet(categories []string) FilterSet {
	fs := make(FilterSet, len(categories))
	for _, c := range categories {
		fs[c] = false
	}
	return fs
}

// Select marks names as selected. Names that are not known categories are
// ignored; matching is case-insensitive.
func (fs FilterSet) Select(names ...string) FilterSet {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := fs[name]; ok {
			fs[name] = true
			continue
		}
		for c := range fs {
			if strings.EqualFold(c, name) {
				fs[c] = true
				break
			}
		}
	}
	return fs
}

// Toggle flips one category.
func (fs FilterSet) Toggle(name string) FilterSet {
	if _, ok := fs[name]; ok {
		fs[name] = !fs[name]
	}
	return fs
}

// Active returns the selected categories in the order of categories.
func (fs FilterSet) Active(categories []string) []string {
	var out []string
	for _, c := range categories {
		if fs[c] {
			out = append(out, c)
		}
	}
	return out
}

// Effective is the set a gallery fetch walks: the active categories, or all
// of them when nothing is selected.
func (fs FilterSet) Effective(categories []string) []string {
	if active := fs.Active(categories); len(active) > 0 {
		return active
	}
	return append([]string(nil), categories...)
}
