package cell

import "sort"

// Path addresses a node as a (section, item) pair. A path is only meaningful
// at the instant an operation uses it; stores reorder paths internally so that
// sequential application never indexes against shifted positions.
type Path struct {
	Section int
	Item    int
}

// Before reports section-major ordering.
func (p Path) Before(q Path) bool {
	if p.Section != q.Section {
		return p.Section < q.Section
	}
	return p.Item < q.Item
}

// SortPaths orders paths ascending, section-major.
func SortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Before(paths[j]) })
}

// SortPathsDescending orders paths descending, section-major.
func SortPathsDescending(paths []Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[j].Before(paths[i]) })
}

// IndexSet is a sorted, duplicate-free set of section indices.
type IndexSet []int

// NewIndexSet builds an IndexSet from arbitrary indices.
func NewIndexSet(indices ...int) IndexSet {
	if len(indices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(indices))
	out := make(IndexSet, 0, len(indices))
	for _, idx := range indices {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Contains reports membership.
func (s IndexSet) Contains(index int) bool {
	i := sort.SearchInts(s, index)
	return i < len(s) && s[i] == index
}

// Union returns a set holding every index in s or t.
func (s IndexSet) Union(t IndexSet) IndexSet {
	if len(t) == 0 {
		return s
	}
	if len(s) == 0 {
		return t
	}
	return NewIndexSet(append(append([]int{}, s...), t...)...)
}

// Without returns s with every index in t removed.
func (s IndexSet) Without(t IndexSet) IndexSet {
	if len(s) == 0 || len(t) == 0 {
		return s
	}
	out := make(IndexSet, 0, len(s))
	for _, idx := range s {
		if !t.Contains(idx) {
			out = append(out, idx)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Ascending returns the indices smallest-first.
func (s IndexSet) Ascending() []int {
	return append([]int(nil), s...)
}

// Descending returns the indices largest-first.
func (s IndexSet) Descending() []int {
	out := make([]int, len(s))
	for i, idx := range s {
		out[len(s)-1-i] = idx
	}
	return out
}
