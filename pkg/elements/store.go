package elements

import (
	"fmt"
	"sort"

	"tableflip.dev/easel/pkg/cell"
)

// Store is the two-level ordered container behind the coordinator: sections
// of node handles. A Store is not safe for concurrent use; the editing
// instance belongs to the pipeline goroutine and published copies are never
// mutated again.
//
// Bulk operations encapsulate the ordering contract: inserts are applied in
// ascending path order and deletes in descending path order internally, so
// callers can pass paths in any order without corrupting indices.
type Store struct {
	sections [][]*cell.Node
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NumberOfSections returns the section count.
func (s *Store) NumberOfSections() int {
	return len(s.sections)
}

// NumberOfItems returns the item count of one section.
func (s *Store) NumberOfItems(section int) int {
	if section < 0 || section >= len(s.sections) {
		panic(fmt.Sprintf("easel: section %d out of range (have %d)", section, len(s.sections)))
	}
	return len(s.sections[section])
}

// TotalItems returns the item count across every section.
func (s *Store) TotalItems() int {
	total := 0
	for _, sec := range s.sections {
		total += len(sec)
	}
	return total
}

// NodeAt returns the node at the path. The path must be in range.
func (s *Store) NodeAt(p cell.Path) *cell.Node {
	if p.Section < 0 || p.Section >= len(s.sections) {
		panic(fmt.Sprintf("easel: path %v section out of range (have %d)", p, len(s.sections)))
	}
	sec := s.sections[p.Section]
	if p.Item < 0 || p.Item >= len(sec) {
		panic(fmt.Sprintf("easel: path %v item out of range (section has %d)", p, len(sec)))
	}
	return sec[p.Item]
}

// NodesAt returns the nodes at the given paths, visited in ascending path
// order. The input is not mutated.
func (s *Store) NodesAt(paths []cell.Path) []*cell.Node {
	if len(paths) == 0 {
		return nil
	}
	sorted := append([]cell.Path(nil), paths...)
	cell.SortPaths(sorted)
	nodes := make([]*cell.Node, 0, len(sorted))
	for _, p := range sorted {
		nodes = append(nodes, s.NodeAt(p))
	}
	return nodes
}

// Items returns one section's node slice. The slice is the store's own
// backing array: treat it as read-only outside the editing pipeline.
func (s *Store) Items(section int) []*cell.Node {
	if section < 0 || section >= len(s.sections) {
		panic(fmt.Sprintf("easel: section %d out of range (have %d)", section, len(s.sections)))
	}
	return s.sections[section]
}

// PathFor locates a node by handle identity. Linear across every section;
// meant for introspection, not hot paths.
func (s *Store) PathFor(n *cell.Node) (cell.Path, bool) {
	if n == nil {
		return cell.Path{}, false
	}
	for si, sec := range s.sections {
		for ii, candidate := range sec {
			if candidate == n {
				return cell.Path{Section: si, Item: ii}, true
			}
		}
	}
	return cell.Path{}, false
}

// Paths enumerates every occupied path in ascending order.
func (s *Store) Paths() []cell.Path {
	out := make([]cell.Path, 0, s.TotalItems())
	for si, sec := range s.sections {
		for ii := range sec {
			out = append(out, cell.Path{Section: si, Item: ii})
		}
	}
	return out
}

// AppendSection adds an empty section at the end.
func (s *Store) AppendSection() {
	s.sections = append(s.sections, nil)
}

// InsertSections inserts the given section slices at the set's indices,
// ascending. len(sections) must equal the set's length. Empty input is a
// no-op.
func (s *Store) InsertSections(sections [][]*cell.Node, set cell.IndexSet) {
	if len(set) == 0 {
		return
	}
	if len(sections) != len(set) {
		panic(fmt.Sprintf("easel: insert sections: %d sections for %d indices", len(sections), len(set)))
	}
	for i, index := range set.Ascending() {
		if index < 0 || index > len(s.sections) {
			panic(fmt.Sprintf("easel: insert section %d out of range (have %d)", index, len(s.sections)))
		}
		s.sections = append(s.sections, nil)
		copy(s.sections[index+1:], s.sections[index:])
		s.sections[index] = sections[i]
	}
}

// DeleteSections removes the sections at the set's indices, descending.
// Empty input is a no-op.
func (s *Store) DeleteSections(set cell.IndexSet) {
	if len(set) == 0 {
		return
	}
	for _, index := range set.Descending() {
		if index < 0 || index >= len(s.sections) {
			panic(fmt.Sprintf("easel: delete section %d out of range (have %d)", index, len(s.sections)))
		}
		s.sections = append(s.sections[:index], s.sections[index+1:]...)
	}
}

// InsertItems places nodes at their paths, applied in ascending path order.
// nodes[i] pairs with paths[i]; the inputs are not mutated. Empty input is a
// no-op.
func (s *Store) InsertItems(nodes []*cell.Node, paths []cell.Path) {
	if len(paths) == 0 {
		return
	}
	if len(nodes) != len(paths) {
		panic(fmt.Sprintf("easel: insert items: %d nodes for %d paths", len(nodes), len(paths)))
	}
	order := pairOrder(paths, false)
	for _, i := range order {
		p := paths[i]
		if p.Section < 0 || p.Section >= len(s.sections) {
			panic(fmt.Sprintf("easel: insert at %v: section out of range (have %d)", p, len(s.sections)))
		}
		sec := s.sections[p.Section]
		if p.Item < 0 || p.Item > len(sec) {
			panic(fmt.Sprintf("easel: insert at %v: item out of range (section has %d)", p, len(sec)))
		}
		sec = append(sec, nil)
		copy(sec[p.Item+1:], sec[p.Item:])
		sec[p.Item] = nodes[i]
		s.sections[p.Section] = sec
	}
}

// DeleteItems removes the nodes at the given paths, applied in descending
// path order. The input is not mutated. Empty input is a no-op. Returns the
// removed nodes in the visited (descending) order.
func (s *Store) DeleteItems(paths []cell.Path) []*cell.Node {
	if len(paths) == 0 {
		return nil
	}
	order := pairOrder(paths, true)
	removed := make([]*cell.Node, 0, len(paths))
	for _, i := range order {
		p := paths[i]
		if p.Section < 0 || p.Section >= len(s.sections) {
			panic(fmt.Sprintf("easel: delete at %v: section out of range (have %d)", p, len(s.sections)))
		}
		sec := s.sections[p.Section]
		if p.Item < 0 || p.Item >= len(sec) {
			panic(fmt.Sprintf("easel: delete at %v: item out of range (section has %d)", p, len(sec)))
		}
		removed = append(removed, sec[p.Item])
		s.sections[p.Section] = append(sec[:p.Item], sec[p.Item+1:]...)
	}
	return removed
}

// Copy returns a store structurally independent of the receiver down to the
// item-slice level. Node handles are shared: later mutation of either copy's
// slices never shows through, while the handles keep their identity across
// the editing/completed divide.
func (s *Store) Copy() *Store {
	dup := &Store{sections: make([][]*cell.Node, len(s.sections))}
	for i, sec := range s.sections {
		if sec == nil {
			continue
		}
		dup.sections[i] = append([]*cell.Node(nil), sec...)
	}
	return dup
}

// pairOrder returns indices into paths sorted ascending or descending by
// path, leaving the caller's slice untouched.
func pairOrder(paths []cell.Path, descending bool) []int {
	order := make([]int, len(paths))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if descending {
			return paths[order[b]].Before(paths[order[a]])
		}
		return paths[order[a]].Before(paths[order[b]])
	})
	return order
}
