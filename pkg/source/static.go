package source

import (
	"fmt"
	"sync"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/layout"
)

// Item is one row a source vends: the measurable payload and, optionally, a
// per-item constraint. A zero constraint means "use the source default".
type Item struct {
	Content    cell.Content
	Constraint cell.Constraint
}

// TextItems builds items from plain bodies, one per row.
func TextItems(bodies ...string) []Item {
	items := make([]Item, 0, len(bodies))
	for _, body := range bodies {
		items = append(items, Item{Content: layout.Text{Body: body}})
	}
	return items
}

// Static is an in-memory data source for tests, benchmarks, and generated
// demo feeds. Its mutators lock internally; the coordinator's enumeration
// brackets it through Lock/Unlock, so the accessor methods read directly.
type Static struct {
	mu       sync.Mutex
	def      cell.Constraint
	sections [][]Item
}

// NewStatic returns a source over the given sections.
func NewStatic(sections ...[]Item) *Static {
	return &Static{
		def:      cell.Width(80),
		sections: sections,
	}
}

// SetDefaultConstraint replaces the constraint used for items that carry
// none, typically on terminal resize.
func (s *Static) SetDefaultConstraint(c cell.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = c
}

// AppendSection adds a section at the end and returns its index.
func (s *Static) AppendSection(items ...Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = append(s.sections, items)
	return len(s.sections) - 1
}

// RemoveSection deletes the section at the index.
func (s *Static) RemoveSection(section int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkSection(section)
	s.sections = append(s.sections[:section], s.sections[section+1:]...)
}

// InsertItem places an item so that it ends up at the given path.
func (s *Static) InsertItem(at cell.Path, it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkSection(at.Section)
	sec := s.sections[at.Section]
	if at.Item < 0 || at.Item > len(sec) {
		panic(fmt.Sprintf("easel: static insert at %v out of range (section has %d)", at, len(sec)))
	}
	sec = append(sec, Item{})
	copy(sec[at.Item+1:], sec[at.Item:])
	sec[at.Item] = it
	s.sections[at.Section] = sec
}

// RemoveItem deletes the item at the path.
func (s *Static) RemoveItem(at cell.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkSection(at.Section)
	sec := s.sections[at.Section]
	if at.Item < 0 || at.Item >= len(sec) {
		panic(fmt.Sprintf("easel: static remove at %v out of range (section has %d)", at, len(sec)))
	}
	s.sections[at.Section] = append(sec[:at.Item], sec[at.Item+1:]...)
}

// ReplaceItem swaps the item at the path.
func (s *Static) ReplaceItem(at cell.Path, it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkSection(at.Section)
	sec := s.sections[at.Section]
	if at.Item < 0 || at.Item >= len(sec) {
		panic(fmt.Sprintf("easel: static replace at %v out of range (section has %d)", at, len(sec)))
	}
	sec[at.Item] = it
}

func (s *Static) checkSection(section int) {
	if section < 0 || section >= len(s.sections) {
		panic(fmt.Sprintf("easel: static section %d out of range (have %d)", section, len(s.sections)))
	}
}

// Lock takes the source's lock for an enumeration bracket.
func (s *Static) Lock() { s.mu.Lock() }

// Unlock releases the enumeration bracket.
func (s *Static) Unlock() { s.mu.Unlock() }

// NumberOfSections reports the section count. Call within Lock/Unlock.
func (s *Static) NumberOfSections() int {
	return len(s.sections)
}

// NumberOfItems reports one section's row count. Call within Lock/Unlock.
func (s *Static) NumberOfItems(section int) int {
	s.checkSection(section)
	return len(s.sections[section])
}

// Content returns the payload at the path. Call within Lock/Unlock.
func (s *Static) Content(at cell.Path) cell.Content {
	s.checkSection(at.Section)
	return s.sections[at.Section][at.Item].Content
}

// Constraint returns the sizing bounds at the path, falling back to the
// source default for items that carry none. Call within Lock/Unlock.
func (s *Static) Constraint(at cell.Path) cell.Constraint {
	s.checkSection(at.Section)
	c := s.sections[at.Section][at.Item].Constraint
	if c == (cell.Constraint{}) {
		return s.def
	}
	return c
}
