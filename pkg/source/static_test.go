package source

import (
	"strings"
	"testing"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/layout"
)

func staticBodies(s *Static, section int) string {
	var bodies []string
	for i := 0; i < s.NumberOfItems(section); i++ {
		text := s.Content(cell.Path{Section: section, Item: i}).(layout.Text)
		bodies = append(bodies, text.Body)
	}
	return strings.Join(bodies, " ")
}

func TestStaticVendsSeededContent(t *testing.T) {
	s := NewStatic(TextItems("alpha", "beta"))

	s.Lock()
	defer s.Unlock()
	if n := s.NumberOfSections(); n != 1 {
		t.Fatalf("expected 1 section, got %d", n)
	}
	if n := s.NumberOfItems(0); n != 2 {
		t.Fatalf("expected 2 items, got %d", n)
	}
	text, ok := s.Content(cell.Path{Item: 1}).(layout.Text)
	if !ok || text.Body != "beta" {
		t.Fatalf("unexpected content: %#v", s.Content(cell.Path{Item: 1}))
	}
	if got := s.Constraint(cell.Path{}); got != cell.Width(80) {
		t.Fatalf("expected default constraint, got %#v", got)
	}
}

func TestStaticPerItemConstraintOverridesDefault(t *testing.T) {
	s := NewStatic([]Item{{Content: layout.Text{Body: "narrow"}, Constraint: cell.Width(20)}})
	s.SetDefaultConstraint(cell.Width(40))

	s.Lock()
	defer s.Unlock()
	if got := s.Constraint(cell.Path{}); got != cell.Width(20) {
		t.Fatalf("expected the item constraint, got %#v", got)
	}
}

func TestStaticMutatorsTargetPaths(t *testing.T) {
	s := NewStatic(TextItems("a", "c"))

	s.InsertItem(cell.Path{Item: 1}, Item{Content: layout.Text{Body: "b"}})
	s.ReplaceItem(cell.Path{Item: 2}, Item{Content: layout.Text{Body: "C"}})
	s.RemoveItem(cell.Path{Item: 0})
	if idx := s.AppendSection(TextItems("x")...); idx != 1 {
		t.Fatalf("expected new section at index 1, got %d", idx)
	}

	s.Lock()
	defer s.Unlock()
	if got := staticBodies(s, 0); got != "b C" {
		t.Fatalf("expected 'b C', got %q", got)
	}
	if got := staticBodies(s, 1); got != "x" {
		t.Fatalf("expected 'x', got %q", got)
	}
}

func TestStaticOutOfRangePanics(t *testing.T) {
	s := NewStatic(TextItems("a"))
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range remove")
		}
	}()
	s.RemoveItem(cell.Path{Item: 5})
}
