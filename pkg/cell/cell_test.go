package cell

import (
	"context"
	"errors"
	"testing"
)

func TestConstraintClamp(t *testing.T) {
	c := Range(Size{Width: 10, Height: 1}, Size{Width: 40, Height: 8})
	got := c.Clamp(Size{Width: 80, Height: 0})
	if got.Width != 40 || got.Height != 1 {
		t.Fatalf("expected clamp to 40x1, got %dx%d", got.Width, got.Height)
	}
}

func TestConstraintNormalizedDegradesMalformedBounds(t *testing.T) {
	c := Constraint{
		Min: Size{Width: 50, Height: -3},
		Max: Size{Width: 20, Height: 4},
	}
	got := c.Clamp(Size{Width: 30, Height: 2})
	if got.Width != 20 {
		t.Fatalf("min above max should collapse to max, got width %d", got.Width)
	}
	if got.Height != 2 {
		t.Fatalf("negative min should zero out, got height %d", got.Height)
	}
}

func TestWidthConstraintLeavesHeightUnbounded(t *testing.T) {
	c := Width(24)
	got := c.Clamp(Size{Width: 24, Height: 100000})
	if got.Height != 100000 {
		t.Fatalf("height should be unbounded, got %d", got.Height)
	}
	if got.Width != 24 {
		t.Fatalf("width should pin to 24, got %d", got.Width)
	}
}

func TestSortPathsDescending(t *testing.T) {
	paths := []Path{{1, 0}, {0, 3}, {1, 2}, {0, 0}}
	SortPathsDescending(paths)
	want := []Path{{1, 2}, {1, 0}, {0, 3}, {0, 0}}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], paths[i])
		}
	}
}

func TestIndexSetDedupesAndSorts(t *testing.T) {
	s := NewIndexSet(4, 1, 4, 0, 1)
	if len(s) != 3 {
		t.Fatalf("expected 3 unique indices, got %d", len(s))
	}
	asc := s.Ascending()
	if asc[0] != 0 || asc[1] != 1 || asc[2] != 4 {
		t.Fatalf("unexpected ascending order: %v", asc)
	}
	desc := s.Descending()
	if desc[0] != 4 || desc[2] != 0 {
		t.Fatalf("unexpected descending order: %v", desc)
	}
	if !s.Contains(1) || s.Contains(2) {
		t.Fatalf("membership lookup broken: %v", s)
	}
}

type fixedContent struct {
	size Size
	err  error
}

func (f fixedContent) Measure(ctx context.Context, c Constraint) (Size, error) {
	if f.err != nil {
		return Size{}, f.err
	}
	return f.size, nil
}

func TestNodeMeasureClampsAndRecords(t *testing.T) {
	n := NewNode(fixedContent{size: Size{Width: 100, Height: 3}})
	got, err := n.Measure(context.Background(), Width(40))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if got.Width != 40 || got.Height != 3 {
		t.Fatalf("expected 40x3, got %dx%d", got.Width, got.Height)
	}
	if !n.Measured() {
		t.Fatal("node should report measured")
	}
	if n.Size() != got {
		t.Fatalf("stored size %v differs from returned %v", n.Size(), got)
	}
}

type panickyContent struct{}

func (panickyContent) Measure(ctx context.Context, c Constraint) (Size, error) {
	panic("payload exploded")
}

func TestNodeMeasurePanicBecomesError(t *testing.T) {
	n := NewNode(panickyContent{})
	got, err := n.Measure(context.Background(), Width(30))
	if err == nil {
		t.Fatal("expected the panic to surface as an error")
	}
	if got.Height != 0 || got.Width != 30 {
		t.Fatalf("panicked measurement should clamp to zero, got %dx%d", got.Width, got.Height)
	}
	if !n.Measured() {
		t.Fatal("panicked node still counts as measured")
	}
}

func TestNodeMeasureFailureDegradesToZero(t *testing.T) {
	boom := errors.New("bad payload")
	n := NewNode(fixedContent{err: boom})
	got, err := n.Measure(context.Background(), Width(40))
	if !errors.Is(err, boom) {
		t.Fatalf("expected measurement error surfaced, got %v", err)
	}
	if got.Height != 0 {
		t.Fatalf("failed measurement should degrade to zero height, got %d", got.Height)
	}
	if got.Width != 40 {
		t.Fatalf("clamp should still honor the width floor, got %d", got.Width)
	}
	if !n.Measured() {
		t.Fatal("failed node still counts as measured")
	}
}
