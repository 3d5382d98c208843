package layout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tableflip.dev/easel/pkg/cell"
)

type gauge struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (g *gauge) enter() {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()
}

func (g *gauge) exit() {
	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
}

func (g *gauge) high() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

type sizedContent struct {
	size  cell.Size
	err   error
	boom  bool
	delay time.Duration
	calls *atomic.Int32
	track *gauge
}

func (f sizedContent) Measure(ctx context.Context, c cell.Constraint) (cell.Size, error) {
	if f.track != nil {
		f.track.enter()
		defer f.track.exit()
	}
	if f.calls != nil {
		f.calls.Add(1)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.boom {
		panic("synthetic measurement panic")
	}
	if f.err != nil {
		return cell.Size{}, f.err
	}
	return f.size, nil
}

func looseWidth(w int) cell.Constraint {
	return cell.Range(cell.Size{}, cell.Size{Width: w, Height: cell.Unbounded})
}

func TestTextMeasureWrapsStyledBody(t *testing.T) {
	body := "\x1b[31malpha beta gamma delta\x1b[0m"
	got, err := Text{Body: body}.Measure(context.Background(), cell.Width(12))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if got.Height != 2 {
		t.Fatalf("expected 2 wrapped lines, got height %d", got.Height)
	}
	if got.Width != 12 {
		t.Fatalf("expected the exact-width constraint to pin width to 12, got %d", got.Width)
	}
}

func TestTextMeasurePrefixReservesGutter(t *testing.T) {
	got, err := Text{Body: "alpha beta gamma delta", Prefix: "• "}.Measure(context.Background(), looseWidth(12))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	// Gutter of 2 leaves 10 columns: "alpha beta" / "gamma" / "delta".
	if got.Height != 3 {
		t.Fatalf("expected 3 lines with the gutter, got %d", got.Height)
	}
	if got.Width != 12 {
		t.Fatalf("expected widest line plus gutter = 12, got %d", got.Width)
	}
}

func TestTextMeasureUnboundedWidthDoesNotWrap(t *testing.T) {
	got, err := Text{Body: "one two three\nfour"}.Measure(context.Background(), cell.Unconstrained())
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if got.Height != 2 || got.Width != 13 {
		t.Fatalf("expected 13x2 unwrapped, got %dx%d", got.Width, got.Height)
	}
}

func TestMeasureAllMatchesSequential(t *testing.T) {
	const n = 1000
	c := looseWidth(80)

	build := func(calls *atomic.Int32) ([]*cell.Node, []cell.Constraint) {
		nodes := make([]*cell.Node, n)
		constraints := make([]cell.Constraint, n)
		for i := range nodes {
			nodes[i] = cell.NewNode(sizedContent{
				size:  cell.Size{Width: i%40 + 1, Height: i%7 + 1},
				calls: calls,
			})
			constraints[i] = c
		}
		return nodes, constraints
	}

	var calls atomic.Int32
	pooled, constraints := build(&calls)
	(&Pool{Workers: 4, ChunkSize: 5}).MeasureAll(context.Background(), pooled, constraints)

	alone, _ := build(nil)
	for i, node := range alone {
		node.Measure(context.Background(), c)
		if pooled[i].Size() != node.Size() {
			t.Fatalf("node %d: pool %v vs alone %v", i, pooled[i].Size(), node.Size())
		}
		if !pooled[i].Measured() {
			t.Fatalf("node %d never measured", i)
		}
	}
	if got := calls.Load(); got != n {
		t.Fatalf("expected exactly %d measurements, got %d", n, got)
	}
}

func TestMeasureAllIsolatesFailures(t *testing.T) {
	nodes := make([]*cell.Node, 50)
	constraints := make([]cell.Constraint, len(nodes))
	for i := range nodes {
		content := sizedContent{size: cell.Size{Width: 10, Height: 1}}
		switch i {
		case 7:
			content.err = errors.New("unreadable payload")
		case 23:
			content.boom = true
		}
		nodes[i] = cell.NewNode(content)
		constraints[i] = looseWidth(40)
	}

	(&Pool{Workers: 3, ChunkSize: 4}).MeasureAll(context.Background(), nodes, constraints)

	for i, node := range nodes {
		if !node.Measured() {
			t.Fatalf("node %d left unmeasured", i)
		}
		switch i {
		case 7, 23:
			if !node.Size().IsZero() {
				t.Fatalf("failed node %d should be zero, got %v", i, node.Size())
			}
		default:
			if node.Size().IsZero() {
				t.Fatalf("healthy node %d collapsed to zero", i)
			}
		}
	}
}

func TestMeasureAllBoundsConcurrency(t *testing.T) {
	track := &gauge{}
	nodes := make([]*cell.Node, 40)
	constraints := make([]cell.Constraint, len(nodes))
	for i := range nodes {
		nodes[i] = cell.NewNode(sizedContent{
			size:  cell.Size{Width: 1, Height: 1},
			delay: time.Millisecond,
			track: track,
		})
		constraints[i] = looseWidth(10)
	}

	(&Pool{Workers: 3, ChunkSize: 2}).MeasureAll(context.Background(), nodes, constraints)

	if high := track.high(); high > 3 {
		t.Fatalf("observed %d concurrent measurements with 3 workers", high)
	}
}

func TestMeasureAllSkipsAlreadyMeasured(t *testing.T) {
	var calls atomic.Int32
	nodes := []*cell.Node{cell.NewNode(sizedContent{size: cell.Size{Width: 4, Height: 2}, calls: &calls})}
	p := &Pool{Workers: 2}

	p.MeasureAll(context.Background(), nodes, []cell.Constraint{looseWidth(20)})
	p.MeasureAll(context.Background(), nodes, []cell.Constraint{looseWidth(20)})
	if got := calls.Load(); got != 1 {
		t.Fatalf("same constraint should not remeasure, got %d calls", got)
	}

	p.MeasureAll(context.Background(), nodes, []cell.Constraint{looseWidth(30)})
	if got := calls.Load(); got != 2 {
		t.Fatalf("new constraint should remeasure, got %d calls", got)
	}
}

func TestStackFramesAbut(t *testing.T) {
	heights := []int{2, 3, 1}
	nodes := make([]*cell.Node, len(heights))
	for i, h := range heights {
		nodes[i] = cell.NewNode(nil)
		nodes[i].Measure(context.Background(), cell.Fixed(10, h))
	}

	total := Stack(nodes, 20)
	if total != 6 {
		t.Fatalf("stacked height = %d, want 6", total)
	}
	wantY := []int{0, 2, 5}
	for i, n := range nodes {
		f := n.Frame()
		if f.Y != wantY[i] || f.Height != heights[i] || f.Width != 20 || f.X != 0 {
			t.Fatalf("node %d frame = %+v", i, f)
		}
	}
	if !nodes[1].Frame().Intersects(2, 3) {
		t.Fatal("row window test should include node 1")
	}
	if nodes[2].Frame().Intersects(0, 5) {
		t.Fatal("row window test should exclude node 2")
	}
}

func TestGridFlowsRows(t *testing.T) {
	heights := []int{2, 1, 3, 1, 1}
	nodes := make([]*cell.Node, len(heights))
	for i, h := range heights {
		nodes[i] = cell.NewNode(nil)
		nodes[i].Measure(context.Background(), cell.Fixed(8, h))
	}

	total := Grid(nodes, 21, 2)
	if total != 6 {
		t.Fatalf("grid height = %d, want 6", total)
	}
	if f := nodes[2].Frame(); f.X != 0 || f.Y != 2 {
		t.Fatalf("node 2 should start row 2 at x=0, got %+v", f)
	}
	if f := nodes[3].Frame(); f.X != 10 || f.Y != 2 {
		t.Fatalf("node 3 should sit beside node 2, got %+v", f)
	}
	if f := nodes[4].Frame(); f.Y != 5 {
		t.Fatalf("node 4 should start after the tall row, got %+v", f)
	}
}

func TestTransitionContextRoundTrip(t *testing.T) {
	if got := TransitionFrom(context.Background()); got != "" {
		t.Fatalf("expected empty transition outside a transaction, got %q", got)
	}
	id := NewTransitionID()
	if id == "" || id == NewTransitionID() {
		t.Fatal("transition IDs should be unique and non-empty")
	}
	ctx := WithTransition(context.Background(), id)
	if got := TransitionFrom(ctx); got != id {
		t.Fatalf("round trip lost the ID: %q vs %q", got, id)
	}
}
