package cell

import (
	"context"
	"fmt"
)

// Content is the measurable payload behind a node. Measure must be
// side-effect-free and order-independent: measuring the same content under
// the same constraint always yields the same size, regardless of what else is
// being measured concurrently.
type Content interface {
	Measure(ctx context.Context, c Constraint) (Size, error)
}

// Node is one item's handle inside the element stores. A node is owned by
// whichever store slice currently holds it; the editing and completed stores
// share node handles across the structural copy window, so all mutation
// happens on the editing pipeline and readers treat geometry as advisory.
type Node struct {
	content    Content
	constraint Constraint
	size       Size
	measured   bool
	frame      Rect
}

// NewNode wraps content in a fresh, unmeasured node.
func NewNode(content Content) *Node {
	return &Node{content: content}
}

// Content returns the measurable payload.
func (n *Node) Content() Content {
	return n.content
}

// Constraint returns the bounds the node was (or will be) measured under.
func (n *Node) Constraint() Constraint {
	return n.constraint
}

// SetConstraint records the bounds for the next measurement.
func (n *Node) SetConstraint(c Constraint) {
	n.constraint = c.Normalized()
}

// Measured reports whether a size has been computed.
func (n *Node) Measured() bool {
	return n.measured
}

// Size returns the computed size; zero until measured.
func (n *Node) Size() Size {
	return n.size
}

// Frame returns the node's position within its section layout.
func (n *Node) Frame() Rect {
	return n.frame
}

// SetFrame places the node within its section layout.
func (n *Node) SetFrame(r Rect) {
	n.frame = r
}

// Measure computes the node's size under the given constraint and records the
// result. A failing, panicking, or missing content degrades to the
// constraint's clamped zero size rather than aborting; the error is returned
// for callers that log.
func (n *Node) Measure(ctx context.Context, c Constraint) (Size, error) {
	c = c.Normalized()
	n.constraint = c
	s, err := measureContent(ctx, n.content, c)
	if err != nil {
		s = Size{}
	}
	n.size = c.Clamp(s)
	n.measured = true
	return n.size, err
}

// measureContent contains a content's failure modes: a nil content measures
// to zero and a panic becomes an error, so one bad item never takes down the
// rest of its batch.
func measureContent(ctx context.Context, content Content, c Constraint) (s Size, err error) {
	if content == nil {
		return Size{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cell: content panicked: %v", r)
		}
	}()
	return content.Measure(ctx, c)
}
