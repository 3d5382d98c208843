package coordinator

import (
	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/elements"
)

// CompletedNodes returns the store readers should consult right now: the
// external snapshot while a closed batch is still flowing through the
// pipeline, otherwise the latest completed store. The returned store is
// immutable; callers may hold it across calls and it will never change
// underneath them. Interactive thread only.
func (c *Coordinator) CompletedNodes() *elements.Store {
	if c.external != nil {
		return c.external
	}
	return c.completed.Load()
}

// NumberOfSections reports the externally visible section count.
func (c *Coordinator) NumberOfSections() int {
	return c.CompletedNodes().NumberOfSections()
}

// NumberOfItems reports the externally visible item count of one section.
func (c *Coordinator) NumberOfItems(section int) int {
	return c.CompletedNodes().NumberOfItems(section)
}

// NodeAt returns the externally visible node at the path.
func (c *Coordinator) NodeAt(p cell.Path) *cell.Node {
	return c.CompletedNodes().NodeAt(p)
}

// NodesAt returns the externally visible nodes at the paths, ascending.
func (c *Coordinator) NodesAt(paths []cell.Path) []*cell.Node {
	return c.CompletedNodes().NodesAt(paths)
}

// PathFor locates a node by handle identity in the externally visible store.
// Linear over every item; meant for debugging and selection bookkeeping, not
// hot paths.
func (c *Coordinator) PathFor(n *cell.Node) (cell.Path, bool) {
	return c.CompletedNodes().PathFor(n)
}
