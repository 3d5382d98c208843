package coordinator

import "tableflip.dev/easel/pkg/cell"

// AnimationOptions rides along with every change notification. Animated
// mirrors the flag passed to EndUpdates; Transition names the editing
// transaction that produced the change, for collaborators that trace or
// coalesce redraws.
type AnimationOptions struct {
	Animated   bool
	Transition string
}

// Delegate receives batch brackets on the interactive goroutine.
// BeginUpdates fires synchronously while the batch is closing; EndUpdates
// fires after the batch has been published and its change notifications have
// drained. The delegate owns the completion callback and must invoke it once
// its own work (redraw, animation) settles.
type Delegate interface {
	BeginUpdates()
	EndUpdates(animated bool, completion func(bool))
}

// SectionObserver is an optional delegate capability for section-level
// change receipts.
type SectionObserver interface {
	DidInsertSections(set cell.IndexSet, opts AnimationOptions)
	DidDeleteSections(set cell.IndexSet, opts AnimationOptions)
}

// NodeObserver is an optional delegate capability for item-level change
// receipts. nodes[i] pairs with paths[i]; insert paths are post-update
// coordinates and delete paths pre-update coordinates.
type NodeObserver interface {
	DidInsertNodes(nodes []*cell.Node, paths []cell.Path, opts AnimationOptions)
	DidDeleteNodes(nodes []*cell.Node, paths []cell.Path, opts AnimationOptions)
}

// delegateProxy resolves the optional capabilities once, at registration, so
// notification fan-out never re-probes interfaces per event.
type delegateProxy struct {
	delegate Delegate
	sections SectionObserver
	nodes    NodeObserver
}

func newDelegateProxy(d Delegate) delegateProxy {
	p := delegateProxy{delegate: d}
	if d == nil {
		return p
	}
	if s, ok := d.(SectionObserver); ok {
		p.sections = s
	}
	if n, ok := d.(NodeObserver); ok {
		p.nodes = n
	}
	return p
}

func (p delegateProxy) beginUpdates() {
	if p.delegate != nil {
		p.delegate.BeginUpdates()
	}
}

func (p delegateProxy) endUpdates(animated bool, completion func(bool)) {
	if p.delegate == nil {
		if completion != nil {
			completion(true)
		}
		return
	}
	p.delegate.EndUpdates(animated, completion)
}

func (p delegateProxy) didInsertSections(set cell.IndexSet, opts AnimationOptions) {
	if p.sections != nil && len(set) > 0 {
		p.sections.DidInsertSections(set, opts)
	}
}

func (p delegateProxy) didDeleteSections(set cell.IndexSet, opts AnimationOptions) {
	if p.sections != nil && len(set) > 0 {
		p.sections.DidDeleteSections(set, opts)
	}
}

func (p delegateProxy) didInsertNodes(nodes []*cell.Node, paths []cell.Path, opts AnimationOptions) {
	if p.nodes != nil && len(paths) > 0 {
		p.nodes.DidInsertNodes(nodes, paths, opts)
	}
}

func (p delegateProxy) didDeleteNodes(nodes []*cell.Node, paths []cell.Path, opts AnimationOptions) {
	if p.nodes != nil && len(paths) > 0 {
		p.nodes.DidDeleteNodes(nodes, paths, opts)
	}
}
