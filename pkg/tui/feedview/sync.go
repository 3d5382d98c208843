package feedview

import (
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/source"
)

// feedState mirrors the journal state the coordinator has already been told
// about. It is the base every sync diff is computed against; local edits and
// applied syncs both advance it.
type feedState struct {
	sections []feedSection
}

type feedSection struct {
	name   string
	ids    []string
	bodies map[string]string
}

func collectFeed(j *source.Journal) feedState {
	names, entries := j.Snapshot()
	fs := feedState{sections: make([]feedSection, len(names))}
	for i, name := range names {
		sec := feedSection{name: name, bodies: make(map[string]string, len(entries[i]))}
		for _, e := range entries[i] {
			sec.ids = append(sec.ids, e.ID)
			sec.bodies[e.ID] = e.Body
		}
		fs.sections[i] = sec
	}
	return fs
}

// scheduleSync kicks off a disk rescan unless one is already in flight, in
// which case another is queued behind it.
func (m *Model) scheduleSync(cmds *[]tea.Cmd) {
	if m.journal == nil {
		return
	}
	if m.syncing {
		m.syncQueued = true
		return
	}
	m.syncing = true
	*cmds = append(*cmds, m.syncCmd())
}

func (m *Model) syncCmd() tea.Cmd {
	j := m.journal
	ctx := m.ctx
	return func() tea.Msg {
		if err := j.Refresh(ctx); err != nil {
			return errMsg{err}
		}
		return sourceSyncedMsg{state: collectFeed(j)}
	}
}

// applySync reconciles the coordinator with a fresh source snapshot by
// issuing the difference as one batched edit: deletes in pre-batch
// coordinates, inserts in post-batch coordinates, body changes as reloads.
func (m *Model) applySync(next feedState) {
	prev := m.feed

	oldIdx := make(map[string]int, len(prev.sections))
	for i, sec := range prev.sections {
		oldIdx[sec.name] = i
	}
	newIdx := make(map[string]int, len(next.sections))
	for i, sec := range next.sections {
		newIdx[sec.name] = i
	}

	var deleteSecs, insertSecs []int
	var deleteItems, reloadItems, insertItems []cell.Path

	for i, sec := range prev.sections {
		if _, kept := newIdx[sec.name]; !kept {
			deleteSecs = append(deleteSecs, i)
		}
	}
	for i, sec := range next.sections {
		oi, kept := oldIdx[sec.name]
		if !kept {
			insertSecs = append(insertSecs, i)
			continue
		}
		old := prev.sections[oi]
		oldRows := make(map[string]int, len(old.ids))
		for n, id := range old.ids {
			oldRows[id] = n
		}
		newSet := make(map[string]struct{}, len(sec.ids))
		for _, id := range sec.ids {
			newSet[id] = struct{}{}
		}
		for n, id := range old.ids {
			if _, ok := newSet[id]; !ok {
				deleteItems = append(deleteItems, cell.Path{Section: oi, Item: n})
			}
		}
		for n, id := range sec.ids {
			if on, ok := oldRows[id]; !ok {
				insertItems = append(insertItems, cell.Path{Section: i, Item: n})
			} else if old.bodies[id] != sec.bodies[id] {
				reloadItems = append(reloadItems, cell.Path{Section: oi, Item: on})
			}
		}
	}

	m.feed = next

	if len(deleteSecs) == 0 && len(insertSecs) == 0 &&
		len(deleteItems) == 0 && len(reloadItems) == 0 && len(insertItems) == 0 {
		return
	}

	c := m.coord
	c.BeginUpdates()
	c.DeleteItems(deleteItems)
	c.ReloadItems(reloadItems)
	c.DeleteSections(cell.NewIndexSet(deleteSecs...))
	c.InsertSections(cell.NewIndexSet(insertSecs...))
	c.InsertItems(insertItems)
	c.EndUpdates(true, nil)
}
