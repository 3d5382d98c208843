package feedview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/coordinator"
	"tableflip.dev/easel/pkg/layout"
	"tableflip.dev/easel/pkg/source"
)

var (
	_ coordinator.Delegate        = (*Model)(nil)
	_ coordinator.SectionObserver = (*Model)(nil)
	_ coordinator.NodeObserver    = (*Model)(nil)
)

type journalConfig struct {
	path string
}

func (c journalConfig) BasePath() string {
	return c.path
}

func openJournal(t *testing.T, base string) *source.Journal {
	t.Helper()
	j, err := source.OpenJournal(journalConfig{path: base})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	return j
}

// settle waits out the pipeline and runs everything queued for the
// interactive goroutine.
func settle(m *Model) {
	m.coord.Drain()
	m.coord.Main().Drain()
}

func newStaticModel(t *testing.T, sections ...[]source.Item) *Model {
	t.Helper()
	m := New(source.NewStatic(sections...))
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m.requestReload()
	settle(m)
	return m
}

func TestReloadPopulatesAndViewRendersWindow(t *testing.T) {
	m := newStaticModel(t,
		source.TextItems("alpha", "beta"),
		source.TextItems("gamma"),
	)

	if got := m.coord.NumberOfSections(); got != 2 {
		t.Fatalf("expected 2 sections, got %d", got)
	}
	if got := m.coord.CompletedNodes().TotalItems(); got != 3 {
		t.Fatalf("expected 3 rows, got %d", got)
	}

	view := m.View()
	lines := strings.Split(view, "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 view lines, got %d:\n%s", len(lines), view)
	}
	if !strings.Contains(view, "alpha") || !strings.Contains(view, "Section 1") {
		t.Fatalf("view missing feed content:\n%s", view)
	}
}

func TestWakeSubscriptionPumpsMainQueue(t *testing.T) {
	m := New(source.NewStatic(source.TextItems("one")))
	t.Cleanup(m.Close)

	wakeCmd := m.waitForWake()
	m.requestReload()
	m.coord.Drain()

	msg := wakeCmd() // returns once the pipeline signals the main queue
	if _, ok := msg.(wakeMsg); !ok {
		t.Fatalf("expected wakeMsg, got %T", msg)
	}
	m.Update(msg)

	if got := m.coord.NumberOfSections(); got != 1 {
		t.Fatalf("expected 1 section after drain, got %d", got)
	}
	if m.loading {
		t.Fatal("expected the reload completion to clear the loading flag")
	}
}

func TestLocalEditsKeepJournalAndFeedConverged(t *testing.T) {
	base := t.TempDir()
	j := openJournal(t, base)
	if _, _, err := j.Append("inbox", "first"); err != nil {
		t.Fatalf("append: %v", err)
	}

	m := NewJournal(j)
	t.Cleanup(m.Close)
	m.requestReload()
	settle(m)

	m.submitEntry("second")
	settle(m)

	if got := m.coord.NumberOfItems(0); got != 2 {
		t.Fatalf("expected 2 rows after submit, got %d", got)
	}
	if got := len(m.feed.sections[0].ids); got != 2 {
		t.Fatalf("expected the feed mirror to track the append, got %d ids", got)
	}

	m.cursor = 1
	m.deleteAtCursor()
	settle(m)

	if got := m.coord.NumberOfItems(0); got != 1 {
		t.Fatalf("expected 1 row after delete, got %d", got)
	}
	if m.cursor != 0 {
		t.Fatalf("expected the cursor to clamp to 0, got %d", m.cursor)
	}
	_, entries := j.Snapshot()
	if len(entries[0]) != 1 || entries[0][0].Body != "first" {
		t.Fatalf("journal out of step: %v", entries[0])
	}
}

func TestSyncDiffConvergesWithMinimalEdits(t *testing.T) {
	base := t.TempDir()
	j := openJournal(t, base)
	if _, _, err := j.Append("inbox", "keep"); err != nil {
		t.Fatalf("append: %v", err)
	}

	m := NewJournal(j)
	t.Cleanup(m.Close)
	m.requestReload()
	settle(m)

	kept := m.coord.NodeAt(cell.Path{Section: 0, Item: 0})

	// Mutate the disk behind the model's back through a second handle.
	other := openJournal(t, base)
	if _, _, err := other.Append("inbox", "added"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := other.EnsureSection("archive"); err != nil {
		t.Fatalf("ensure section: %v", err)
	}

	if err := m.journal.Refresh(m.ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	m.applySync(collectFeed(m.journal))
	settle(m)

	if got := m.coord.NumberOfSections(); got != 2 {
		t.Fatalf("expected 2 sections after sync, got %d", got)
	}
	// "archive" sorts first, so "inbox" shifts to section 1.
	if got := m.coord.NumberOfItems(1); got != 2 {
		t.Fatalf("expected 2 inbox rows after sync, got %d", got)
	}
	if m.coord.NodeAt(cell.Path{Section: 1, Item: 0}) != kept {
		t.Fatal("expected the surviving row to keep its node handle")
	}
	if got := len(m.feed.sections); got != 2 {
		t.Fatalf("expected the feed mirror to follow the sync, got %d sections", got)
	}
}

func TestWatchEventDrivesConvergence(t *testing.T) {
	base := t.TempDir()
	j := openJournal(t, base)
	if _, err := j.EnsureSection("inbox"); err != nil {
		t.Fatalf("ensure section: %v", err)
	}

	m := NewJournal(j)
	t.Cleanup(m.Close)
	m.requestReload()
	settle(m)

	ch, err := j.Watch(m.ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow the watcher goroutine to subscribe before writing.
	time.Sleep(50 * time.Millisecond)

	other := openJournal(t, base)
	if _, _, err := other.Append("inbox", "from outside"); err != nil {
		t.Fatalf("append: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for converged := false; !converged; {
		select {
		case _, ok := <-ch:
			if !ok {
				t.Fatal("watch channel closed early")
			}
			if err := m.journal.Refresh(m.ctx); err != nil {
				t.Fatalf("refresh: %v", err)
			}
			m.applySync(collectFeed(m.journal))
			settle(m)
			converged = m.coord.NumberOfItems(0) == 1
		case <-deadline:
			t.Fatal("timed out waiting for the feed to converge")
		}
	}
}

func TestResizeRemeasuresAtNewWidth(t *testing.T) {
	body := strings.TrimSpace(strings.Repeat("word ", 12))
	m := newStaticModel(t, []source.Item{{Content: layout.Text{Body: body}}})

	n := m.coord.NodeAt(cell.Path{})
	wide := n.Size().Height

	m.Update(tea.WindowSizeMsg{Width: 20, Height: 12})
	settle(m)

	fresh := m.coord.NodeAt(cell.Path{})
	if fresh == n {
		t.Fatal("expected the resize reload to produce a fresh node")
	}
	if got := fresh.Size().Width; got > 20 {
		t.Fatalf("expected the row to fit width 20, measured %d", got)
	}
	if fresh.Size().Height <= wide {
		t.Fatalf("expected a taller layout at width 20, got %d (was %d)", fresh.Size().Height, wide)
	}
}
