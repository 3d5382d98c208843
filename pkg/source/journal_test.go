package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/coordinator"
	"tableflip.dev/easel/pkg/layout"
)

var (
	_ coordinator.DataSource = (*Journal)(nil)
	_ coordinator.DataSource = (*Static)(nil)
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string {
	return t.path
}

func openTestJournal(t *testing.T, base string) *Journal {
	t.Helper()
	j, err := OpenJournal(testConfig{path: base})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	return j
}

func TestJournalAppendPersistsAcrossReopen(t *testing.T) {
	base := t.TempDir()
	j := openTestJournal(t, base)

	if _, _, err := j.Append("inbox", "first"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, _, err := j.Append("inbox", "second"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, _, err := j.Append("archive", "old news"); err != nil {
		t.Fatalf("append: %v", err)
	}

	reopened := openTestJournal(t, base)
	names := reopened.SectionNames()
	if len(names) != 2 || names[0] != "archive" || names[1] != "inbox" {
		t.Fatalf("expected sections [archive inbox], got %v", names)
	}
	entries := reopened.Entries(1)
	if len(entries) != 2 {
		t.Fatalf("expected 2 inbox entries, got %d", len(entries))
	}
	if entries[0].Body != "first" || entries[1].Body != "second" {
		t.Fatalf("entries out of order: %q, %q", entries[0].Body, entries[1].Body)
	}
}

func TestJournalAppendReturnsLandingPath(t *testing.T) {
	j := openTestJournal(t, t.TempDir())

	_, p1, err := j.Append("inbox", "first")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	_, p2, err := j.Append("inbox", "second")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	// "archive" sorts before "inbox", so it splices in at section 0.
	_, p3, err := j.Append("archive", "old news")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if p1 != (cell.Path{Section: 0, Item: 0}) {
		t.Fatalf("first landed at %v", p1)
	}
	if p2 != (cell.Path{Section: 0, Item: 1}) {
		t.Fatalf("second landed at %v", p2)
	}
	if p3 != (cell.Path{Section: 0, Item: 0}) {
		t.Fatalf("archive entry landed at %v", p3)
	}
	if idx, ok := j.SectionIndex("inbox"); !ok || idx != 1 {
		t.Fatalf("expected inbox to shift to section 1, got %d (found %t)", idx, ok)
	}
}

func TestJournalRemoveReturnsPath(t *testing.T) {
	base := t.TempDir()
	j := openTestJournal(t, base)

	if _, _, err := j.Append("inbox", "a"); err != nil {
		t.Fatalf("append: %v", err)
	}
	e, _, err := j.Append("inbox", "b")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, _, err := j.Append("inbox", "c"); err != nil {
		t.Fatalf("append: %v", err)
	}

	p, err := j.Remove(e)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if p != (cell.Path{Section: 0, Item: 1}) {
		t.Fatalf("removed entry occupied %v", p)
	}

	reopened := openTestJournal(t, base)
	entries := reopened.Entries(0)
	if len(entries) != 2 || entries[0].Body != "a" || entries[1].Body != "c" {
		t.Fatalf("unexpected survivors: %v", entries)
	}
}

func TestJournalEmptySectionSurvivesReopen(t *testing.T) {
	base := t.TempDir()
	j := openTestJournal(t, base)

	if _, err := j.EnsureSection("someday"); err != nil {
		t.Fatalf("ensure section: %v", err)
	}

	reopened := openTestJournal(t, base)
	names := reopened.SectionNames()
	if len(names) != 1 || names[0] != "someday" {
		t.Fatalf("expected [someday], got %v", names)
	}
	reopened.Lock()
	defer reopened.Unlock()
	if n := reopened.NumberOfItems(0); n != 0 {
		t.Fatalf("expected empty section, got %d items", n)
	}
}

func TestJournalRefreshSkipsUnreadableEntries(t *testing.T) {
	base := t.TempDir()
	j := openTestJournal(t, base)

	if _, _, err := j.Append("inbox", "keep me"); err != nil {
		t.Fatalf("append: %v", err)
	}

	dir := filepath.Join(base, toSectionKey("inbox"), "2026", "08", "25")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "garbage"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	if err := j.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	entries := j.Entries(0)
	if len(entries) != 1 || entries[0].Body != "keep me" {
		t.Fatalf("expected only the readable entry, got %v", entries)
	}
}

func TestJournalRefreshSkipsSectionsIndexQuietly(t *testing.T) {
	base := t.TempDir()
	j := openTestJournal(t, base)

	if _, err := j.EnsureSection("inbox"); err != nil {
		t.Fatalf("ensure section: %v", err)
	}
	if _, _, err := j.Append("inbox", "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	// A crashed save can also leave the rename-in-flight sibling behind.
	if err := os.WriteFile(filepath.Join(base, sectionsIndexFile+".tmp"), []byte(`["inbox"]`), 0o644); err != nil {
		t.Fatalf("write tmp index: %v", err)
	}

	// Both index files sit inside the tree the key scan walks; a refresh
	// must pass over them without warning.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	stderr := os.Stderr
	os.Stderr = w
	refreshErr := j.Refresh(context.Background())
	os.Stderr = stderr
	w.Close()
	noise, _ := io.ReadAll(r)
	r.Close()

	if refreshErr != nil {
		t.Fatalf("refresh: %v", refreshErr)
	}
	if len(noise) != 0 {
		t.Fatalf("refresh wrote to stderr: %s", noise)
	}
	entries := j.Entries(0)
	if len(entries) != 1 || entries[0].Body != "hello" {
		t.Fatalf("expected the entry to survive, got %v", entries)
	}
}

func TestJournalVendsPrefixedText(t *testing.T) {
	j := openTestJournal(t, t.TempDir())
	if _, _, err := j.Append("inbox", "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}

	j.Lock()
	defer j.Unlock()
	if n := j.NumberOfSections(); n != 1 {
		t.Fatalf("expected 1 section, got %d", n)
	}
	text, ok := j.Content(cell.Path{}).(layout.Text)
	if !ok {
		t.Fatalf("unexpected content type %T", j.Content(cell.Path{}))
	}
	if text.Body != "hello" || text.Prefix != entryPrefix {
		t.Fatalf("unexpected text: %#v", text)
	}
	if got := j.Constraint(cell.Path{}); got != cell.Width(80) {
		t.Fatalf("unexpected default constraint: %#v", got)
	}
}
