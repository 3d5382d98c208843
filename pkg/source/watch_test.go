package source

import (
	"context"
	"testing"
	"time"
)

func TestJournalWatchEmitsSectionChanges(t *testing.T) {
	base := t.TempDir()
	j := openTestJournal(t, base)
	if _, err := j.EnsureSection("inbox"); err != nil {
		t.Fatalf("ensure section: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := j.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow the watcher goroutine to subscribe to directories before writing.
	time.Sleep(50 * time.Millisecond)

	if _, _, err := j.Append("inbox", "hello world"); err != nil {
		t.Fatalf("append: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventJournalInvalidated {
				return
			}
			if evt.Type == EventSectionChanged {
				if evt.Section != "inbox" {
					t.Fatalf("expected section 'inbox', got %q", evt.Section)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for a section change event")
		}
	}
}

func TestEventDescribe(t *testing.T) {
	if got := (Event{Type: EventSectionChanged, Section: "inbox"}).Describe(); got != `section "inbox" changed` {
		t.Fatalf("unexpected description: %q", got)
	}
	if got := (Event{Type: EventJournalInvalidated}).Describe(); got != "journal invalidated" {
		t.Fatalf("unexpected description: %q", got)
	}
}
