package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a journal change notification.
type EventType int

const (
	// EventSectionChanged indicates the entries of the named section changed
	// (added, edited, or removed on disk).
	EventSectionChanged EventType = iota

	// EventJournalInvalidated signals that the section catalog itself changed
	// (a section appeared or vanished) and callers should refresh their full
	// view.
	EventJournalInvalidated
)

// Event is emitted by Journal.Watch when the on-disk journal changes.
type Event struct {
	Type    EventType
	Section string
}

// Describe renders the event as a short human-readable string.
func (e Event) Describe() string {
	switch e.Type {
	case EventSectionChanged:
		return fmt.Sprintf("section %q changed", e.Section)
	case EventJournalInvalidated:
		return "journal invalidated"
	default:
		return fmt.Sprintf("unknown event %d", int(e.Type))
	}
}

// Watch streams change events until ctx is cancelled. Callers should drain
// the returned channel to avoid losing events. The channel is closed once
// ctx is done or the watcher encounters an unrecoverable error.
func (j *Journal) Watch(ctx context.Context) (<-chan Event, error) {
	if j.basePath == "" {
		return nil, errors.New("source: journal base path unknown")
	}

	if err := os.MkdirAll(j.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("source: ensure base path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("source: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "source: watcher close: %v\n", err)
			}
		})
	}

	dirs, err := collectDirs(j.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("source: enumerate directories: %w", err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("source: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		// Track directories we already watch so new section buckets can be
		// added at runtime without duplicating watches.
		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
				// Drop events if the consumer is not ready; a subsequent
				// refresh will pick up the changes. This keeps filesystem
				// storms from blocking the watcher goroutine.
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Surface watcher errors as a full refresh to keep clients in
				// sync even when the change cannot be classified.
				throttle.Enqueue(Event{Type: EventJournalInvalidated}, send)
				_ = err
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					// A new directory is likely a new section bucket; watch it
					// to capture subsequent entry writes.
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						absDir := filepath.Clean(evt.Name)
						if _, found := watched[absDir]; !found {
							if err := watcher.Add(absDir); err != nil {
								fmt.Fprintf(os.Stderr, "source: watch %s: %v\n", absDir, err)
							} else {
								watched[absDir] = struct{}{}
							}
						}
						throttle.Enqueue(Event{Type: EventJournalInvalidated}, send)
						continue
					}
				}

				section := j.sectionForPath(evt.Name)
				if section == "" {
					throttle.Enqueue(Event{Type: EventJournalInvalidated}, send)
					continue
				}

				throttle.Enqueue(Event{Type: EventSectionChanged, Section: section}, send)
			}
		}
	}()

	return events, nil
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// sectionForPath attempts to derive the logical section from a diskv path.
func (j *Journal) sectionForPath(path string) string {
	rel, err := filepath.Rel(j.basePath, path)
	if err != nil {
		return ""
	}
	if rel == "." {
		return ""
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if len(parts) == 0 {
		return ""
	}
	encoded := parts[0]
	if encoded == "" || encoded == sectionsIndexFile || strings.HasPrefix(encoded, sectionsIndexFile+".") {
		return ""
	}
	return fromSectionKey(encoded)
}

// eventThrottle coalesces rapid change notifications so a consumer redraws
// once per burst of filesystem activity instead of on every single write.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]map[string]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	if t.pending[ev.Type] == nil {
		t.pending[ev.Type] = make(map[string]struct{})
	}
	t.pending[ev.Type][ev.Section] = struct{}{}

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[EventType]map[string]struct{})
	t.timer = nil
	t.mu.Unlock()

	for eventType, sections := range pending {
		if len(sections) == 0 {
			send(Event{Type: eventType})
			continue
		}

		for section := range sections {
			send(Event{Type: eventType, Section: section})
		}
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
