package source

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/layout"
)

const (
	layoutISO         = "2006-01-02"
	sectionsIndexFile = ".sections.json"
	entryPrefix       = "• "
)

// Entry is one persisted feed item.
type Entry struct {
	ID      string    `json:"id"`
	Section string    `json:"section"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
}

// Journal is a diskv-backed feed: sections are named buckets ordered by
// name, items are entries ordered by creation time. The on-disk layout is
// one file per entry under a base64-encoded section directory, plus a small
// index file that remembers empty sections.
//
// Journal keeps an in-memory snapshot that the accessor methods read; the
// coordinator brackets them with Lock/Unlock. Mutators persist first, then
// splice the snapshot and report where the change landed, so callers can
// mirror it into coordinator edits without a full refresh.
type Journal struct {
	mu       sync.Mutex
	d        *diskv.Diskv
	basePath string
	def      cell.Constraint
	sections []journalSection
}

type journalSection struct {
	name    string
	entries []*Entry
}

// OpenJournal opens (creating if needed) the journal at cfg.BasePath and
// loads its snapshot. A nil cfg falls back to LoadConfig.
func OpenJournal(cfg Config) (*Journal, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	basePath := cfg.BasePath()
	j := &Journal{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: basePath,
		def:      cell.Width(80),
	}
	if err := j.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return j, nil
}

// Refresh rescans the disk into the in-memory snapshot. Unreadable entries
// are skipped with a warning; they should not take the whole feed down.
func (j *Journal) Refresh(ctx context.Context) error {
	index, err := j.loadSectionsIndex()
	if err != nil {
		return fmt.Errorf("source: load sections index: %w", err)
	}

	grouped := make(map[string][]*Entry)
	for key := range j.d.Keys(ctx.Done()) {
		if isIndexKey(key) {
			continue
		}
		e, err := j.read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		grouped[e.Section] = append(grouped[e.Section], e)
	}

	names := make(map[string]struct{}, len(grouped)+len(index))
	for _, name := range index {
		names[name] = struct{}{}
	}
	for name := range grouped {
		names[name] = struct{}{}
	}
	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	sections := make([]journalSection, 0, len(ordered))
	for _, name := range ordered {
		entries := grouped[name]
		sortEntries(entries)
		sections = append(sections, journalSection{name: name, entries: entries})
	}

	j.mu.Lock()
	j.sections = sections
	j.mu.Unlock()
	return nil
}

func (j *Journal) read(key string) (*Entry, error) {
	val, err := j.d.Read(key)
	if err != nil {
		return nil, err
	}
	e := &Entry{}
	if err := json.Unmarshal(val, e); err != nil {
		return nil, err
	}
	pk := keyToPathTransform(key)
	e.ID = pk.FileName
	if sec := fromSectionKey(pk.Path[0]); sec != "" {
		e.Section = sec
	}
	return e, nil
}

// EnsureSection creates the section if needed and returns its index in the
// snapshot.
func (j *Journal) EnsureSection(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("source: section name required")
	}
	if j.basePath == "" {
		return 0, errors.New("source: base path unknown")
	}
	if err := os.MkdirAll(filepath.Join(j.basePath, toSectionKey(name)), 0o755); err != nil {
		return 0, fmt.Errorf("source: ensure section directory: %w", err)
	}
	index, err := j.loadSectionsIndex()
	if err != nil {
		return 0, fmt.Errorf("source: load sections index: %w", err)
	}
	known := false
	for _, existing := range index {
		if existing == name {
			known = true
			break
		}
	}
	if !known {
		index = append(index, name)
		sort.Strings(index)
		if err := j.saveSectionsIndex(index); err != nil {
			return 0, fmt.Errorf("source: save sections index: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.spliceSectionLocked(name), nil
}

func (j *Journal) spliceSectionLocked(name string) int {
	for i, sec := range j.sections {
		if sec.name == name {
			return i
		}
		if sec.name > name {
			j.sections = append(j.sections, journalSection{})
			copy(j.sections[i+1:], j.sections[i:])
			j.sections[i] = journalSection{name: name}
			return i
		}
	}
	j.sections = append(j.sections, journalSection{name: name})
	return len(j.sections) - 1
}

// Append persists a new entry and splices it into the snapshot, returning
// the entry and the path where it landed.
func (j *Journal) Append(section, body string) (*Entry, cell.Path, error) {
	if _, err := j.EnsureSection(section); err != nil {
		return nil, cell.Path{}, err
	}
	e := &Entry{Section: strings.TrimSpace(section), Body: body, Created: time.Now()}
	if err := j.store(e); err != nil {
		return nil, cell.Path{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	si := j.spliceSectionLocked(e.Section)
	entries := j.sections[si].entries
	j.sections[si].entries = append(entries, e)
	return e, cell.Path{Section: si, Item: len(entries)}, nil
}

func (j *Journal) store(e *Entry) error {
	key := toKey(e)
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return j.d.Write(key, data)
}

// Remove erases the entry from disk and the snapshot, returning the path it
// occupied.
func (j *Journal) Remove(e *Entry) (cell.Path, error) {
	if e == nil {
		return cell.Path{}, errors.New("source: nil entry")
	}
	if err := j.d.Erase(toKey(e)); err != nil {
		return cell.Path{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for si := range j.sections {
		if j.sections[si].name != e.Section {
			continue
		}
		entries := j.sections[si].entries
		for ii, candidate := range entries {
			if candidate.ID == e.ID {
				j.sections[si].entries = append(entries[:ii], entries[ii+1:]...)
				return cell.Path{Section: si, Item: ii}, nil
			}
		}
	}
	return cell.Path{}, errors.New("source: entry not in snapshot")
}

// SectionNames returns the snapshot's ordered section names.
func (j *Journal) SectionNames() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, len(j.sections))
	for i, sec := range j.sections {
		names[i] = sec.name
	}
	return names
}

// Snapshot returns the section names and entry lists as one consistent copy.
func (j *Journal) Snapshot() ([]string, [][]*Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, len(j.sections))
	entries := make([][]*Entry, len(j.sections))
	for i, sec := range j.sections {
		names[i] = sec.name
		entries[i] = append([]*Entry(nil), sec.entries...)
	}
	return names, entries
}

// SectionIndex locates a section by name.
func (j *Journal) SectionIndex(name string) (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, sec := range j.sections {
		if sec.name == name {
			return i, true
		}
	}
	return 0, false
}

// Entries returns a copy of one section's entry list.
func (j *Journal) Entries(section int) []*Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	if section < 0 || section >= len(j.sections) {
		return nil
	}
	return append([]*Entry(nil), j.sections[section].entries...)
}

// EntryAt returns the entry at the path, or nil when out of range.
func (j *Journal) EntryAt(at cell.Path) *Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	if at.Section < 0 || at.Section >= len(j.sections) {
		return nil
	}
	entries := j.sections[at.Section].entries
	if at.Item < 0 || at.Item >= len(entries) {
		return nil
	}
	return entries[at.Item]
}

// SetDefaultConstraint replaces the constraint vended for every entry,
// typically on terminal resize.
func (j *Journal) SetDefaultConstraint(c cell.Constraint) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.def = c
}

// Lock takes the journal's lock for an enumeration bracket.
func (j *Journal) Lock() { j.mu.Lock() }

// Unlock releases the enumeration bracket.
func (j *Journal) Unlock() { j.mu.Unlock() }

// NumberOfSections reports the snapshot's section count. Call within
// Lock/Unlock.
func (j *Journal) NumberOfSections() int {
	return len(j.sections)
}

// NumberOfItems reports one section's entry count. Call within Lock/Unlock.
func (j *Journal) NumberOfItems(section int) int {
	return len(j.sections[section].entries)
}

// Content returns the entry's measurable text. Call within Lock/Unlock.
func (j *Journal) Content(at cell.Path) cell.Content {
	e := j.sections[at.Section].entries[at.Item]
	return layout.Text{Prefix: entryPrefix, Body: e.Body}
}

// Constraint returns the sizing bounds for the path. Call within
// Lock/Unlock.
func (j *Journal) Constraint(at cell.Path) cell.Constraint {
	return j.def
}

func (j *Journal) sectionsIndexPath() string {
	return filepath.Join(j.basePath, sectionsIndexFile)
}

func (j *Journal) loadSectionsIndex() ([]string, error) {
	if j.basePath == "" {
		return nil, errors.New("source: base path unknown")
	}
	if err := os.MkdirAll(j.basePath, 0o755); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(j.sectionsIndexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, err
	}
	out := names[:0]
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func (j *Journal) saveSectionsIndex(names []string) error {
	if j.basePath == "" {
		return errors.New("source: base path unknown")
	}
	if err := os.MkdirAll(j.basePath, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	path := j.sectionsIndexPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		left, right := entries[i], entries[j]
		lt, rt := left.Created, right.Created
		switch {
		case lt.IsZero() && rt.IsZero():
			return left.ID < right.ID
		case lt.IsZero():
			return false
		case rt.IsZero():
			return true
		default:
			if lt.Equal(rt) {
				return left.ID < right.ID
			}
			return lt.Before(rt)
		}
	})
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// isIndexKey reports whether a scanned key names the sections index file, or
// its rename-in-flight sibling, rather than an entry. The index lives in the
// same tree diskv walks, so the refresh scan has to pass over it.
func isIndexKey(key string) bool {
	return strings.HasSuffix(key, sectionsIndexFile) || strings.HasSuffix(key, sectionsIndexFile+".tmp")
}

// toKey makes `section-date-id`
func toKey(e *Entry) string {
	section := toSectionKey(e.Section)
	then := e.Created.Format(layoutISO)

	if e.ID == "" {
		b, _ := json.Marshal(e)
		id := md5.Sum(b)
		e.ID = fmt.Sprintf("%x", id[:8])
	}

	return fmt.Sprintf("%s-%s-%s", section, then, e.ID)
}

func toSectionKey(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func fromSectionKey(s string) string {
	name, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return string(name)
}
