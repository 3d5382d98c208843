package feedview

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/coordinator"
	"tableflip.dev/easel/pkg/elements"
	"tableflip.dev/easel/pkg/layout"
	"tableflip.dev/easel/pkg/source"
)

type mode int

const (
	modeNormal mode = iota
	modeAddEntry
	modeAddSection
)

// Model drives a feed through a Coordinator: keystrokes and filesystem watch
// events become edit commands, measurement happens on the worker pool, and
// View renders whatever the completed store holds right now. The Bubble Tea
// loop is the interactive goroutine; a wake subscription pumps the
// coordinator's main queue through Update.
type Model struct {
	coord   *coordinator.Coordinator
	src     coordinator.DataSource
	journal *source.Journal
	static  *source.Static

	ctx    context.Context
	cancel context.CancelFunc

	styles Styles
	width  int
	height int

	mode   mode
	input  textinput.Model
	cursor int
	scroll int

	feed feedState

	status     string
	lastChange string
	loading    bool

	syncing    bool
	syncQueued bool

	watchCh     <-chan source.Event
	watchCancel context.CancelFunc

	debugLog io.Writer
}

// New builds a feed over a static in-memory source.
func New(s *source.Static) *Model {
	m := newModel(s)
	m.static = s
	return m
}

// NewJournal builds a live feed over an on-disk journal; Init starts a
// filesystem watch that keeps the feed converged with the disk.
func NewJournal(j *source.Journal) *Model {
	m := newModel(j, coordinator.WithAsyncFetch())
	m.journal = j
	m.feed = collectFeed(j)
	return m
}

func newModel(src coordinator.DataSource, copts ...coordinator.Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type here"
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.VirtualCursor = true
	ti.Focus()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		src:    src,
		ctx:    ctx,
		cancel: cancel,
		styles: DefaultStyles(),
		input:  ti,
		cursor: -1,
	}
	m.coord = coordinator.New(src, copts...)
	m.coord.SetDelegate(m)
	return m
}

// Coordinator exposes the underlying coordinator, mainly for tests.
func (m *Model) Coordinator() *coordinator.Coordinator {
	return m.coord
}

// SetStyles replaces the feed's styles.
func (m *Model) SetStyles(s Styles) {
	m.styles = s
}

// SetDebugWriter configures an optional writer for diagnostic output.
func (m *Model) SetDebugWriter(w io.Writer) {
	m.debugLog = w
	m.coord.SetDebugWriter(w)
}

// Close tears down the watcher and the coordinator.
func (m *Model) Close() {
	m.stopWatch()
	m.cancel()
	m.coord.Close()
}

type wakeMsg struct{}

type reloadRequestMsg struct{}

type errMsg struct {
	err error
}

type watchStartedMsg struct {
	ch     <-chan source.Event
	cancel context.CancelFunc
	err    error
}

type watchEventMsg struct {
	event source.Event
}

type watchStoppedMsg struct{}

type sourceSyncedMsg struct {
	state feedState
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForWake(),
		func() tea.Msg { return reloadRequestMsg{} },
	}
	if m.journal != nil {
		cmds = append(cmds, startWatchCmd(m.ctx, m.journal))
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForWake() tea.Cmd {
	wake := m.coord.Main().Wake()
	return func() tea.Msg {
		<-wake
		return wakeMsg{}
	}
}

func startWatchCmd(parent context.Context, j *source.Journal) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)
		ch, err := j.Watch(ctx)
		if err != nil {
			cancel()
			return watchStartedMsg{err: err}
		}
		return watchStartedMsg{ch: ch, cancel: cancel}
	}
}

func (m *Model) waitForWatch() tea.Cmd {
	if m.watchCh == nil {
		return nil
	}
	ch := m.watchCh
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return watchEventMsg{event: ev}
		}
		return watchStoppedMsg{}
	}
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchCh = nil
}

// Update handles messages and keybindings.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applyWidth()
	case wakeMsg:
		m.coord.Main().Drain()
		cmds = append(cmds, m.waitForWake())
	case reloadRequestMsg:
		m.requestReload()
	case errMsg:
		m.setStatus("ERR: " + msg.err.Error())
	case watchStartedMsg:
		if msg.err != nil {
			m.setStatus("ERR: watch " + msg.err.Error())
			break
		}
		m.stopWatch()
		m.watchCh = msg.ch
		m.watchCancel = msg.cancel
		m.setStatus("Watching for changes")
		if cmd := m.waitForWatch(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case watchEventMsg:
		m.setStatus(msg.event.Describe())
		m.scheduleSync(&cmds)
		if cmd := m.waitForWatch(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case watchStoppedMsg:
		m.stopWatch()
		if m.journal != nil {
			cmds = append(cmds, startWatchCmd(m.ctx, m.journal))
		}
	case sourceSyncedMsg:
		m.syncing = false
		m.applySync(msg.state)
		if m.syncQueued {
			m.syncQueued = false
			m.scheduleSync(&cmds)
		}
	case tea.KeyPressMsg:
		m.handleKey(msg, &cmds)
	default:
		if m.mode != modeNormal {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg, cmds *[]tea.Cmd) {
	if m.mode != modeNormal {
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if m.mode == modeAddEntry {
				m.submitEntry(text)
			} else {
				m.submitSection(text)
			}
			m.mode = modeNormal
			m.input.SetValue("")
		case "esc":
			m.mode = modeNormal
			m.input.SetValue("")
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			if cmd != nil {
				*cmds = append(*cmds, cmd)
			}
		}
		return
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.stopWatch()
		*cmds = append(*cmds, tea.Quit)
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup", "b":
		m.moveCursor(-m.pageSize())
	case "pgdown", "f":
		m.moveCursor(m.pageSize())
	case "g", "home":
		m.cursorHome()
	case "G", "end":
		m.cursorEnd()
	case "a":
		m.mode = modeAddEntry
		m.input.Placeholder = "New entry"
		*cmds = append(*cmds, textinput.Blink)
	case "S":
		m.mode = modeAddSection
		m.input.Placeholder = "Section name"
		*cmds = append(*cmds, textinput.Blink)
	case "x", "d":
		m.deleteAtCursor()
	case "r":
		m.requestReload()
	}
}

func (m *Model) requestReload() {
	m.loading = true
	m.setStatus("Reloading")
	m.coord.ReloadData(coordinator.ReloadOptions{Async: true}, func() {
		m.loading = false
		if m.journal != nil {
			m.feed = collectFeed(m.journal)
		}
		m.clampCursor()
		m.setStatus(fmt.Sprintf("%d sections / %d rows",
			m.coord.NumberOfSections(), m.coord.CompletedNodes().TotalItems()))
	})
}

// applyWidth pushes the new terminal width into the source constraint and
// re-measures every section at that width.
func (m *Model) applyWidth() {
	width := m.contentWidth()
	if src, ok := m.src.(interface{ SetDefaultConstraint(cell.Constraint) }); ok {
		src.SetDefaultConstraint(cell.Width(width))
	}
	n := m.coord.NumberOfSections()
	if n == 0 {
		return
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	m.coord.BeginUpdates()
	m.coord.ReloadSections(cell.NewIndexSet(all...))
	m.coord.EndUpdates(false, nil)
}

func (m *Model) submitEntry(body string) {
	if body == "" {
		return
	}
	section, name := m.targetSection()
	switch {
	case m.journal != nil:
		if name == "" {
			name = "inbox"
		}
		known := false
		for _, sec := range m.feed.sections {
			if sec.name == name {
				known = true
				break
			}
		}
		_, p, err := m.journal.Append(name, body)
		if err != nil {
			m.setStatus("ERR: " + err.Error())
			return
		}
		m.feed = collectFeed(m.journal)
		if known {
			m.coord.InsertItems([]cell.Path{p})
		} else {
			// A fresh section pulls its rows from the source on insert.
			m.coord.InsertSections(cell.NewIndexSet(p.Section))
		}
	case m.static != nil:
		item := source.Item{Content: layout.Text{Prefix: "• ", Body: body}}
		if m.coord.NumberOfSections() == 0 {
			idx := m.static.AppendSection(item)
			m.coord.InsertSections(cell.NewIndexSet(idx))
			return
		}
		if section < 0 {
			section = 0
		}
		m.static.Lock()
		n := m.static.NumberOfItems(section)
		m.static.Unlock()
		p := cell.Path{Section: section, Item: n}
		m.static.InsertItem(p, item)
		m.coord.InsertItems([]cell.Path{p})
	}
}

func (m *Model) submitSection(name string) {
	if name == "" {
		return
	}
	switch {
	case m.journal != nil:
		for _, sec := range m.feed.sections {
			if sec.name == name {
				m.setStatus(fmt.Sprintf("Section %q already exists", name))
				return
			}
		}
		si, err := m.journal.EnsureSection(name)
		if err != nil {
			m.setStatus("ERR: " + err.Error())
			return
		}
		m.feed = collectFeed(m.journal)
		m.coord.InsertSections(cell.NewIndexSet(si))
	case m.static != nil:
		idx := m.static.AppendSection()
		m.coord.InsertSections(cell.NewIndexSet(idx))
	}
}

func (m *Model) deleteAtCursor() {
	p, ok := m.cursorPath()
	if !ok {
		return
	}
	switch {
	case m.journal != nil:
		if p.Section >= len(m.feed.sections) || p.Item >= len(m.feed.sections[p.Section].ids) {
			m.setStatus("Feed is settling; try again")
			return
		}
		e := m.journal.EntryAt(p)
		if e == nil {
			m.setStatus("Feed is settling; try again")
			return
		}
		removed, err := m.journal.Remove(e)
		if err != nil {
			m.setStatus("ERR: " + err.Error())
			return
		}
		m.feed = collectFeed(m.journal)
		m.coord.DeleteItems([]cell.Path{removed})
	case m.static != nil:
		m.static.RemoveItem(p)
		m.coord.DeleteItems([]cell.Path{p})
	}
	m.clampCursor()
}

// targetSection picks the section local inserts land in: the cursor's
// section, else the last one.
func (m *Model) targetSection() (int, string) {
	section := -1
	if p, ok := m.cursorPath(); ok {
		section = p.Section
	} else if n := m.coord.NumberOfSections(); n > 0 {
		section = n - 1
	}
	name := ""
	if m.journal != nil && section >= 0 && section < len(m.feed.sections) {
		name = m.feed.sections[section].name
	}
	return section, name
}

func (m *Model) cursorPath() (cell.Path, bool) {
	if m.cursor < 0 {
		return cell.Path{}, false
	}
	snap := m.coord.CompletedNodes()
	flat := m.cursor
	for s := 0; s < snap.NumberOfSections(); s++ {
		n := snap.NumberOfItems(s)
		if flat < n {
			return cell.Path{Section: s, Item: flat}, true
		}
		flat -= n
	}
	return cell.Path{}, false
}

func (m *Model) moveCursor(delta int) {
	total := m.coord.CompletedNodes().TotalItems()
	if total == 0 {
		m.cursor = -1
		return
	}
	if m.cursor < 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= total {
		m.cursor = total - 1
	}
}

func (m *Model) cursorHome() {
	if m.coord.CompletedNodes().TotalItems() > 0 {
		m.cursor = 0
	}
	m.scroll = 0
}

func (m *Model) cursorEnd() {
	total := m.coord.CompletedNodes().TotalItems()
	if total > 0 {
		m.cursor = total - 1
	}
}

func (m *Model) clampCursor() {
	total := m.coord.CompletedNodes().TotalItems()
	switch {
	case total == 0:
		m.cursor = -1
	case m.cursor >= total:
		m.cursor = total - 1
	case m.cursor < 0:
		m.cursor = 0
	}
}

func (m *Model) pageSize() int {
	if h := m.contentHeight() - 1; h > 1 {
		return h
	}
	return 1
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) setStatus(s string) {
	m.status = s
	if m.debugLog != nil {
		fmt.Fprintf(m.debugLog, "%s feedview: %s\n",
			time.Now().Format("2006-01-02T15:04:05"), s)
	}
}

func (m *Model) noteChange(format string, args ...any) {
	m.lastChange = fmt.Sprintf(format, args...)
}

// BeginUpdates implements coordinator.Delegate.
func (m *Model) BeginUpdates() {}

// EndUpdates implements coordinator.Delegate. The feed has no animation
// settle time, so the completion fires immediately.
func (m *Model) EndUpdates(animated bool, completion func(bool)) {
	if completion != nil {
		completion(true)
	}
	m.clampCursor()
}

// DidInsertSections implements coordinator.SectionObserver.
func (m *Model) DidInsertSections(set cell.IndexSet, opts coordinator.AnimationOptions) {
	m.noteChange("+%d sections", len(set))
}

// DidDeleteSections implements coordinator.SectionObserver.
func (m *Model) DidDeleteSections(set cell.IndexSet, opts coordinator.AnimationOptions) {
	m.noteChange("-%d sections", len(set))
	m.clampCursor()
}

// DidInsertNodes implements coordinator.NodeObserver.
func (m *Model) DidInsertNodes(nodes []*cell.Node, paths []cell.Path, opts coordinator.AnimationOptions) {
	m.noteChange("+%d rows", len(nodes))
}

// DidDeleteNodes implements coordinator.NodeObserver.
func (m *Model) DidDeleteNodes(nodes []*cell.Node, paths []cell.Path, opts coordinator.AnimationOptions) {
	m.noteChange("-%d rows", len(nodes))
	m.clampCursor()
}

const (
	kindHeader = iota
	kindItem
	kindPlaceholder
	kindBlank
)

type lineRef struct {
	kind    int
	section int
	row     int
	offset  int
	flat    int
}

// buildLines arranges every section at the current width and flattens the
// feed into scrollable line descriptors. Text is rendered later, only for
// the visible window.
func (m *Model) buildLines(snap *elements.Store) []lineRef {
	width := m.contentWidth()
	lines := make([]lineRef, 0, snap.TotalItems()+2*snap.NumberOfSections())
	flat := 0
	for s := 0; s < snap.NumberOfSections(); s++ {
		lines = append(lines, lineRef{kind: kindHeader, section: s})
		nodes := snap.Items(s)
		layout.Stack(nodes, width)
		if len(nodes) == 0 {
			lines = append(lines, lineRef{kind: kindPlaceholder, section: s})
		}
		for r, n := range nodes {
			h := n.Frame().Height
			if h <= 0 {
				h = 1 // rows that failed to measure still occupy a line
			}
			for off := 0; off < h; off++ {
				lines = append(lines, lineRef{kind: kindItem, section: s, row: r, offset: off, flat: flat})
			}
			flat++
		}
		if s < snap.NumberOfSections()-1 {
			lines = append(lines, lineRef{kind: kindBlank})
		}
	}
	return lines
}

func (m *Model) ensureVisible(lines []lineRef) {
	height := m.contentHeight()
	maxScroll := len(lines) - height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.cursor >= 0 {
		first, last := -1, -1
		for i, ln := range lines {
			if ln.kind == kindItem && ln.flat == m.cursor {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first >= 0 {
			if first < m.scroll {
				m.scroll = first
			}
			if last >= m.scroll+height {
				m.scroll = last - height + 1
			}
		}
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	return m.renderFeed() + "\n" + m.renderFooter()
}

func (m *Model) renderFeed() string {
	snap := m.coord.CompletedNodes()
	lines := m.buildLines(snap)
	m.ensureVisible(lines)

	height := m.contentHeight()
	accents := accentRamp(snap.NumberOfSections())
	out := make([]string, 0, height)

	cachedSection, cachedRow := -1, -1
	var cachedLines []string

	end := m.scroll + height
	if end > len(lines) {
		end = len(lines)
	}
	for i := m.scroll; i < end; i++ {
		ln := lines[i]
		switch ln.kind {
		case kindHeader:
			name := m.sectionName(ln.section)
			count := snap.NumberOfItems(ln.section)
			out = append(out,
				m.styles.Header.Foreground(accents[ln.section]).Render(name)+
					m.styles.Subtle.Render(fmt.Sprintf("  %d", count)))
		case kindPlaceholder:
			out = append(out, m.styles.Placeholder.Render("no entries"))
		case kindBlank:
			out = append(out, "")
		case kindItem:
			if ln.section != cachedSection || ln.row != cachedRow {
				cachedSection, cachedRow = ln.section, ln.row
				cachedLines = renderNode(snap.Items(ln.section)[ln.row])
			}
			text := ""
			if ln.offset < len(cachedLines) {
				text = cachedLines[ln.offset]
			}
			style := m.styles.Row
			if ln.flat == m.cursor {
				style = m.styles.SelectedRow
			}
			out = append(out, style.Render(text))
		}
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func renderNode(n *cell.Node) []string {
	switch content := n.Content().(type) {
	case layout.Text:
		return strings.Split(content.Render(n.Frame().Width), "\n")
	case nil:
		return []string{""}
	default:
		return []string{fmt.Sprintf("%v", content)}
	}
}

func (m *Model) sectionName(section int) string {
	if section < len(m.feed.sections) {
		return m.feed.sections[section].name
	}
	return fmt.Sprintf("Section %d", section+1)
}

func (m *Model) renderFooter() string {
	var top string
	switch m.mode {
	case modeAddEntry:
		top = m.styles.Prompt.Render("Add: ") + m.input.View()
	case modeAddSection:
		top = m.styles.Prompt.Render("Section: ") + m.input.View()
	default:
		top = m.styles.Subtle.Render("a add  S section  x delete  r reload  q quit")
	}

	parts := []string{}
	if m.loading {
		parts = append(parts, m.coord.Phase().String())
	}
	if m.lastChange != "" {
		parts = append(parts, m.lastChange)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return top + "\n" + m.styles.Status.Render(strings.Join(parts, "  "))
}

// RunModel runs a feed model to completion and tears it down afterwards.
func RunModel(m *Model) error {
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Run launches the interactive feed over a journal.
func Run(j *source.Journal) error {
	return RunModel(NewJournal(j))
}

// RunStatic launches the interactive feed over an in-memory source.
func RunStatic(s *source.Static) error {
	return RunModel(New(s))
}
