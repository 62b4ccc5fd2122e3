// Package tui provides the terminal user interface: an overview of all lists
// and a detail screen for the items of one list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"listkeep/internal/liststore"
	"listkeep/internal/utils"
)

// Store is the subset of liststore.ListStore the TUI drives.
type Store interface {
	Load(ctx context.Context) (liststore.Store, error)
	CreateList(ctx context.Context, snap liststore.Store, name string) (liststore.Store, error)
	DeleteList(ctx context.Context, snap liststore.Store, name string) (liststore.Store, error)
	AddItem(ctx context.Context, snap liststore.Store, listName, itemName string) (liststore.Store, error)
	DeleteItem(ctx context.Context, snap liststore.Store, listName, itemName string) (liststore.Store, error)
	Subscribe() (<-chan liststore.Store, func())
}

// Screen identifies the visible screen
type Screen int

const (
	ScreenLists Screen = iota
	ScreenDetail
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeConfirmDelete
	ModeHelp
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Back   key.Binding
	Add    key.Binding
	Delete key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "down")),
	Open:   key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter", "open list")),
	Back:   key.NewBinding(key.WithKeys("esc", "backspace", "h", "left"), key.WithHelp("esc", "back to lists")),
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model represents the TUI state
type Model struct {
	store Store
	ctx   context.Context
	now   func() time.Time

	// Data
	snap    liststore.Store
	current string // list shown on the detail screen
	loaded  bool

	// Selection
	screen     Screen
	listCursor int
	itemCursor int

	// Mode and input
	mode      Mode
	textInput textinput.Model

	// Status bar
	status    string
	statusErr bool

	updates <-chan liststore.Store
	cancel  func()

	// UI dimensions
	width  int
	height int

	// Styles
	titleStyle     lipgloss.Style
	subtitleStyle  lipgloss.Style
	paneStyle      lipgloss.Style
	selectedStyle  lipgloss.Style
	helpStyle      lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
	errorStyle     lipgloss.Style
}

// Option configures a Model
type Option func(*Model)

// WithClock replaces time.Now for the date subtitle.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithContext sets the context passed to store operations.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// ReloadMsg asks the model to reload the store, e.g. after another process changed it.
type ReloadMsg struct{}

// Message types
type loadedMsg struct {
	snap liststore.Store
	err  error
}

type opDoneMsg struct {
	snap    liststore.Store
	err     error
	success string
}

type updatedMsg struct {
	snap liststore.Store
}

// New creates a new TUI model
func New(s Store, opts ...Option) *Model {
	ti := textinput.New()
	ti.CharLimit = utils.MaxNameLength

	m := &Model{
		store:     s,
		ctx:       context.Background(),
		now:       time.Now,
		snap:      liststore.Store{},
		textInput: ti,
		screen:    ScreenLists,
		mode:      ModeNormal,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220")),
		subtitleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		paneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("220")).
			Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("52")).
			Foreground(lipgloss.Color("231")).
			Padding(0, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init loads the store and starts listening for updates
func (m *Model) Init() tea.Cmd {
	m.updates, m.cancel = m.store.Subscribe()
	return tea.Batch(m.load(), m.waitForUpdate())
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.store.Load(m.ctx)
		return loadedMsg{snap: snap, err: err}
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	ch := m.updates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return updatedMsg{snap: snap}
	}
}

// run executes a store operation against the current snapshot.
func (m *Model) run(success string, op func(liststore.Store) (liststore.Store, error)) tea.Cmd {
	snap := m.snap
	return func() tea.Msg {
		next, err := op(snap)
		return opDoneMsg{snap: next, err: err, success: success}
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return m, tea.Quit
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.loaded = true
		m.setSnapshot(msg.snap)
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case updatedMsg:
		m.setSnapshot(msg.snap)
		return m, m.waitForUpdate()

	case opDoneMsg:
		// Storage failures still carry a usable snapshot.
		if msg.snap != nil {
			m.setSnapshot(msg.snap)
		}
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.success)
		}
		return m, nil

	case ReloadMsg:
		return m, m.load()

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd:
			return m.handleAddMode(msg)
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		if m.screen == ScreenDetail {
			return m.handleDetailKeys(msg)
		}
		return m.handleListsKeys(msg)
	}

	if m.mode == ModeAdd {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleListsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Up):
		if m.listCursor > 0 {
			m.listCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.listCursor < len(m.snap)-1 {
			m.listCursor++
		}

	case key.Matches(msg, keys.Open):
		if m.listCursor < len(m.snap) {
			m.current = m.snap[m.listCursor].Name
			m.screen = ScreenDetail
			m.itemCursor = 0
			m.status = ""
		}

	case key.Matches(msg, keys.Add):
		m.openAddDialog("List name...")
		return m, textinput.Blink

	case key.Matches(msg, keys.Delete):
		if m.listCursor < len(m.snap) {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Reload):
		return m, m.load()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.currentItems()

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Back):
		m.screen = ScreenLists
		m.status = ""

	case key.Matches(msg, keys.Up):
		if m.itemCursor > 0 {
			m.itemCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.itemCursor < len(items)-1 {
			m.itemCursor++
		}

	case key.Matches(msg, keys.Add):
		m.openAddDialog("Item name...")
		return m, textinput.Blink

	case key.Matches(msg, keys.Delete):
		if m.itemCursor < len(items) {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Reload):
		return m, m.load()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}
	return m, nil
}

func (m *Model) openAddDialog(placeholder string) {
	m.mode = ModeAdd
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.Focus()
}

func (m *Model) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.mode = ModeNormal
		m.textInput.Blur()
		if m.screen == ScreenDetail {
			name, err := utils.ValidateName("item", m.textInput.Value())
			if err != nil {
				m.setError(err)
				return m, nil
			}
			list := m.current
			return m, m.run(fmt.Sprintf("Added '%s'", name), func(snap liststore.Store) (liststore.Store, error) {
				return m.store.AddItem(m.ctx, snap, list, name)
			})
		}
		name, err := utils.ValidateName("list", m.textInput.Value())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m, m.run(fmt.Sprintf("Created list '%s'", name), func(snap liststore.Store) (liststore.Store, error) {
			return m.store.CreateList(m.ctx, snap, name)
		})

	case tea.KeyEsc:
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		if m.screen == ScreenDetail {
			items := m.currentItems()
			if m.itemCursor >= len(items) {
				return m, nil
			}
			list, item := m.current, items[m.itemCursor].ItemName
			return m, m.run(fmt.Sprintf("Deleted '%s'", item), func(snap liststore.Store) (liststore.Store, error) {
				return m.store.DeleteItem(m.ctx, snap, list, item)
			})
		}
		if m.listCursor >= len(m.snap) {
			return m, nil
		}
		name := m.snap[m.listCursor].Name
		return m, m.run(fmt.Sprintf("Deleted list '%s'", name), func(snap liststore.Store) (liststore.Store, error) {
			return m.store.DeleteList(m.ctx, snap, name)
		})

	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

// setSnapshot replaces the displayed snapshot and clamps the cursors.
func (m *Model) setSnapshot(snap liststore.Store) {
	if snap == nil {
		snap = liststore.Store{}
	}
	m.snap = snap
	if m.listCursor >= len(m.snap) {
		m.listCursor = max(len(m.snap)-1, 0)
	}
	if items := m.currentItems(); m.itemCursor >= len(items) {
		m.itemCursor = max(len(items)-1, 0)
	}
}

// currentItems returns the items of the list on the detail screen,
// looked up by name in the latest snapshot.
func (m *Model) currentItems() []liststore.Item {
	if l, ok := m.snap.Find(m.current); ok {
		return l.Items
	}
	return nil
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.statusErr = true
	var ews *utils.ErrorWithSuggestion
	switch {
	case errors.As(err, &ews):
		m.status = ews.Err.Error()
	case liststore.IsStorageError(err):
		m.status = "Storage error: " + err.Error()
	default:
		m.status = err.Error()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderAddDialog()
	case ModeConfirmDelete:
		return m.renderConfirmDeleteDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	}

	var header, body string
	if m.screen == ScreenDetail {
		header = m.titleStyle.Render(m.current) + "\n" + m.subtitleStyle.Render("Item Details")
		body = m.renderItems()
	} else {
		header = m.titleStyle.Render("Lists") + "\n" + m.subtitleStyle.Render(m.now().Format("January 2, 2006"))
		body = m.renderLists()
	}

	pane := m.paneStyle.Width(m.width - 2).Height(max(m.height-6, 1)).Render(body)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(pane)
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderLists() string {
	if !m.loaded {
		return "Loading..."
	}
	if len(m.snap) == 0 {
		return m.helpStyle.Render("No lists yet. Press 'a' to add one.")
	}

	var b strings.Builder
	for i, l := range m.snap {
		cursor := " "
		name := l.Name
		if i == m.listCursor {
			cursor = ">"
			name = m.selectedStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, name, m.helpStyle.Render(fmt.Sprintf("(%d)", len(l.Items)))))
	}
	return b.String()
}

func (m *Model) renderItems() string {
	if _, ok := m.snap.Find(m.current); !ok {
		return m.helpStyle.Render("This list no longer exists. Press esc to go back.")
	}
	items := m.currentItems()
	if len(items) == 0 {
		return m.helpStyle.Render("No items. Press 'a' to add one.")
	}

	var b strings.Builder
	for i, it := range items {
		cursor := " "
		name := it.ItemName
		if i == m.itemCursor {
			cursor = ">"
			name = m.selectedStyle.Render(name)
		}
		b.WriteString(cursor + " • " + name + "\n")
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	if m.status != "" && m.statusErr {
		return m.errorStyle.Width(m.width).Render(m.status)
	}

	left := m.status
	right := "a:add  d:delete  ?:help  q:quit"
	if m.screen == ScreenDetail {
		right = "a:add  d:delete  esc:back  q:quit"
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderAddDialog() string {
	title := "Add list?"
	if m.screen == ScreenDetail {
		title = "Add item to " + m.current
	}
	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render("Enter: confirm  Esc: cancel"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderConfirmDeleteDialog() string {
	prompt := ""
	if m.screen == ScreenDetail {
		if items := m.currentItems(); m.itemCursor < len(items) {
			prompt = fmt.Sprintf("Delete item '%s'?", items[m.itemCursor].ItemName)
		}
	} else if m.listCursor < len(m.snap) {
		prompt = fmt.Sprintf("Delete list '%s'?", m.snap[m.listCursor].Name)
	}
	dialog := m.dialogStyle.Render(
		prompt + "\n\n" +
			m.helpStyle.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderHelpDialog() string {
	var b strings.Builder
	b.WriteString("Help - Key Bindings\n\n")
	for _, k := range []key.Binding{keys.Up, keys.Down, keys.Open, keys.Back, keys.Add, keys.Delete, keys.Reload, keys.Help, keys.Quit} {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %-7s %s\n", h.Key, h.Desc))
	}
	b.WriteString("\nPress any key to close")
	return m.centerDialog(m.dialogStyle.Render(b.String()))
}

func (m *Model) centerDialog(dialog string) string {
	dialogHeight := lipgloss.Height(dialog)
	dialogWidth := lipgloss.Width(dialog)

	topPad := max((m.height-dialogHeight)/2, 0)
	leftPad := max((m.width-dialogWidth)/2, 0)

	return lipgloss.NewStyle().PaddingTop(topPad).PaddingLeft(leftPad).Render(dialog)
}
