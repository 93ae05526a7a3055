package ui

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/favx/internal/favorites"
	"github.com/desertthunder/favx/internal/formatter"
	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/router"
	"github.com/desertthunder/favx/internal/services"
	"github.com/desertthunder/favx/internal/shared"
)

const msgSessionExpired = "Session expired, please sign in again"

// Session is the part of session.Manager the TUI drives.
type Session interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Logout() error
	IsAuthenticated() bool
	CurrentUser() *models.User
	LastFailure() string
	Snapshot() models.Session
}

// Collection is the part of favorites.Manager the TUI drives.
type Collection interface {
	Fetch(ctx context.Context) error
	Items() []models.FavoriteItem
	Update(ctx context.Context, id models.FlexID, in models.FavoriteInput) (*favorites.UpdateResult, error)
	Delete(ctx context.Context, id models.FlexID) (bool, error)
	Clear()
	Snapshot() models.FavoritesCollection
}

const (
	fieldUsername = iota
	fieldPassword
)

// Model represents the TUI application state. The current view is the current route.
type Model struct {
	ctx     context.Context
	session Session
	favs    Collection
	router  *router.Router
	ready   <-chan struct{}
	logger  *log.Logger
	copy    func(string) error
	open    func(string) error
	pending tea.Cmd

	route  router.Route
	width  int
	height int
	inputs []textinput.Model
	focus  int
	list   list.Model
	busy   bool
	notice string
	err    string
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI model and resolves the initial route.
//
// ready, when non-nil, is the channel returned by session.Manager.Initialize; the
// current route is re-checked once it closes.
func NewModel(ctx context.Context, sess Session, favs Collection, ready <-chan struct{}) *Model {
	m := &Model{
		ctx:     ctx,
		session: sess,
		favs:    favs,
		router:  router.New(),
		ready:   ready,
		logger:  shared.NewDiscardLogger(),
		copy:    clipboard.WriteAll,
		open:    shared.OpenBrowser,
		inputs:  newInputs(),
		help:    help.New(),
		keys:    newKeyMap(),
	}

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Favorites"
	m.list.SetShowHelp(false)
	m.list.DisableQuitKeybindings()

	m.pending = m.navigate(router.PathHome)
	return m
}

// SetLogger directs navigation and command logs to l.
func (m *Model) SetLogger(l *log.Logger) {
	if l != nil {
		m.logger = l
	}
}

// Route returns the route currently shown.
func (m *Model) Route() router.Route { return m.route }

func newInputs() []textinput.Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 80
	username.Width = 30
	username.Cursor.SetMode(cursor.CursorStatic)

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 30
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Cursor.SetMode(cursor.CursorStatic)

	return []textinput.Model{username, password}
}

// Init runs the initial route's load and waits for the session restore.
func (m *Model) Init() tea.Cmd {
	cmd := m.pending
	m.pending = nil
	return tea.Batch(cmd, m.waitReady())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.route.Path {
		case router.PathLogin, router.PathRegister:
			return m.handleFormKeys(msg)
		case router.PathFavorites:
			return m.handleFavoritesKeys(msg)
		default:
			return m.handleHomeKeys(msg)
		}
	}

	return m.updateActive(msg)
}

// navigate runs the guard for path and switches to the resulting route.
func (m *Model) navigate(path string) tea.Cmd {
	route, decision, err := m.router.Navigate(path, m.session)
	if err != nil {
		m.err = err.Error()
		return nil
	}
	m.logger.Debug("navigate", "path", path, "decision", decision, "route", route.Name)

	m.route = route
	m.notice, m.err = "", ""

	switch route.Path {
	case router.PathLogin, router.PathRegister:
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
		m.setFocus(fieldUsername)
		return nil
	default:
		return m.fetch()
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionReady:
		m.ready = nil
		expired := !m.session.IsAuthenticated() && m.session.LastFailure() != ""
		var cmd tea.Cmd
		if router.Guard(m.route.Meta, m.session.IsAuthenticated()) != router.Proceed {
			cmd = m.navigate(m.route.Path)
		}
		if expired {
			m.err = msgSessionExpired
		}
		return m, cmd

	case MsgAuthDone:
		m.busy = false
		res := msg.data.(authResult)
		if res.err != nil {
			m.err = m.session.Snapshot().Error
			if m.err == "" {
				m.err = res.err.Error()
			}
			return m, nil
		}
		if res.action == "register" {
			username := m.inputs[fieldUsername].Value()
			cmd := m.navigate(router.PathLogin)
			m.inputs[fieldUsername].SetValue(username)
			m.setFocus(fieldPassword)
			m.notice = "Account created. Sign in to continue."
			return m, cmd
		}
		cmd := m.navigate(router.PathHome)
		if user := m.session.CurrentUser(); user != nil {
			m.notice = fmt.Sprintf("Signed in as %s", user.Username)
		}
		return m, cmd

	case MsgFavoritesFetched, MsgFavoriteChanged:
		m.busy = false
		if err := msg.err(); err != nil {
			if services.IsStatus(err, http.StatusUnauthorized) {
				return m, m.expire()
			}
			m.err = m.favs.Snapshot().Error
		} else if n := msg.notice(); n != "" {
			m.notice = n
		}
		return m, m.syncList()

	case MsgExternal:
		if err := msg.err(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.notice = msg.notice()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if m.route.Path == router.PathRegister {
			return m, m.navigate(router.PathLogin)
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.switchTo):
		if m.route.Path == router.PathLogin {
			return m, m.navigate(router.PathRegister)
		}
		return m, m.navigate(router.PathLogin)
	case key.Matches(msg, m.keys.enter):
		if m.focus < len(m.inputs)-1 {
			m.setFocus(m.focus + 1)
			return m, nil
		}
		return m, m.submit()
	case key.Matches(msg, m.keys.next):
		m.setFocus((m.focus + 1) % len(m.inputs))
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.setFocus((m.focus - 1 + len(m.inputs)) % len(m.inputs))
		return m, nil
	}
	return m.updateActive(msg)
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.favorites):
		return m, m.navigate(router.PathFavorites)
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetch()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}
	return m, nil
}

func (m *Model) handleFavoritesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(msg, m.keys.back):
		if m.list.FilterState() == list.FilterApplied {
			return m.updateActive(msg)
		}
		return m, m.navigate(router.PathHome)
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetch()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.del):
		if item, ok := m.selected(); ok {
			return m, m.delete(item)
		}
		return m, nil
	case key.Matches(msg, m.keys.status):
		if item, ok := m.selected(); ok {
			return m, m.cycleStatus(item)
		}
		return m, nil
	case key.Matches(msg, m.keys.copy):
		if item, ok := m.selected(); ok {
			return m, m.copyPoster(item)
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.selected(); ok {
			return m, m.openPoster(item)
		}
		return m, nil
	}
	return m.updateActive(msg)
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.route.Path {
	case router.PathLogin, router.PathRegister:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	case router.PathFavorites:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) selected() (models.FavoriteItem, bool) {
	if it, ok := m.list.SelectedItem().(favoriteItem); ok {
		return it.item, true
	}
	return models.FavoriteItem{}, false
}

func (m *Model) syncList() tea.Cmd {
	return m.list.SetItems(toListItems(m.favs.Items()))
}

// expire ends a session the server no longer accepts.
func (m *Model) expire() tea.Cmd {
	if err := m.session.Logout(); err != nil {
		m.logger.Warn("logout after expired session failed", "error", err)
	}
	m.favs.Clear()
	m.list.SetItems(nil)
	cmd := m.navigate(router.PathLogin)
	m.err = msgSessionExpired
	return cmd
}

// logout signs out and navigates home, which the guard turns into the login view.
func (m *Model) logout() tea.Cmd {
	err := m.session.Logout()
	m.favs.Clear()
	m.list.SetItems(nil)
	cmd := m.navigate(router.PathHome)
	if err != nil {
		m.err = err.Error()
	} else {
		m.notice = "Signed out"
	}
	return cmd
}

func (m *Model) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.err, m.notice = "", ""

	ctx, sess := m.ctx, m.session
	username := m.inputs[fieldUsername].Value()
	password := m.inputs[fieldPassword].Value()

	if m.route.Path == router.PathRegister {
		return func() tea.Msg {
			_, err := sess.Register(ctx, username, password)
			return authDoneMsg("register", err)
		}
	}
	return func() tea.Msg {
		_, err := sess.Login(ctx, username, password)
		return authDoneMsg("login", err)
	}
}

func (m *Model) fetch() tea.Cmd {
	m.busy = true
	ctx, favs := m.ctx, m.favs
	return func() tea.Msg {
		return favoritesFetchedMsg(favs.Fetch(ctx))
	}
}

func (m *Model) delete(item models.FavoriteItem) tea.Cmd {
	m.busy = true
	ctx, favs := m.ctx, m.favs
	return func() tea.Msg {
		_, err := favs.Delete(ctx, item.ID)
		return favoriteChangedMsg(fmt.Sprintf("Deleted %s", item.Title), err)
	}
}

func (m *Model) cycleStatus(item models.FavoriteItem) tea.Cmd {
	m.busy = true
	ctx, favs := m.ctx, m.favs
	in := item.Input()
	in.Status = item.Status.Next()
	return func() tea.Msg {
		_, err := favs.Update(ctx, item.ID, in)
		return favoriteChangedMsg(fmt.Sprintf("%s → %s", item.Title, formatter.StatusLabel(in.Status)), err)
	}
}

func (m *Model) copyPoster(item models.FavoriteItem) tea.Cmd {
	url := strings.TrimSpace(item.PosterPath)
	if url == "" {
		m.err = fmt.Sprintf("%s has no poster", item.Title)
		return nil
	}
	copyFn := m.copy
	return func() tea.Msg {
		if err := copyFn(url); err != nil {
			return externalMsg("", fmt.Errorf("clipboard unavailable: %w", err))
		}
		return externalMsg("Copied poster URL to clipboard", nil)
	}
}

func (m *Model) openPoster(item models.FavoriteItem) tea.Cmd {
	url := strings.TrimSpace(item.PosterPath)
	if url == "" {
		m.err = fmt.Sprintf("%s has no poster", item.Title)
		return nil
	}
	openFn := m.open
	return func() tea.Msg {
		return externalMsg("Opened poster in browser", openFn(url))
	}
}

func (m *Model) waitReady() tea.Cmd {
	if m.ready == nil {
		return nil
	}
	ready := m.ready
	return func() tea.Msg {
		<-ready
		return sessionReadyMsg()
	}
}

// View renders the UI based on the current route.
func (m *Model) View() string {
	var body string
	var bindings []key.Binding

	switch m.route.Path {
	case router.PathLogin:
		body = m.renderForm("Sign in")
		bindings = []key.Binding{m.keys.next, m.keys.enter, m.keys.switchTo, m.keys.forceQuit}
	case router.PathRegister:
		body = m.renderForm("Create account")
		bindings = []key.Binding{m.keys.next, m.keys.enter, m.keys.switchTo, m.keys.back}
	case router.PathFavorites:
		body = m.list.View()
		bindings = []key.Binding{m.keys.del, m.keys.status, m.keys.refresh, m.keys.copy, m.keys.open, m.keys.back, m.keys.quit}
	default:
		body = m.renderHome()
		bindings = []key.Binding{m.keys.favorites, m.keys.refresh, m.keys.logout, m.keys.quit}
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", body, m.renderStatus(), m.help.ShortHelpView(bindings))
}

func (m *Model) renderForm(title string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, styles.label.Render("Username"), m.inputs[fieldUsername].View()))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, styles.label.Render("Password"), m.inputs[fieldPassword].View()))
	return styles.box.Render(b.String())
}

func (m *Model) renderHome() string {
	var b strings.Builder

	name := "you"
	if user := m.session.CurrentUser(); user != nil {
		name = user.Username
	}
	b.WriteString(styles.title.Render(fmt.Sprintf("Welcome, %s", name)))
	b.WriteString("\n")

	items := m.favs.Items()
	counts := make(map[models.Status]int)
	for _, item := range items {
		counts[item.Status]++
	}

	b.WriteString(fmt.Sprintf("%d favorites\n", len(items)))
	for _, st := range models.Statuses {
		b.WriteString(fmt.Sprintf("\n%s %d", styles.label.Render(formatter.StatusLabel(st)), counts[st]))
	}
	return styles.box.Render(b.String())
}

func (m *Model) renderStatus() string {
	loading := m.session.Snapshot().Loading || m.favs.Snapshot().Loading
	switch {
	case m.err != "":
		return styles.err.Render(m.err)
	case loading:
		return styles.warn.Render("Loading…")
	case m.notice != "":
		return styles.ok.Render(m.notice)
	default:
		return ""
	}
}

// Run starts the TUI on the alternate screen and blocks until it exits.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	return err
}
