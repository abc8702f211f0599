package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/smarteletron/eletron/internal/browser"
	"github.com/smarteletron/eletron/internal/listing"
	"github.com/smarteletron/eletron/internal/routes"
	"github.com/smarteletron/eletron/internal/session"
	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

// Session is what the UI needs from the session manager.
type Session interface {
	IsAuthenticated() bool
	HasPermission(name string) bool
	User() (session.User, bool)
	Login(resp domain.LoginResponse) error
	Logout(reason session.Reason)
}

// LoggedOutMsg tells the app the session ended outside the UI (token expiry,
// a 401 from the backend). Send it from the session's logout callback.
type LoggedOutMsg struct {
	Reason session.Reason
}

// Options configures the app.
type Options struct {
	PageSize    int
	Routes      routes.Table
	BusinessURL string
	LegacyURL   string
	Logger      *zerolog.Logger
}

// page is one screen of the console. Implementations are values; every
// method returns the updated page.
type page interface {
	mount() (page, tea.Cmd)
	Update(msg tea.Msg) (page, tea.Cmd)
	View() string
	Close() page
	resize(width, height int) page
	editing() bool
	helpKeys() string
}

// chrome is the number of lines around the page body: header(2) + tabs(1) +
// spacer(1) + help(1).
const chrome = 5

// App is the root Bubbletea model.
type App struct {
	client     *client.Client
	session    Session
	table      routes.Table
	pages      pageFactory
	login      loginModel
	authed     bool
	visible    []routes.Route
	active     int
	page       page
	helpOpen   bool
	helpCursor int
	helpItems  []helpItem
	startCmd   tea.Cmd
	width      int
	height     int
	frame      int
}

// NewApp creates the console. If s already holds a valid session the first
// page is mounted right away, otherwise the login screen is shown.
func NewApp(c *client.Client, s Session, opts Options) App {
	if len(opts.Routes.All()) == 0 {
		opts.Routes = routes.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = listing.DefaultPageSize
	}
	a := App{
		client:  c,
		session: s,
		table:   opts.Routes,
		pages:   pageFactory{client: c, pageSize: opts.PageSize, log: opts.Logger},
		login:   newLoginModel(c, s, ""),
	}
	if opts.BusinessURL != "" {
		a.helpItems = append(a.helpItems, helpItem{"Business API", opts.BusinessURL, opts.BusinessURL})
	}
	if opts.LegacyURL != "" {
		a.helpItems = append(a.helpItems, helpItem{"Legacy API", opts.LegacyURL, opts.LegacyURL})
	}
	if s != nil && s.IsAuthenticated() {
		var cmd tea.Cmd
		a, cmd = a.enter()
		a.startCmd = cmd
	}
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.startCmd)
}

// enter shows the pages the current user may open, starting with the first.
func (a App) enter() (App, tea.Cmd) {
	a.authed = true
	a.visible = a.table.Visible(a.session.HasPermission)
	a.active = 0
	if len(a.visible) == 0 {
		return a, nil
	}
	return a.open(0)
}

// open unmounts the current page and mounts the page of visible route i.
func (a App) open(i int) (App, tea.Cmd) {
	if a.page != nil {
		a.page = a.page.Close()
		a.page = nil
	}
	a.active = i
	p, ok := a.pages.build(a.visible[i].Key)
	if !ok {
		return a, nil
	}
	p = p.resize(a.width, a.height-chrome)
	var cmd tea.Cmd
	a.page, cmd = p.mount()
	return a, cmd
}

// toLogin tears the console down and shows the login screen.
func (a App) toLogin(reason session.Reason) App {
	if !a.authed {
		if a.login.notice == "" && !a.login.form.submitting {
			a.login.notice = logoutNotice(reason)
		}
		return a
	}
	if a.page != nil {
		a.page = a.page.Close()
		a.page = nil
	}
	a.authed = false
	a.visible = nil
	a.active = 0
	a.helpOpen = false
	a.login = newLoginModel(a.client, a.session, logoutNotice(reason))
	return a
}

func logoutNotice(reason session.Reason) string {
	switch reason {
	case session.LogoutExpired:
		return "Your session expired. Sign in again."
	case session.LogoutUnauthorized:
		return "The server rejected your session. Sign in again."
	case session.LogoutStorage:
		return "The saved session could not be used. Sign in again."
	}
	return "You have been logged out."
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.page != nil {
			a.page = a.page.resize(msg.Width, msg.Height-chrome)
		}
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case LoggedOutMsg:
		return a.toLogin(msg.Reason), nil

	case loggedInMsg:
		return a.enter()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(a.helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				if a.helpCursor < len(a.helpItems) {
					if item := a.helpItems[a.helpCursor]; item.url != "" {
						browser.Open(item.url) //nolint:errcheck // best-effort browser open
					}
				}
			}
			return a, nil
		}

		if !a.authed {
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}

		// A stale screen must not outlive the token.
		if !a.session.IsAuthenticated() {
			a.session.Logout(session.LogoutExpired)
			return a.toLogin(session.LogoutExpired), nil
		}

		if !a.isEditing() {
			switch key := msg.String(); key {
			case "h":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q":
				return a, tea.Quit
			case "L":
				a.session.Logout(session.LogoutUser)
				return a.toLogin(session.LogoutUser), nil
			case "1", "2", "3", "4", "5", "6", "7", "8", "9":
				i := int(key[0] - '1')
				if i < len(a.visible) && (i != a.active || a.page == nil) {
					return a.open(i)
				}
				return a, nil
			}
		}
	}

	if !a.authed {
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}
	if a.page == nil {
		return a, nil
	}
	var cmd tea.Cmd
	a.page, cmd = a.page.Update(msg)
	return a, cmd
}

func (a App) isEditing() bool {
	return a.page != nil && a.page.editing()
}

func (a App) View() string {
	header := center(renderShimmerLogo(a.frame), a.width)
	if user, ok := a.userLine(); ok {
		header += "\n" + center(user, a.width)
	} else {
		header += "\n"
	}

	var body, help, tabs string
	switch {
	case a.helpOpen:
		body = helpView(a.helpItems, a.helpCursor)
		help = helpBar("j/k", "nav", "enter", "open", "esc", "close")
	case !a.authed:
		body = a.login.View()
		help = helpBar("tab", "next field", "enter", "sign in", "ctrl+c", "quit")
	case len(a.visible) == 0:
		body = "\n  " + warnStyle.Render("Your roles give access to no page. Ask an administrator for permissions.")
		help = helpBar("L", "log out", "q", "quit")
	default:
		tabs = a.tabBar()
		if a.page != nil {
			body = a.page.View()
			help = a.page.helpKeys()
			if !a.isEditing() {
				help += "  " + helpBar("h", "help", "L", "log out", "q", "quit")
			}
		}
	}

	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n\n %s", header, tabs, body, help)
}

func (a App) userLine() (string, bool) {
	if !a.authed || a.session == nil {
		return "", false
	}
	u, ok := a.session.User()
	if !ok {
		return "", false
	}
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	line := selectedStyle.Render(name)
	if len(u.Roles) > 0 {
		line += metaStyle.Render(" · " + strings.Join(u.Roles, ", "))
	}
	return line, true
}

func (a App) tabBar() string {
	if len(a.visible) == 0 {
		return ""
	}
	labels := make([]string, len(a.visible))
	for i, r := range a.visible {
		key := fmt.Sprintf("%d", i+1)
		if i == a.active {
			labels[i] = accentStyle.Render(key) + " " + selectedStyle.Underline(true).Render(r.Title)
		} else {
			labels[i] = metaStyle.Render(key) + " " + dimStyle.Render(r.Title)
		}
	}
	return center(strings.Join(labels, "   "), a.width)
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
