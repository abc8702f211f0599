package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smarteletron/eletron/internal/routes"
	"github.com/smarteletron/eletron/internal/session"
	"github.com/smarteletron/eletron/pkg/domain"
)

func newTestApp(s *fakeSession) App {
	a := NewApp(nil, s, Options{})
	a.width = 100
	a.height = 40
	return a
}

func TestAppShowsLoginWhenLoggedOut(t *testing.T) {
	a := newTestApp(&fakeSession{})
	if a.authed {
		t.Fatal("expected logged-out app")
	}
	if a.page != nil {
		t.Error("no page should be mounted before login")
	}
	view := a.View()
	if !strings.Contains(view, "Sign in") {
		t.Errorf("expected login screen, got:\n%s", view)
	}
}

func TestAppRestoredSessionMountsFirstPage(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermManageStores, routes.PermViewProducts))
	if !a.authed {
		t.Fatal("expected authenticated app")
	}
	if len(a.visible) != 2 || a.visible[0].Key != routes.Stores {
		t.Fatalf("visible = %v", a.visible)
	}
	if _, ok := a.page.(listPage[domain.Store]); !ok {
		t.Errorf("page = %T, want stores list", a.page)
	}
	if a.startCmd == nil {
		t.Error("expected a fetch command for the first page")
	}
}

func TestAppTabsFollowPermissions(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermViewDashboard, routes.PermManageStores))
	view := a.View()
	for _, want := range []string{"Dashboard", "Stores", "Ana Souza"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view, got:\n%s", want, view)
		}
	}
	for _, hidden := range []string{"Users", "Roles", "Notifications"} {
		if strings.Contains(view, hidden) {
			t.Errorf("tab %q must be hidden without its permission", hidden)
		}
	}
}

func TestAppNoVisiblePages(t *testing.T) {
	a := newTestApp(loggedIn())
	if a.page != nil {
		t.Error("expected no page without permissions")
	}
	if view := a.View(); !strings.Contains(view, "no page") {
		t.Errorf("expected explanation, got:\n%s", view)
	}
}

func TestAppTabSwitchClosesPreviousPage(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermViewDashboard, routes.PermManageStores))
	first, ok := a.page.(dashboardModel)
	if !ok {
		t.Fatalf("page = %T, want dashboard", a.page)
	}

	model, cmd := a.Update(key("2"))
	a = model.(App)
	if a.active != 1 {
		t.Fatalf("active = %d, want 1", a.active)
	}
	if _, ok := a.page.(listPage[domain.Store]); !ok {
		t.Fatalf("page = %T, want stores list", a.page)
	}
	if cmd == nil {
		t.Error("expected the stores page to fetch on mount")
	}

	// A late dashboard result must not reach the new page or resurrect the old one.
	model, _ = a.Update(dashboardLoadedMsg{owner: first.id, summary: &domain.DashboardSummary{SalesCount: 9}})
	a = model.(App)
	if _, ok := a.page.(listPage[domain.Store]); !ok {
		t.Errorf("page changed to %T after stale message", a.page)
	}
}

func TestAppSameTabDoesNotRemount(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermManageStores))
	_, cmd := a.Update(key("1"))
	if cmd != nil {
		t.Error("pressing the active tab should not refetch")
	}
	_, cmd = a.Update(key("9"))
	if cmd != nil {
		t.Error("a tab number without a page should be ignored")
	}
}

func TestAppLoggedOutMsgReturnsToLogin(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermManageStores))

	model, _ := a.Update(LoggedOutMsg{Reason: session.LogoutExpired})
	a = model.(App)
	if a.authed || a.page != nil {
		t.Fatal("expected login screen after LoggedOutMsg")
	}
	if !strings.Contains(a.View(), "expired") {
		t.Errorf("expected expiry notice, got:\n%s", a.View())
	}
}

func TestAppLoggedOutMsgTwiceKeepsNotice(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermManageStores))
	model, _ := a.Update(LoggedOutMsg{Reason: session.LogoutUnauthorized})
	model, _ = model.(App).Update(LoggedOutMsg{Reason: session.LogoutUser})
	if view := model.(App).View(); !strings.Contains(view, "rejected") {
		t.Errorf("expected first notice to stay, got:\n%s", view)
	}
}

func TestAppLogoutKey(t *testing.T) {
	s := loggedIn(routes.PermManageStores)
	a := newTestApp(s)

	model, _ := a.Update(key("L"))
	a = model.(App)
	if a.authed {
		t.Fatal("expected logged-out app after L")
	}
	if len(s.logouts) != 1 || s.logouts[0] != session.LogoutUser {
		t.Errorf("logouts = %v, want [user]", s.logouts)
	}
}

func TestAppExpiredTokenOnKeyPress(t *testing.T) {
	s := loggedIn(routes.PermManageStores)
	a := newTestApp(s)
	s.authed = false // token expired, watch has not fired yet

	model, _ := a.Update(key("j"))
	a = model.(App)
	if a.authed {
		t.Fatal("expected login screen once the token is gone")
	}
	if len(s.logouts) != 1 || s.logouts[0] != session.LogoutExpired {
		t.Errorf("logouts = %v, want [expired]", s.logouts)
	}
}

func TestAppLoginFlow(t *testing.T) {
	api, c := newFakeAPI(t)
	s := &fakeSession{}
	a := NewApp(c, s, Options{})

	for _, k := range []string{"a", "n", "a", "tab", "s", "e", "c", "r", "e", "t"} {
		model, _ := a.Update(key(k))
		a = model.(App)
	}
	model, cmd := a.Update(key("enter"))
	a = model.(App)
	if cmd == nil {
		t.Fatal("expected login command")
	}
	a = settleApp(t, a, cmd)

	if !a.authed {
		t.Fatalf("expected console after login, view:\n%s", a.View())
	}
	if len(s.logins) != 1 || s.logins[0].Token != "tok" {
		t.Errorf("session logins = %+v", s.logins)
	}
	if _, ok := a.page.(dashboardModel); !ok {
		t.Fatalf("page = %T, want dashboard", a.page)
	}
	if got := api.requests("GET /api/business/dashboard/summary"); len(got) != 1 {
		t.Errorf("dashboard fetched %d times, want 1", len(got))
	}
	if view := a.View(); !strings.Contains(view, "1,234,567.50") {
		t.Errorf("expected sales total on dashboard, got:\n%s", view)
	}
}

func TestAppLoginBadCredentials(t *testing.T) {
	_, c := newFakeAPI(t)
	s := &fakeSession{}
	a := NewApp(c, s, Options{})

	for _, k := range []string{"a", "n", "a", "tab", "x"} {
		model, _ := a.Update(key(k))
		a = model.(App)
	}
	model, cmd := a.Update(key("enter"))
	a = settleApp(t, model.(App), cmd)

	if a.authed {
		t.Fatal("bad credentials must not log in")
	}
	if !strings.Contains(a.View(), "invalid username or password") {
		t.Errorf("expected credentials error, got:\n%s", a.View())
	}
	if a.login.form.inputs[1].value != "" {
		t.Error("password should be cleared after a failed login")
	}
}

func TestAppLoginRequiresFields(t *testing.T) {
	a := newTestApp(&fakeSession{})
	model, cmd := a.Update(key("enter"))
	model, cmd = model.(App).Update(key("enter"))
	if cmd != nil {
		t.Error("empty credentials must not call the backend")
	}
	if !strings.Contains(model.(App).View(), "required") {
		t.Errorf("expected validation message, got:\n%s", model.(App).View())
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a := NewApp(nil, loggedIn(routes.PermManageStores), Options{BusinessURL: "http://erp.local/api/business"})

	model, _ := a.Update(key("h"))
	a = model.(App)
	if !a.helpOpen {
		t.Fatal("expected help overlay")
	}
	if !strings.Contains(a.View(), "Business API") {
		t.Errorf("expected link in help, got:\n%s", a.View())
	}
	model, _ = a.Update(key("esc"))
	if model.(App).helpOpen {
		t.Error("esc should close help")
	}
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermManageStores))
	_, cmd := a.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q'")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppQuitKeyTypesWhileEditing(t *testing.T) {
	a := newTestApp(loggedIn(routes.PermManageStores))
	model, _ := a.Update(key("/"))
	a = model.(App)
	if !a.isEditing() {
		t.Fatal("expected filter editing after '/'")
	}
	model, cmd := a.Update(key("q"))
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatal("q must be typed into the filter, not quit")
		}
	}
	stores := model.(App).page.(listPage[domain.Store])
	if got := stores.ctl.PendingFilters()["code"]; got != "q" {
		t.Errorf("pending code filter = %q, want q", got)
	}
}
