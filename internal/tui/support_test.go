package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smarteletron/eletron/internal/session"
	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

// fakeSession is an in-memory Session.
type fakeSession struct {
	authed   bool
	user     session.User
	logins   []domain.LoginResponse
	logouts  []session.Reason
	loginErr error
}

func (s *fakeSession) IsAuthenticated() bool { return s.authed }

func (s *fakeSession) HasPermission(name string) bool {
	if !s.authed {
		return false
	}
	for _, p := range s.user.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

func (s *fakeSession) User() (session.User, bool) { return s.user, s.authed }

func (s *fakeSession) Login(resp domain.LoginResponse) error {
	if s.loginErr != nil {
		return s.loginErr
	}
	s.logins = append(s.logins, resp)
	s.authed = true
	s.user = session.User{Username: resp.Username, DisplayName: resp.Name, Roles: resp.Roles, Permissions: resp.Permissions}
	return nil
}

func (s *fakeSession) Logout(reason session.Reason) {
	s.logouts = append(s.logouts, reason)
	s.authed = false
	s.user = session.User{}
}

func loggedIn(perms ...string) *fakeSession {
	return &fakeSession{authed: true, user: session.User{Username: "ana", DisplayName: "Ana Souza", Roles: []string{"ADMIN"}, Permissions: perms}}
}

// fakeAPI serves the business endpoints the console uses.
type fakeAPI struct {
	mu           sync.Mutex
	seen         []string
	stores       []domain.Store
	created      []domain.Store
	createStatus int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *client.Client) {
	t.Helper()
	api := &fakeAPI{
		stores: []domain.Store{
			{ID: 1, Code: "001", Name: "Centro", City: "Fortaleza", State: "CE", Active: true},
			{ID: 2, Code: "002", Name: "Aldeota", City: "Fortaleza", State: "CE", Active: true},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	c := client.New(client.Config{
		BusinessURL: srv.URL + "/api/business",
		LegacyURL:   srv.URL + "/api/legacy",
		Token:       func() string { return "tok" },
	})
	return api, c
}

func (api *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	api.seen = append(api.seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
	api.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/business")
	switch {
	case r.Method == http.MethodPost && path == "/auth/login":
		var req domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req.Username != "ana" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(domain.LoginResponse{ //nolint:errcheck
			Token: "tok", Username: "ana", Name: "Ana Souza",
			Roles: []string{"ADMIN"}, Permissions: []string{"VIEW_DASHBOARD", "MANAGE_STORES"},
		})
	case r.Method == http.MethodGet && path == "/dashboard/summary":
		json.NewEncoder(w).Encode(domain.DashboardSummary{ //nolint:errcheck
			SalesTotal: 1234567.5, SalesCount: 42, ActiveStores: 2,
			TopStores: []domain.StoreSales{{StoreCode: "001", StoreName: "Centro", Total: 1000, Count: 30}},
		})
	case r.Method == http.MethodGet && path == "/stores":
		api.mu.Lock()
		items := api.stores
		api.mu.Unlock()
		if name := r.URL.Query().Get("name"); name != "" {
			var filtered []domain.Store
			for _, s := range items {
				if strings.Contains(strings.ToLower(s.Name), strings.ToLower(name)) {
					filtered = append(filtered, s)
				}
			}
			items = filtered
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items, "totalElements": len(items), "totalPages": 1}) //nolint:errcheck
	case r.Method == http.MethodPost && path == "/stores":
		var s domain.Store
		json.NewDecoder(r.Body).Decode(&s) //nolint:errcheck
		api.mu.Lock()
		api.created = append(api.created, s)
		status := api.createStatus
		if status == 0 {
			s.ID = int64(len(api.stores) + 1)
			api.stores = append(api.stores, s)
		}
		api.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"message": "code already exists"}) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/stores/"):
		id := strings.TrimPrefix(path, "/stores/")
		api.mu.Lock()
		var kept []domain.Store
		for _, s := range api.stores {
			if idString(s.ID) != id {
				kept = append(kept, s)
			}
		}
		api.stores = kept
		api.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && path == "/permissions":
		w.Write([]byte(`[{"id":1,"name":"MANAGE_STORES"},{"id":2,"name":"VIEW_SALES"}]`)) //nolint:errcheck
	default:
		http.NotFound(w, r)
	}
}

func (api *fakeAPI) requests(prefix string) []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	var out []string
	for _, s := range api.seen {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func (api *fakeAPI) createdStores() []domain.Store {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]domain.Store(nil), api.created...)
}

// runCmd executes cmd and flattens batches into their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settlePage feeds the results of cmd back into p until no command is left.
func settlePage(t *testing.T, p page, cmd tea.Cmd) page {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		if i > 20 {
			t.Fatal("page did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		for _, msg := range runCmd(next) {
			var c tea.Cmd
			p, c = p.Update(msg)
			if c != nil {
				queue = append(queue, c)
			}
		}
	}
	return p
}

// settleApp is settlePage for the root model.
func settleApp(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		if i > 20 {
			t.Fatal("app did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		for _, msg := range runCmd(next) {
			model, c := a.Update(msg)
			a = model.(App)
			if c != nil {
				queue = append(queue, c)
			}
		}
	}
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeText sends one key per rune.
func typeText(p page, text string) page {
	for _, r := range text {
		p, _ = p.Update(key(string(r)))
	}
	return p
}
