package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

type dashboardLoadedMsg struct {
	owner   uuid.UUID
	summary *domain.DashboardSummary
	err     error
}

// dashboardModel is the landing page: sales and purchase totals plus the
// store ranking.
type dashboardModel struct {
	id      uuid.UUID
	client  *client.Client
	summary *domain.DashboardSummary
	loading bool
	closed  bool
	err     string
	width   int
	height  int
}

func newDashboardModel(c *client.Client) dashboardModel {
	return dashboardModel{id: uuid.New(), client: c}
}

func (m dashboardModel) mount() (page, tea.Cmd) {
	m.loading = true
	return m, m.load()
}

func (m dashboardModel) load() tea.Cmd {
	c, id := m.client, m.id
	return func() tea.Msg {
		s, err := c.GetDashboardSummary(context.Background())
		return dashboardLoadedMsg{owner: id, summary: s, err: err}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		if m.closed || msg.owner != m.id {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = client.Describe(msg.err)
			return m, nil
		}
		m.err = ""
		m.summary = msg.summary
	case tea.KeyMsg:
		if msg.String() == "r" && !m.loading {
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m dashboardModel) Close() page {
	m.closed = true
	return m
}

func (m dashboardModel) resize(width, height int) page {
	m.width = width
	m.height = height
	return m
}

func (m dashboardModel) editing() bool { return false }

func (m dashboardModel) helpKeys() string {
	return helpBar("r", "refresh")
}

func (m dashboardModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, " %s", sectionHeaderStyle.Render("DASHBOARD"))
	switch {
	case m.loading:
		b.WriteString("  " + dimStyle.Render("loading..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	}
	b.WriteString("\n\n")

	s := m.summary
	if s == nil {
		return b.String()
	}

	stat := func(label, value string) string {
		return fmt.Sprintf("   %s %s\n", metaStyle.Render(padStr(label, 18)), selectedStyle.Render(value))
	}
	b.WriteString(stat("sales", fmt.Sprintf("%s (%d)", formatMoney(s.SalesTotal), s.SalesCount)))
	b.WriteString(stat("purchases", fmt.Sprintf("%s (%d)", formatMoney(s.PurchasesTotal), s.PurchasesCount)))
	b.WriteString(stat("active stores", fmt.Sprintf("%d", s.ActiveStores)))
	b.WriteString(stat("active users", fmt.Sprintf("%d", s.ActiveUsers)))

	if len(s.TopStores) > 0 {
		fmt.Fprintf(&b, "\n %s\n", sectionHeaderStyle.Render("TOP STORES"))
		for i, st := range s.TopStores {
			fmt.Fprintf(&b, "   %s %s %s %s\n",
				accentStyle.Render(fmt.Sprintf("%2d", i+1)),
				normalStyle.Render(padStr(st.StoreCode+" "+st.StoreName, 28)),
				selectedStyle.Render(fmt.Sprintf("%14s", formatMoney(st.Total))),
				metaStyle.Render(fmt.Sprintf("%d sales", st.Count)))
		}
	}
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "\n %s\n", metaStyle.Render("updated "+formatTime(s.GeneratedAt)))
	}
	return b.String()
}
