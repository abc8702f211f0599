package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/smarteletron/eletron/pkg/domain"
)

func TestDashboardRendersSummary(t *testing.T) {
	m := newDashboardModel(nil)
	p, _ := m.Update(dashboardLoadedMsg{owner: m.id, summary: &domain.DashboardSummary{
		SalesTotal: 1500, SalesCount: 3, ActiveUsers: 7,
		TopStores: []domain.StoreSales{{StoreCode: "001", StoreName: "Centro", Total: 1500, Count: 3}},
	}})
	view := p.View()
	for _, want := range []string{"1,500.00", "TOP STORES", "001 Centro", "active users"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view, got:\n%s", want, view)
		}
	}
}

func TestDashboardIgnoresOtherOwnerAndClosed(t *testing.T) {
	m := newDashboardModel(nil)
	other := newDashboardModel(nil)
	p, _ := m.Update(dashboardLoadedMsg{owner: other.id, summary: &domain.DashboardSummary{SalesCount: 1}})
	if p.(dashboardModel).summary != nil {
		t.Error("result for another dashboard must be ignored")
	}

	p = m.Close()
	p, _ = p.Update(dashboardLoadedMsg{owner: m.id, summary: &domain.DashboardSummary{SalesCount: 1}})
	if p.(dashboardModel).summary != nil {
		t.Error("closed dashboard must ignore late results")
	}
}

func TestDashboardErrorKeepsPreviousSummary(t *testing.T) {
	m := newDashboardModel(nil)
	p, _ := m.Update(dashboardLoadedMsg{owner: m.id, summary: &domain.DashboardSummary{SalesTotal: 10}})
	p, _ = p.Update(dashboardLoadedMsg{owner: m.id, err: errors.New("connection refused")})

	view := p.View()
	if !strings.Contains(view, "connection refused") {
		t.Errorf("expected error in view, got:\n%s", view)
	}
	if !strings.Contains(view, "10.00") {
		t.Errorf("previous summary should stay visible, got:\n%s", view)
	}
}

func TestDashboardRefreshKey(t *testing.T) {
	m := newDashboardModel(nil)
	_, cmd := m.Update(key("r"))
	if cmd == nil {
		t.Error("expected refresh command")
	}
	m.loading = true
	if _, cmd := m.Update(key("r")); cmd != nil {
		t.Error("refresh while loading should be ignored")
	}
}
