package domain

import (
	"encoding/json"
	"testing"
)

func TestPageUnmarshalAggregates(t *testing.T) {
	body := `{"items":[{"id":1,"code":"001","name":"Centro","active":true}],
		"totalElements":31,"totalPages":4,"activeCount":29,"inactiveCount":2,"label":"x"}`

	var p Page[Store]
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(p.Items) != 1 || p.Items[0].Code != "001" {
		t.Fatalf("Items = %+v, want one store with code 001", p.Items)
	}
	if p.TotalElements != 31 || p.TotalPages != 4 {
		t.Errorf("totals = %d/%d, want 31/4", p.TotalElements, p.TotalPages)
	}
	if p.Aggregates["activeCount"] != 29 || p.Aggregates["inactiveCount"] != 2 {
		t.Errorf("Aggregates = %v", p.Aggregates)
	}
	if _, ok := p.Aggregates["label"]; ok {
		t.Error("non-numeric field should not be collected")
	}
}

func TestPageUnmarshalBadItems(t *testing.T) {
	var p Page[Store]
	if err := json.Unmarshal([]byte(`{"items":"nope"}`), &p); err == nil {
		t.Fatal("expected error for non-array items")
	}
}

func TestPageRequestValues(t *testing.T) {
	r := PageRequest{
		Page:    2,
		Size:    10,
		SortBy:  "name",
		Filters: map[string]string{"name": "ana", "active": ""},
	}
	v := r.Values()
	if got := v.Encode(); got != "name=ana&page=2&size=10&sortBy=name&sortDir=asc" {
		t.Errorf("Values().Encode() = %q", got)
	}
}

func TestPageRequestCloneIsolatesFilters(t *testing.T) {
	r := PageRequest{Filters: map[string]string{"code": "1"}}
	c := r.Clone()
	c.Filters["code"] = "2"
	if r.Filters["code"] != "1" {
		t.Errorf("original filters mutated: %v", r.Filters)
	}
}

func TestSortDirectionToggle(t *testing.T) {
	if SortAsc.Toggle() != SortDesc || SortDesc.Toggle() != SortAsc {
		t.Error("Toggle should flip asc and desc")
	}
	if SortDirection("").Toggle() != SortAsc {
		t.Error("empty direction should toggle to asc")
	}
}

func TestValidOperationType(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		valid bool
	}{
		{"valid sale", "SALE", true},
		{"valid purchase", "PURCHASE", true},
		{"valid return", "RETURN", true},
		{"valid transfer", "TRANSFER", true},
		{"invalid empty", "", false},
		{"invalid lowercase", "sale", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidOperationType(tt.typ); got != tt.valid {
				t.Errorf("ValidOperationType(%q) = %v, want %v", tt.typ, got, tt.valid)
			}
		})
	}
}
