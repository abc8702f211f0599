package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"sort"
	"strconv"
)

// SortDirection is the ordering requested from a list endpoint.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// PageRequest is the query sent to a list endpoint. Page is zero-based.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir SortDirection
	Filters map[string]string
}

// Clone returns a copy that shares no map with r.
func (r PageRequest) Clone() PageRequest {
	r.Filters = maps.Clone(r.Filters)
	return r
}

// Values encodes the request as query parameters. Empty filter values are
// not sent.
func (r PageRequest) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(r.Page))
	if r.Size > 0 {
		v.Set("size", strconv.Itoa(r.Size))
	}
	if r.SortBy != "" {
		v.Set("sortBy", r.SortBy)
		dir := r.SortDir
		if dir == "" {
			dir = SortAsc
		}
		v.Set("sortDir", string(dir))
	}
	keys := make([]string, 0, len(r.Filters))
	for k := range r.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if val := r.Filters[k]; val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Page is one page of a list endpoint's result. Any numeric top-level field
// besides items/totalElements/totalPages is kept in Aggregates (for example
// activeCount on the users endpoint).
type Page[T any] struct {
	Items         []T              `json:"items"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
	Aggregates    map[string]int64 `json:"-"`
}

// UnmarshalJSON decodes the fixed fields and collects numeric extras.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode page: %w", err)
	}
	*p = Page[T]{}
	for key, val := range raw {
		switch key {
		case "items":
			if err := json.Unmarshal(val, &p.Items); err != nil {
				return fmt.Errorf("decode page items: %w", err)
			}
		case "totalElements":
			if err := json.Unmarshal(val, &p.TotalElements); err != nil {
				return fmt.Errorf("decode totalElements: %w", err)
			}
		case "totalPages":
			if err := json.Unmarshal(val, &p.TotalPages); err != nil {
				return fmt.Errorf("decode totalPages: %w", err)
			}
		default:
			var n int64
			if json.Unmarshal(val, &n) == nil {
				if p.Aggregates == nil {
					p.Aggregates = make(map[string]int64)
				}
				p.Aggregates[key] = n
			}
		}
	}
	return nil
}
