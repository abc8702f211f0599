package domain

// Store is a retail branch.
type Store struct {
	ID       int64  `json:"id,omitempty"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"` // CNPJ
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Active   bool   `json:"active"`
}
