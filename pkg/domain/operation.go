package domain

import "slices"

// Operation is a fiscal operation code (sale, purchase, return, transfer).
type Operation struct {
	ID          int64  `json:"id,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
}

// Valid operation types.
var OperationTypes = []string{
	"SALE",
	"PURCHASE",
	"RETURN",
	"TRANSFER",
}

// ValidOperationType returns true if t is a known operation type.
func ValidOperationType(t string) bool {
	return slices.Contains(OperationTypes, t)
}

// EventOrigin identifies the subsystem that raised a business event.
type EventOrigin struct {
	ID          int64  `json:"id,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}
