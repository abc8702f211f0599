package domain

import "time"

// User is an operator account of the back office.
type User struct {
	ID        int64      `json:"id,omitempty"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	StoreCode string     `json:"storeCode,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	Active    bool       `json:"active"`
	Password  string     `json:"password,omitempty"` // write-only, sent on create/reset
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Role groups permissions under a name assignable to users.
type Role struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Permission is a named capability checked by the back office and the console.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
