package models

import "time"

// Machine is a catalog entry, distinct from the registered instances
// installed at customer sites.
type Machine struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	ModelNumber string    `json:"model_number"`
	Description string    `json:"description"`
	Photo       *Asset    `json:"photo,omitempty"`
	CreatedByID int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SparePart struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	PartNumber  string    `json:"part_number"`
	Description string    `json:"description"`
	Photo       *Asset    `json:"photo,omitempty"`
	CreatedByID int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DropdownItem is the minimal {id, label} pair returned by /dropdown endpoints
type DropdownItem struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}
