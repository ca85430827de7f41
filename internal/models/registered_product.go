package models

import "time"

// RegisteredProduct links a catalog machine to the customer it was sold to.
// SerialNumber is unique per system, enforced by a pre-check plus a DB
// constraint as a race guard.
type RegisteredProduct struct {
	ID               int        `json:"id"`
	MachineID        int        `json:"machine"`
	CustomerID       int        `json:"customer"`
	SerialNumber     string     `json:"sl_no"`
	InstallationDate *time.Time `json:"installation_date,omitempty"`
	WarrantyExpiry   *time.Time `json:"warranty_expiry,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedByID      int        `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CreateRegisteredProductRequest represents the request body for registering a product
type CreateRegisteredProductRequest struct {
	MachineID        int    `json:"machine"`
	CustomerID       int    `json:"customer"`
	SerialNumber     string `json:"sl_no"`
	InstallationDate string `json:"installation_date,omitempty"` // 2006-01-02
	WarrantyExpiry   string `json:"warranty_expiry,omitempty"`
}

// UpdateRegisteredProductRequest represents the request body for updating a registered product
type UpdateRegisteredProductRequest struct {
	SerialNumber     string `json:"sl_no"`
	InstallationDate string `json:"installation_date,omitempty"`
	WarrantyExpiry   string `json:"warranty_expiry,omitempty"`
	IsActive         *bool  `json:"is_active,omitempty"`
}
