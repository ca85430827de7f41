package models

import "time"

// User roles
const (
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
	RoleStaff    = "staff"
	RoleEngineer = "engineer"
	RoleCustomer = "customer"
)

type User struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Mobile       string     `json:"mobile"`
	Role         string     `json:"role"`                  // admin, owner, staff, engineer, customer
	CustomerID   *int       `json:"customer_id,omitempty"` // tenant scope for customer-side users
	PasswordHash string     `json:"-"`                     // dashboard users only
	OTPCode      string     `json:"-"`                     // valid only during the login window
	OTPExpiresAt *time.Time `json:"-"`
	FCMToken     *string    `json:"-"` // nullable, set from the mobile client
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateUserRequest represents the request body for creating a staff or engineer user
type CreateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	Role       string `json:"role"`
	CustomerID *int   `json:"customer_id,omitempty"`
	Password   string `json:"password,omitempty"` // dashboard users only
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"` // optional
	IsActive *bool  `json:"is_active,omitempty"`
}

// SendOTPRequest represents a request to send a login OTP
type SendOTPRequest struct {
	Mobile string `json:"mobile"`
}

// LoginRequest represents the mobile OTP login body
type LoginRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

// DashboardLoginRequest is the email+password login used by the admin dashboard
type DashboardLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token        string `json:"token,omitempty"`
	RequiresTOTP bool   `json:"requires_totp,omitempty"`
	TempToken    string `json:"temp_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// UpdateFCMTokenRequest registers a device push token for the current user
type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}
