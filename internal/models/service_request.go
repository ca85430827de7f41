package models

import "time"

// Service request statuses. A request is born problem_logged because the
// problem report is inserted in the same transaction as the request itself.
const (
	StatusProblemLogged    = "problem_logged"
	StatusEngineerAssigned = "engineer_assigned"
	StatusSolutionAttached = "solution_attached"
	StatusClosed           = "closed"
)

type ServiceRequest struct {
	ID                 int        `json:"id"`
	RequestCode        string     `json:"request_code"` // YYYYMMDD-####
	ProductID          int        `json:"product"`
	Status             string     `json:"status"`
	AssignedEngineerID *int       `json:"assigned_engineer,omitempty"`
	ClosedByID         *int       `json:"closed_by,omitempty"`
	HappyCode          *string    `json:"-"` // cleared on closure, never exposed
	PayableAmount      float64    `json:"payable_amount"`
	PaidAmount         float64    `json:"paid_amount"`
	PaymentMode        *string    `json:"payment_mode,omitempty"`
	PaymentDate        *time.Time `json:"payment_date,omitempty"`
	ApprovedOn         *time.Time `json:"approved_on,omitempty"`
	ClosedOn           *time.Time `json:"closed_on,omitempty"`
	CreatedByID        int        `json:"created_by"`
	UpdatedByID        *int       `json:"updated_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Problem is the customer's report, owned 1:1 by a service request and
// immutable after creation.
type Problem struct {
	ID               int       `json:"id"`
	ServiceRequestID int       `json:"request"`
	ProductID        int       `json:"product"`
	Description      string    `json:"description"`
	Photos           []Asset   `json:"photos"`
	Videos           []Asset   `json:"videos"`
	CreatedByID      int       `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// Solution is the engineer's resolution, owned 1:1 by a service request.
// Creating one mints the happy code.
type Solution struct {
	ID               int       `json:"id"`
	ServiceRequestID int       `json:"request"`
	ProductID        int       `json:"product"`
	Description      string    `json:"description"`
	Photos           []Asset   `json:"photos"`
	Videos           []Asset   `json:"videos"`
	SparePartIDs     []int     `json:"spare_parts"`
	CreatedByID      int       `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateServiceRequestBody is the JSON carried in the multipart "body" field
// of POST /api/v1/requests
type CreateServiceRequestBody struct {
	Product int    `json:"product"`
	Problem string `json:"problem"`
}

// HandleServiceRequestBody is the JSON carried in the multipart "body" field
// of POST /api/v1/requests/{id}
type HandleServiceRequestBody struct {
	Product    int    `json:"product"`
	Request    int    `json:"request"`
	Solution   string `json:"solution"`
	SpareParts []int  `json:"spare_parts,omitempty"`
}

// CloseServiceRequestBody is the JSON body of PUT /api/v1/requests/{id}
type CloseServiceRequestBody struct {
	Code          string  `json:"code"`
	PaidAmount    float64 `json:"paid_amount"`
	PayableAmount float64 `json:"payable_amount"`
	PaymentDate   string  `json:"paymentDate"` // 2006-01-02
	PaymentMode   string  `json:"paymentMode"`
}

// AssignEngineerRequest is the JSON body of PUT /api/v1/requests/{id}/assign
type AssignEngineerRequest struct {
	Engineer int `json:"engineer"`
}

// ClosePayment carries the payment fields recorded at closure
type ClosePayment struct {
	PaidAmount    float64
	PayableAmount float64
	PaymentMode   string
	PaymentDate   time.Time
}

// ServiceRequestSummary is the list projection joining product, machine,
// customer and people references.
type ServiceRequestSummary struct {
	ID            int        `json:"id"`
	RequestCode   string     `json:"request_code"`
	Status        string     `json:"status"`
	ProductID     int        `json:"product"`
	SerialNumber  string     `json:"sl_no"`
	MachineName   string     `json:"machine"`
	CustomerID    int        `json:"customer_id"`
	CustomerName  string     `json:"customer"`
	EngineerName  *string    `json:"assigned_engineer,omitempty"`
	ClosedByName  *string    `json:"closed_by,omitempty"`
	PayableAmount float64    `json:"payable_amount"`
	PaidAmount    float64    `json:"paid_amount"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedOn      *time.Time `json:"closed_on,omitempty"`
}

// ServiceRequestDetail adds the problem/solution reports and tenant info
type ServiceRequestDetail struct {
	ServiceRequestSummary
	CustomerMobile string     `json:"customer_mobile"`
	OwnerName      string     `json:"owner_name,omitempty"`
	MemberCount    int        `json:"member_count"`
	Problem        *Problem   `json:"problem,omitempty"`
	Solution       *Solution  `json:"solution,omitempty"`
	PaymentMode    *string    `json:"payment_mode,omitempty"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
}
