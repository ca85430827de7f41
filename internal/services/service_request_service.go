package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"fieldserve-backend/internal/metrics"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/sms"
	"fieldserve-backend/internal/timeutil"
)

// ServiceRequestStore is the persistence surface of the request lifecycle
type ServiceRequestStore interface {
	CreateWithProblem(ctx context.Context, sr *models.ServiceRequest, p *models.Problem) error
	Get(ctx context.Context, id int) (*models.ServiceRequest, error)
	CountByCodePrefix(ctx context.Context, prefix string) (int, error)
	AssignEngineer(ctx context.Context, id, engineerID, updatedBy int) (bool, error)
	AttachSolution(ctx context.Context, sol *models.Solution, happyCode string, updatedBy int) (bool, error)
	Close(ctx context.Context, id int, code string, payment *models.ClosePayment, closedBy int) (bool, error)
	List(ctx context.Context) ([]*models.ServiceRequestSummary, error)
	ListByCustomer(ctx context.Context, customerID int) ([]*models.ServiceRequestSummary, error)
	GetDetailed(ctx context.Context, id int) (*models.ServiceRequestDetail, error)
}

// ProductStore resolves registered products for tenant checks
type ProductStore interface {
	Get(ctx context.Context, id int) (*models.RegisteredProduct, error)
}

// ContactStore resolves the people around a request: the customer's contact
// user, the organization size, and assigned engineers.
type ContactStore interface {
	Get(ctx context.Context, id int) (*models.User, error)
	GetCustomerContact(ctx context.Context, customerID int) (*models.User, error)
	CountByCustomer(ctx context.Context, customerID int) (int, error)
}

// NotificationStore enqueues push notifications for the dispatch loop
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// ServiceRequestService drives the problem -> solution -> closure lifecycle
type ServiceRequestService struct {
	Requests      ServiceRequestStore
	Products      ProductStore
	Contacts      ContactStore
	Notifications NotificationStore
	SMSService    sms.SMSProvider
}

func NewServiceRequestService(requests ServiceRequestStore, products ProductStore, contacts ContactStore, notifications NotificationStore, smsService sms.SMSProvider) *ServiceRequestService {
	return &ServiceRequestService{
		Requests:      requests,
		Products:      products,
		Contacts:      contacts,
		Notifications: notifications,
		SMSService:    smsService,
	}
}

// NextRequestCode builds the YYYYMMDD-#### code for the n+1th request of the
// day, with the date rendered in IST.
func NextRequestCode(t time.Time, priorCount int) string {
	return fmt.Sprintf("%s-%04d", timeutil.ToIST(t).Format(timeutil.CodeDateLayout), priorCount+1)
}

// GenerateHappyCode returns a uniform random 6-digit closure code
func GenerateHappyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create opens a service request with its problem report. The attachments
// slice must be non-empty: a problem report without evidence is rejected.
func (s *ServiceRequestService) Create(ctx context.Context, body *models.CreateServiceRequestBody, photos, videos []models.Asset, createdBy int, callerCustomerID *int) (*models.ServiceRequest, error) {
	if body.Problem == "" {
		return nil, fmt.Errorf("problem description is required")
	}
	if len(photos)+len(videos) == 0 {
		return nil, fmt.Errorf("at least one attachment is required")
	}

	product, err := s.Products.Get(ctx, body.Product)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if callerCustomerID != nil && product.CustomerID != *callerCustomerID {
		return nil, ErrNotFound
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product is deactivated")
	}

	now := timeutil.Now()
	prefix := now.Format(timeutil.CodeDateLayout) + "-"
	count, err := s.Requests.CountByCodePrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	request := &models.ServiceRequest{
		RequestCode: NextRequestCode(now, count),
		ProductID:   product.ID,
		CreatedByID: createdBy,
	}
	problem := &models.Problem{
		ProductID:   product.ID,
		Description: body.Problem,
		Photos:      photos,
		Videos:      videos,
		CreatedByID: createdBy,
	}

	if err := s.Requests.CreateWithProblem(ctx, request, problem); err != nil {
		return nil, err
	}

	s.notifyContact(ctx, product.CustomerID,
		"Service request registered",
		fmt.Sprintf("Request %s has been registered. Our team will reach out shortly.", request.RequestCode))

	return request, nil
}

// Assign hands a logged request to a field engineer
func (s *ServiceRequestService) Assign(ctx context.Context, requestID, engineerID, actorID int) (*models.ServiceRequest, error) {
	request, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	engineer, err := s.Contacts.Get(ctx, engineerID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if engineer.Role != models.RoleEngineer || !engineer.IsActive {
		return nil, fmt.Errorf("user %d is not an active engineer", engineerID)
	}

	applied, err := s.Requests.AssignEngineer(ctx, requestID, engineerID, actorID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidStatus
	}

	s.enqueue(ctx, engineer.ID,
		"New service request assigned",
		fmt.Sprintf("Request %s has been assigned to you.", request.RequestCode))

	return s.Requests.Get(ctx, requestID)
}

// Handle attaches the engineer's solution, mints the happy code and texts it
// to the customer's contact. The code is the customer's lever to confirm the
// visit actually resolved the problem.
func (s *ServiceRequestService) Handle(ctx context.Context, body *models.HandleServiceRequestBody, photos, videos []models.Asset, actorID int) (*models.ServiceRequest, error) {
	if body.Solution == "" {
		return nil, fmt.Errorf("solution description is required")
	}
	if len(photos)+len(videos) == 0 {
		return nil, fmt.Errorf("at least one attachment is required")
	}

	request, err := s.Requests.Get(ctx, body.Request)
	if err != nil {
		return nil, mapNoRows(err)
	}

	happyCode, err := GenerateHappyCode()
	if err != nil {
		return nil, err
	}

	solution := &models.Solution{
		ServiceRequestID: request.ID,
		ProductID:        request.ProductID,
		Description:      body.Solution,
		Photos:           photos,
		Videos:           videos,
		SparePartIDs:     body.SpareParts,
		CreatedByID:      actorID,
	}

	applied, err := s.Requests.AttachSolution(ctx, solution, happyCode, actorID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidStatus
	}

	product, err := s.Products.Get(ctx, request.ProductID)
	if err != nil {
		return nil, err
	}
	contact, err := s.Contacts.GetCustomerContact(ctx, product.CustomerID)
	if err != nil {
		log.Printf("[Requests] no contact for customer %d on request %s: %v", product.CustomerID, request.RequestCode, err)
	} else {
		message := fmt.Sprintf("Your confirmation code for service request %s is %s. Share it with the engineer only once the work is done.", request.RequestCode, happyCode)
		if err := s.SMSService.SendSMS(contact.Mobile, message, models.SMSTypeHappyCode, contact.ID); err != nil {
			metrics.SMSSentTotal.WithLabelValues(models.SMSTypeHappyCode, "failed").Inc()
			log.Printf("[Requests] happy code SMS failed for request %s: %v", request.RequestCode, err)
		} else {
			metrics.SMSSentTotal.WithLabelValues(models.SMSTypeHappyCode, "sent").Inc()
		}
		s.enqueue(ctx, contact.ID,
			"Solution recorded",
			fmt.Sprintf("A solution has been recorded for request %s. Confirm with the code sent by SMS.", request.RequestCode))
	}

	return s.Requests.Get(ctx, request.ID)
}

// Close settles a request against the customer's confirmation code
func (s *ServiceRequestService) Close(ctx context.Context, requestID int, body *models.CloseServiceRequestBody, actorID int) (*models.ServiceRequest, error) {
	request, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if request.Status != models.StatusSolutionAttached {
		return nil, ErrInvalidStatus
	}

	payment := &models.ClosePayment{
		PaidAmount:    body.PaidAmount,
		PayableAmount: body.PayableAmount,
		PaymentMode:   body.PaymentMode,
		PaymentDate:   timeutil.Now(),
	}
	if body.PaymentDate != "" {
		t, err := timeutil.ParseInIST(timeutil.DateLayout, body.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("invalid payment date %q: expected YYYY-MM-DD", body.PaymentDate)
		}
		payment.PaymentDate = t
	}

	applied, err := s.Requests.Close(ctx, requestID, body.Code, payment, actorID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The guard rejects for one of two reasons: wrong code, or a
		// concurrent close got there first.
		current, err := s.Requests.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if current.Status != models.StatusSolutionAttached {
			return nil, ErrInvalidStatus
		}
		return nil, ErrInvalidCode
	}

	product, err := s.Products.Get(ctx, request.ProductID)
	if err == nil {
		s.notifyContact(ctx, product.CustomerID,
			"Service request closed",
			fmt.Sprintf("Request %s has been closed. Thank you for confirming.", request.RequestCode))
	}

	return s.Requests.Get(ctx, requestID)
}

func (s *ServiceRequestService) List(ctx context.Context) ([]*models.ServiceRequestSummary, error) {
	return s.Requests.List(ctx)
}

// ListForCustomer scopes the list to the caller's organization
func (s *ServiceRequestService) ListForCustomer(ctx context.Context, customerID int) ([]*models.ServiceRequestSummary, error) {
	return s.Requests.ListByCustomer(ctx, customerID)
}

// GetDetailed returns the full request view. Customer-scoped callers only
// see requests belonging to their organization.
func (s *ServiceRequestService) GetDetailed(ctx context.Context, id int, callerCustomerID *int) (*models.ServiceRequestDetail, error) {
	detail, err := s.Requests.GetDetailed(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if callerCustomerID != nil && detail.CustomerID != *callerCustomerID {
		return nil, ErrNotFound
	}

	if contact, err := s.Contacts.GetCustomerContact(ctx, detail.CustomerID); err == nil {
		detail.OwnerName = contact.Name
	}
	if count, err := s.Contacts.CountByCustomer(ctx, detail.CustomerID); err == nil {
		detail.MemberCount = count
	}
	return detail, nil
}

// notifyContact enqueues a push notification for a customer's contact user
func (s *ServiceRequestService) notifyContact(ctx context.Context, customerID int, title, body string) {
	contact, err := s.Contacts.GetCustomerContact(ctx, customerID)
	if err != nil {
		log.Printf("[Requests] no contact for customer %d: %v", customerID, err)
		return
	}
	s.enqueue(ctx, contact.ID, title, body)
}

func (s *ServiceRequestService) enqueue(ctx context.Context, userID int, title, body string) {
	n := &models.Notification{UserID: userID, Title: title, Body: body}
	if err := s.Notifications.Create(ctx, n); err != nil {
		log.Printf("[Requests] failed to enqueue notification for user %d: %v", userID, err)
	}
}
