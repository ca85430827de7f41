package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/sms"
	"fieldserve-backend/internal/timeutil"
)

// fakeRequestStore keeps service requests in memory with the same state
// guards the SQL layer enforces.
type fakeRequestStore struct {
	nextID    int
	requests  map[int]*models.ServiceRequest
	problems  map[int]*models.Problem
	solutions map[int]*models.Solution
	customers map[int]int // request ID -> customer ID, for list scoping
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{
		nextID:    1,
		requests:  make(map[int]*models.ServiceRequest),
		problems:  make(map[int]*models.Problem),
		solutions: make(map[int]*models.Solution),
		customers: make(map[int]int),
	}
}

func (f *fakeRequestStore) CreateWithProblem(ctx context.Context, sr *models.ServiceRequest, p *models.Problem) error {
	for _, existing := range f.requests {
		if existing.RequestCode == sr.RequestCode {
			return fmt.Errorf("duplicate request code %s", sr.RequestCode)
		}
	}
	sr.ID = f.nextID
	f.nextID++
	sr.Status = models.StatusProblemLogged
	sr.CreatedAt = timeutil.Now()
	f.requests[sr.ID] = sr
	p.ServiceRequestID = sr.ID
	f.problems[sr.ID] = p
	return nil
}

func (f *fakeRequestStore) Get(ctx context.Context, id int) (*models.ServiceRequest, error) {
	sr, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sr
	return &copied, nil
}

func (f *fakeRequestStore) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	count := 0
	for _, sr := range f.requests {
		if strings.HasPrefix(sr.RequestCode, prefix) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestStore) AssignEngineer(ctx context.Context, id, engineerID, updatedBy int) (bool, error) {
	sr, ok := f.requests[id]
	if !ok || sr.Status != models.StatusProblemLogged {
		return false, nil
	}
	sr.Status = models.StatusEngineerAssigned
	sr.AssignedEngineerID = &engineerID
	sr.UpdatedByID = &updatedBy
	return true, nil
}

func (f *fakeRequestStore) AttachSolution(ctx context.Context, sol *models.Solution, happyCode string, updatedBy int) (bool, error) {
	sr, ok := f.requests[sol.ServiceRequestID]
	if !ok {
		return false, nil
	}
	if sr.Status != models.StatusProblemLogged && sr.Status != models.StatusEngineerAssigned {
		return false, nil
	}
	sr.Status = models.StatusSolutionAttached
	sr.HappyCode = &happyCode
	sr.UpdatedByID = &updatedBy
	f.solutions[sol.ServiceRequestID] = sol
	return true, nil
}

func (f *fakeRequestStore) Close(ctx context.Context, id int, code string, payment *models.ClosePayment, closedBy int) (bool, error) {
	sr, ok := f.requests[id]
	if !ok || sr.Status != models.StatusSolutionAttached {
		return false, nil
	}
	if sr.HappyCode == nil || *sr.HappyCode != code {
		return false, nil
	}
	now := timeutil.Now()
	sr.Status = models.StatusClosed
	sr.HappyCode = nil
	sr.ClosedByID = &closedBy
	sr.ClosedOn = &now
	sr.PaidAmount = payment.PaidAmount
	sr.PayableAmount = payment.PayableAmount
	sr.PaymentMode = &payment.PaymentMode
	sr.PaymentDate = &payment.PaymentDate
	return true, nil
}

func (f *fakeRequestStore) List(ctx context.Context) ([]*models.ServiceRequestSummary, error) {
	var out []*models.ServiceRequestSummary
	for _, sr := range f.requests {
		out = append(out, f.summary(sr))
	}
	return out, nil
}

func (f *fakeRequestStore) ListByCustomer(ctx context.Context, customerID int) ([]*models.ServiceRequestSummary, error) {
	var out []*models.ServiceRequestSummary
	for id, sr := range f.requests {
		if f.customers[id] == customerID {
			out = append(out, f.summary(sr))
		}
	}
	return out, nil
}

func (f *fakeRequestStore) GetDetailed(ctx context.Context, id int) (*models.ServiceRequestDetail, error) {
	sr, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &models.ServiceRequestDetail{
		ServiceRequestSummary: *f.summary(sr),
		Problem:               f.problems[id],
		Solution:              f.solutions[id],
	}, nil
}

func (f *fakeRequestStore) summary(sr *models.ServiceRequest) *models.ServiceRequestSummary {
	return &models.ServiceRequestSummary{
		ID:          sr.ID,
		RequestCode: sr.RequestCode,
		Status:      sr.Status,
		ProductID:   sr.ProductID,
		CustomerID:  f.customers[sr.ID],
		CreatedAt:   sr.CreatedAt,
	}
}

type fakeProductStore struct {
	products map[int]*models.RegisteredProduct
}

func (f *fakeProductStore) Get(ctx context.Context, id int) (*models.RegisteredProduct, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type fakeContactStore struct {
	users    map[int]*models.User
	contacts map[int]*models.User // customer ID -> contact user
}

func (f *fakeContactStore) Get(ctx context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeContactStore) GetCustomerContact(ctx context.Context, customerID int) (*models.User, error) {
	u, ok := f.contacts[customerID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeContactStore) CountByCustomer(ctx context.Context, customerID int) (int, error) {
	count := 0
	for _, u := range f.users {
		if u.CustomerID != nil && *u.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

type fakeNotificationStore struct {
	created []*models.Notification
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	n.ID = len(f.created) + 1
	f.created = append(f.created, n)
	return nil
}

// newRequestTestEnv wires a service over in-memory stores with one customer,
// one registered product and one engineer.
func newRequestTestEnv() (*ServiceRequestService, *fakeRequestStore, *fakeContactStore, *fakeNotificationStore, *sms.MockSMSService) {
	store := newFakeRequestStore()
	customerID := 10
	products := &fakeProductStore{products: map[int]*models.RegisteredProduct{
		1: {ID: 1, MachineID: 1, CustomerID: customerID, SerialNumber: "SN-001", IsActive: true},
	}}
	contacts := &fakeContactStore{
		users: map[int]*models.User{
			5: {ID: 5, Name: "Ravi Kumar", Mobile: "9876543210", Role: models.RoleEngineer, IsActive: true},
			6: {ID: 6, Name: "Sita Devi", Mobile: "9876500000", Role: models.RoleCustomer, CustomerID: &customerID},
		},
		contacts: map[int]*models.User{
			customerID: {ID: 6, Name: "Sita Devi", Mobile: "9876500000", Role: models.RoleCustomer, CustomerID: &customerID},
		},
	}
	notifications := &fakeNotificationStore{}
	smsService := sms.NewMockSMSService()
	svc := NewServiceRequestService(store, products, contacts, notifications, smsService)
	return svc, store, contacts, notifications, smsService
}

func createTestRequest(t *testing.T, svc *ServiceRequestService, store *fakeRequestStore) *models.ServiceRequest {
	t.Helper()
	body := &models.CreateServiceRequestBody{Product: 1, Problem: "Compressor not starting"}
	photos := []models.Asset{{URL: "https://cdn.example.com/p1.jpg", ContentType: "image/jpeg"}}
	request, err := svc.Create(context.Background(), body, photos, nil, 6, nil)
	require.NoError(t, err)
	store.customers[request.ID] = 10
	return request
}

func TestNextRequestCode(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, ist)

	assert.Equal(t, "20260314-0001", NextRequestCode(at, 0))
	assert.Equal(t, "20260314-0042", NextRequestCode(at, 41))

	// A UTC timestamp late in the evening rolls into the next IST day
	lateUTC := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "20260315-0001", NextRequestCode(lateUTC, 0))
}

func TestGenerateHappyCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateHappyCode()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), code)
	}
}

func TestCreateServiceRequest(t *testing.T) {
	svc, store, _, notifications, _ := newRequestTestEnv()
	ctx := context.Background()

	body := &models.CreateServiceRequestBody{Product: 1, Problem: "Compressor not starting"}
	photos := []models.Asset{{URL: "https://cdn.example.com/p1.jpg", ContentType: "image/jpeg"}}

	request, err := svc.Create(ctx, body, photos, nil, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProblemLogged, request.Status)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}-0001$`), request.RequestCode)

	problem := store.problems[request.ID]
	require.NotNil(t, problem)
	assert.Equal(t, "Compressor not starting", problem.Description)
	assert.Len(t, problem.Photos, 1)

	// The customer's contact is queued a push notification
	require.Len(t, notifications.created, 1)
	assert.Equal(t, 6, notifications.created[0].UserID)

	// Second request the same day gets the next sequence number
	second, err := svc.Create(ctx, body, photos, nil, 6, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(second.RequestCode, "-0002"), second.RequestCode)
}

func TestCreateServiceRequestValidation(t *testing.T) {
	svc, _, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	photos := []models.Asset{{URL: "https://cdn.example.com/p1.jpg"}}

	_, err := svc.Create(ctx, &models.CreateServiceRequestBody{Product: 1}, photos, nil, 6, nil)
	assert.ErrorContains(t, err, "problem description")

	_, err = svc.Create(ctx, &models.CreateServiceRequestBody{Product: 1, Problem: "broken"}, nil, nil, 6, nil)
	assert.ErrorContains(t, err, "attachment")

	_, err = svc.Create(ctx, &models.CreateServiceRequestBody{Product: 99, Problem: "broken"}, photos, nil, 6, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsDeactivatedProduct(t *testing.T) {
	store := newFakeRequestStore()
	products := &fakeProductStore{products: map[int]*models.RegisteredProduct{
		1: {ID: 1, MachineID: 1, CustomerID: 10, SerialNumber: "SN-001", IsActive: false},
	}}
	svc := NewServiceRequestService(store, products, &fakeContactStore{}, &fakeNotificationStore{}, sms.NewMockSMSService())

	photos := []models.Asset{{URL: "https://cdn.example.com/p1.jpg"}}
	body := &models.CreateServiceRequestBody{Product: 1, Problem: "broken"}
	_, err := svc.Create(context.Background(), body, photos, nil, 6, nil)
	assert.ErrorContains(t, err, "deactivated")
	assert.Empty(t, store.requests)
}

func TestCreateServiceRequestTenantScope(t *testing.T) {
	svc, _, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	photos := []models.Asset{{URL: "https://cdn.example.com/p1.jpg"}}
	body := &models.CreateServiceRequestBody{Product: 1, Problem: "broken"}

	// A caller from another organization cannot open requests on this product
	otherCustomer := 99
	_, err := svc.Create(ctx, body, photos, nil, 6, &otherCustomer)
	assert.ErrorIs(t, err, ErrNotFound)

	// The owning organization can
	owner := 10
	_, err = svc.Create(ctx, body, photos, nil, 6, &owner)
	assert.NoError(t, err)
}

func TestAssignEngineer(t *testing.T) {
	svc, store, _, notifications, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	updated, err := svc.Assign(ctx, request.ID, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEngineerAssigned, updated.Status)
	require.NotNil(t, updated.AssignedEngineerID)
	assert.Equal(t, 5, *updated.AssignedEngineerID)

	// Engineer is queued a push notification on top of the creation one
	require.Len(t, notifications.created, 2)
	assert.Equal(t, 5, notifications.created[1].UserID)

	// Re-assigning an already assigned request is rejected
	_, err = svc.Assign(ctx, request.ID, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAssignRejectsNonEngineers(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	// User 6 is a customer contact, not an engineer
	_, err := svc.Assign(ctx, request.ID, 6, 2)
	assert.ErrorContains(t, err, "not an active engineer")

	_, err = svc.Assign(ctx, request.ID, 404, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleRequest(t *testing.T) {
	svc, store, _, _, smsService := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)
	_, err := svc.Assign(ctx, request.ID, 5, 2)
	require.NoError(t, err)

	body := &models.HandleServiceRequestBody{
		Request:    request.ID,
		Solution:   "Replaced the start capacitor",
		SpareParts: []int{3},
	}
	photos := []models.Asset{{URL: "https://cdn.example.com/s1.jpg"}}

	updated, err := svc.Handle(ctx, body, photos, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSolutionAttached, updated.Status)
	require.NotNil(t, updated.HappyCode)

	// The confirmation code is texted to the customer contact, not the engineer
	sent := smsService.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "9876500000", sent[0].Mobile)
	assert.Equal(t, models.SMSTypeHappyCode, sent[0].MessageType)
	assert.Contains(t, sent[0].Message, *updated.HappyCode)
	assert.Contains(t, sent[0].Message, request.RequestCode)

	solution := store.solutions[request.ID]
	require.NotNil(t, solution)
	assert.Equal(t, []int{3}, solution.SparePartIDs)
}

func TestHandleSkipsAssignmentStep(t *testing.T) {
	// A solution can land directly on a logged request; assignment is not a
	// prerequisite for the engineer who happens to be on site.
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	body := &models.HandleServiceRequestBody{Request: request.ID, Solution: "Tightened the belt"}
	photos := []models.Asset{{URL: "https://cdn.example.com/s1.jpg"}}

	updated, err := svc.Handle(ctx, body, photos, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSolutionAttached, updated.Status)

	// But not twice
	_, err = svc.Handle(ctx, body, photos, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCloseRequest(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	body := &models.HandleServiceRequestBody{Request: request.ID, Solution: "Replaced fuse"}
	photos := []models.Asset{{URL: "https://cdn.example.com/s1.jpg"}}
	handled, err := svc.Handle(ctx, body, photos, nil, 5)
	require.NoError(t, err)

	closeBody := &models.CloseServiceRequestBody{
		Code:          *handled.HappyCode,
		PaidAmount:    1500,
		PayableAmount: 1500,
		PaymentMode:   "cash",
		PaymentDate:   "2026-03-14",
	}
	closed, err := svc.Close(ctx, request.ID, closeBody, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, closed.Status)
	assert.Nil(t, closed.HappyCode)
	assert.Equal(t, 1500.0, closed.PaidAmount)
	require.NotNil(t, closed.PaymentDate)
	assert.Equal(t, "2026-03-14", timeutil.ToIST(*closed.PaymentDate).Format(timeutil.DateLayout))

	// A closed request cannot be closed again
	_, err = svc.Close(ctx, request.ID, closeBody, 5)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCloseRejectsWrongCode(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	body := &models.HandleServiceRequestBody{Request: request.ID, Solution: "Replaced fuse"}
	photos := []models.Asset{{URL: "https://cdn.example.com/s1.jpg"}}
	handled, err := svc.Handle(ctx, body, photos, nil, 5)
	require.NoError(t, err)

	closeBody := &models.CloseServiceRequestBody{Code: "000000"}
	_, err = svc.Close(ctx, request.ID, closeBody, 5)
	assert.ErrorIs(t, err, ErrInvalidCode)

	// The request stays open and the real code still works
	closeBody.Code = *handled.HappyCode
	closed, err := svc.Close(ctx, request.ID, closeBody, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, closed.Status)
}

func TestCloseRejectsBeforeSolution(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	_, err := svc.Close(ctx, request.ID, &models.CloseServiceRequestBody{Code: "123456"}, 5)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCloseRejectsBadPaymentDate(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	body := &models.HandleServiceRequestBody{Request: request.ID, Solution: "Replaced fuse"}
	photos := []models.Asset{{URL: "https://cdn.example.com/s1.jpg"}}
	handled, err := svc.Handle(ctx, body, photos, nil, 5)
	require.NoError(t, err)

	closeBody := &models.CloseServiceRequestBody{Code: *handled.HappyCode, PaymentDate: "14-03-2026"}
	_, err = svc.Close(ctx, request.ID, closeBody, 5)
	assert.ErrorContains(t, err, "invalid payment date")
}

func TestListForCustomerScoping(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	mine, err := svc.ListForCustomer(ctx, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, request.ID, mine[0].ID)

	theirs, err := svc.ListForCustomer(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestGetDetailedTenantScope(t *testing.T) {
	svc, store, _, _, _ := newRequestTestEnv()
	ctx := context.Background()
	request := createTestRequest(t, svc, store)

	detail, err := svc.GetDetailed(ctx, request.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, detail.Problem)
	assert.Equal(t, "Sita Devi", detail.OwnerName)
	assert.Equal(t, 1, detail.MemberCount)

	other := 99
	_, err = svc.GetDetailed(ctx, request.ID, &other)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetDetailed(ctx, 404, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
