package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/internal/sms"
	"fieldserve-backend/internal/timeutil"
)

// memoryUploader fakes object storage for handler tests
type memoryUploader struct {
	uploads int
}

func (m *memoryUploader) Upload(ctx context.Context, fh *multipart.FileHeader, prefix string) (*models.Asset, error) {
	m.uploads++
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &models.Asset{
		FileName:    fh.Filename,
		URL:         fmt.Sprintf("https://cdn.example.com/%s/%s", prefix, fh.Filename),
		ContentType: contentType,
		Size:        fh.Size,
	}, nil
}

// memoryRequestStore backs the service with just enough state for the
// handler round trips.
type memoryRequestStore struct {
	nextID   int
	requests map[int]*models.ServiceRequest
	problems map[int]*models.Problem
}

func (m *memoryRequestStore) CreateWithProblem(ctx context.Context, sr *models.ServiceRequest, p *models.Problem) error {
	sr.ID = m.nextID
	m.nextID++
	sr.Status = models.StatusProblemLogged
	sr.CreatedAt = timeutil.Now()
	m.requests[sr.ID] = sr
	p.ServiceRequestID = sr.ID
	m.problems[sr.ID] = p
	return nil
}

func (m *memoryRequestStore) Get(ctx context.Context, id int) (*models.ServiceRequest, error) {
	sr, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sr
	return &copied, nil
}

func (m *memoryRequestStore) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	count := 0
	for _, sr := range m.requests {
		if strings.HasPrefix(sr.RequestCode, prefix) {
			count++
		}
	}
	return count, nil
}

func (m *memoryRequestStore) AssignEngineer(ctx context.Context, id, engineerID, updatedBy int) (bool, error) {
	sr, ok := m.requests[id]
	if !ok || sr.Status != models.StatusProblemLogged {
		return false, nil
	}
	sr.Status = models.StatusEngineerAssigned
	sr.AssignedEngineerID = &engineerID
	return true, nil
}

func (m *memoryRequestStore) AttachSolution(ctx context.Context, sol *models.Solution, happyCode string, updatedBy int) (bool, error) {
	sr, ok := m.requests[sol.ServiceRequestID]
	if !ok {
		return false, nil
	}
	if sr.Status != models.StatusProblemLogged && sr.Status != models.StatusEngineerAssigned {
		return false, nil
	}
	sr.Status = models.StatusSolutionAttached
	sr.HappyCode = &happyCode
	return true, nil
}

func (m *memoryRequestStore) Close(ctx context.Context, id int, code string, payment *models.ClosePayment, closedBy int) (bool, error) {
	sr, ok := m.requests[id]
	if !ok || sr.Status != models.StatusSolutionAttached {
		return false, nil
	}
	if sr.HappyCode == nil || *sr.HappyCode != code {
		return false, nil
	}
	sr.Status = models.StatusClosed
	sr.HappyCode = nil
	return true, nil
}

func (m *memoryRequestStore) List(ctx context.Context) ([]*models.ServiceRequestSummary, error) {
	var out []*models.ServiceRequestSummary
	for _, sr := range m.requests {
		out = append(out, &models.ServiceRequestSummary{ID: sr.ID, RequestCode: sr.RequestCode, Status: sr.Status})
	}
	return out, nil
}

func (m *memoryRequestStore) ListByCustomer(ctx context.Context, customerID int) ([]*models.ServiceRequestSummary, error) {
	return nil, nil
}

func (m *memoryRequestStore) GetDetailed(ctx context.Context, id int) (*models.ServiceRequestDetail, error) {
	sr, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &models.ServiceRequestDetail{
		ServiceRequestSummary: models.ServiceRequestSummary{
			ID: sr.ID, RequestCode: sr.RequestCode, Status: sr.Status, CustomerID: 10,
		},
		Problem: m.problems[id],
	}, nil
}

type memoryProductStore struct{}

func (memoryProductStore) Get(ctx context.Context, id int) (*models.RegisteredProduct, error) {
	if id != 1 {
		return nil, pgx.ErrNoRows
	}
	return &models.RegisteredProduct{ID: 1, MachineID: 1, CustomerID: 10, SerialNumber: "SN-001", IsActive: true}, nil
}

type memoryContactStore struct{}

func (memoryContactStore) Get(ctx context.Context, id int) (*models.User, error) {
	if id != 5 {
		return nil, pgx.ErrNoRows
	}
	return &models.User{ID: 5, Name: "Ravi Kumar", Role: models.RoleEngineer, IsActive: true}, nil
}

func (memoryContactStore) GetCustomerContact(ctx context.Context, customerID int) (*models.User, error) {
	return &models.User{ID: 6, Name: "Sita Devi", Mobile: "9876500000", Role: models.RoleCustomer}, nil
}

func (memoryContactStore) CountByCustomer(ctx context.Context, customerID int) (int, error) {
	return 1, nil
}

type memoryNotificationStore struct{}

func (memoryNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return nil
}

func newHandlerTestRouter(t *testing.T) (*mux.Router, *memoryRequestStore) {
	t.Helper()
	store := &memoryRequestStore{
		nextID:   1,
		requests: make(map[int]*models.ServiceRequest),
		problems: make(map[int]*models.Problem),
	}
	svc := services.NewServiceRequestService(
		store, memoryProductStore{}, memoryContactStore{},
		memoryNotificationStore{}, sms.NewMockSMSService(),
	)
	h := NewServiceRequestHandler(svc, &memoryUploader{})

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/requests", h.CreateRequest).Methods("POST")
	r.HandleFunc("/api/v1/requests", h.ListRequests).Methods("GET")
	r.HandleFunc("/api/v1/requests/{id}", h.HandleRequest).Methods("POST")
	r.HandleFunc("/api/v1/requests/{id}", h.CloseRequest).Methods("PUT")
	r.HandleFunc("/api/v1/requests/{id}/detail", h.GetRequest).Methods("GET")
	return r, store
}

// authedRequest stamps the context the auth middleware would have populated
func authedRequest(r *http.Request, userID int, customerID *int) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	if customerID != nil {
		ctx = context.WithValue(ctx, middleware.CustomerIDKey, *customerID)
	}
	return r.WithContext(ctx)
}

// multipartBody builds a "body" JSON field plus attachment files
func multipartBody(t *testing.T, payload any, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("body", string(encoded)))

	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestCreateRequestEndpoint(t *testing.T) {
	router, store := newHandlerTestRouter(t)

	body, contentType := multipartBody(t,
		models.CreateServiceRequestBody{Product: 1, Problem: "Compressor not starting"},
		"front.jpg", "panel.jpg",
	)
	req := httptest.NewRequest("POST", "/api/v1/requests", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(req, 6, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.ServiceRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.StatusProblemLogged, created.Status)
	assert.NotEmpty(t, created.RequestCode)

	problem := store.problems[created.ID]
	require.NotNil(t, problem)
	assert.Len(t, problem.Photos, 2)
}

func TestCreateRequestRequiresAttachment(t *testing.T) {
	router, _ := newHandlerTestRouter(t)

	body, contentType := multipartBody(t,
		models.CreateServiceRequestBody{Product: 1, Problem: "Compressor not starting"},
	)
	req := httptest.NewRequest("POST", "/api/v1/requests", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(req, 6, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "attachment")
}

func TestCreateRequestRejectsForeignProduct(t *testing.T) {
	router, _ := newHandlerTestRouter(t)

	body, contentType := multipartBody(t,
		models.CreateServiceRequestBody{Product: 1, Problem: "Compressor not starting"},
		"front.jpg",
	)
	req := httptest.NewRequest("POST", "/api/v1/requests", body)
	req.Header.Set("Content-Type", contentType)
	otherTenant := 99
	req = authedRequest(req, 6, &otherTenant)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAndCloseEndpoints(t *testing.T) {
	router, store := newHandlerTestRouter(t)

	// Open a request directly through the store
	sr := &models.ServiceRequest{RequestCode: "20260314-0001", ProductID: 1, CreatedByID: 6}
	require.NoError(t, store.CreateWithProblem(context.Background(),
		sr, &models.Problem{ProductID: 1, Description: "broken"}))

	body, contentType := multipartBody(t,
		models.HandleServiceRequestBody{Solution: "Replaced the start capacitor"},
		"after.jpg",
	)
	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/requests/%d", sr.ID), body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(req, 5, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The closure code is only ever delivered over SMS
	happyCode := *store.requests[sr.ID].HappyCode
	assert.NotContains(t, rec.Body.String(), happyCode)

	// Wrong code is rejected and the request stays open
	closeBody, err := json.Marshal(models.CloseServiceRequestBody{Code: "000000"})
	require.NoError(t, err)
	req = httptest.NewRequest("PUT", fmt.Sprintf("/api/v1/requests/%d", sr.ID), bytes.NewReader(closeBody))
	req = authedRequest(req, 5, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.StatusSolutionAttached, store.requests[sr.ID].Status)

	// The right code closes it
	closeBody, err = json.Marshal(models.CloseServiceRequestBody{Code: happyCode, PaidAmount: 1500, PaymentMode: "cash"})
	require.NoError(t, err)
	req = httptest.NewRequest("PUT", fmt.Sprintf("/api/v1/requests/%d", sr.ID), bytes.NewReader(closeBody))
	req = authedRequest(req, 5, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusClosed, store.requests[sr.ID].Status)
}

func TestGetRequestDetailTenantScope(t *testing.T) {
	router, store := newHandlerTestRouter(t)

	sr := &models.ServiceRequest{RequestCode: "20260314-0001", ProductID: 1, CreatedByID: 6}
	require.NoError(t, store.CreateWithProblem(context.Background(),
		sr, &models.Problem{ProductID: 1, Description: "broken"}))

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/requests/%d/detail", sr.ID), nil)
	req = authedRequest(req, 2, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail models.ServiceRequestDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.Problem)
	assert.Equal(t, "Sita Devi", detail.OwnerName)

	// Another organization's user gets a 404, not a 403
	otherTenant := 99
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/requests/%d/detail", sr.ID), nil)
	req = authedRequest(req, 7, &otherTenant)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
