package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldserve-backend/internal/models"
)

type fakeCustomerStore struct {
	nextID    int
	customers map[int]*models.Customer
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{nextID: 1, customers: make(map[int]*models.Customer)}
}

func (f *fakeCustomerStore) Create(ctx context.Context, c *models.Customer) error {
	c.ID = f.nextID
	f.nextID++
	c.IsActive = true
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerStore) Get(ctx context.Context, id int) (*models.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCustomerStore) GetByMobile(ctx context.Context, mobile string) (*models.Customer, error) {
	for _, c := range f.customers {
		if c.Mobile == mobile {
			return c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerStore) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerStore) List(ctx context.Context) ([]*models.Customer, error) {
	var out []*models.Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCustomerStore) Update(ctx context.Context, c *models.Customer) error {
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerStore) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	var out []*models.DropdownItem
	for _, c := range f.customers {
		out = append(out, &models.DropdownItem{ID: c.ID, Label: c.Name})
	}
	return out, nil
}

func TestCustomerCreateNormalizes(t *testing.T) {
	store := newFakeCustomerStore()
	svc := NewCustomerService(store)
	ctx := context.Background()

	customer, err := svc.Create(ctx, &models.CreateCustomerRequest{
		Name:   "Sharma Traders",
		Email:  " Accounts@SharmaTraders.IN ",
		Mobile: "+91 98765 43210",
		City:   "Pune",
	})
	require.NoError(t, err)
	assert.Equal(t, "accounts@sharmatraders.in", customer.Email)
	assert.Equal(t, "9876543210", customer.Mobile)
	assert.True(t, customer.IsActive)
}

func TestCustomerCreateRejectsFormattingVariants(t *testing.T) {
	store := newFakeCustomerStore()
	svc := NewCustomerService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.CreateCustomerRequest{
		Name:   "Sharma Traders",
		Email:  "accounts@sharmatraders.in",
		Mobile: "9876543210",
	})
	require.NoError(t, err)

	// Same mobile with a country prefix collides
	_, err = svc.Create(ctx, &models.CreateCustomerRequest{
		Name:   "Sharma Traders Pune",
		Email:  "pune@sharmatraders.in",
		Mobile: "+919876543210",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	// Same email in different case collides
	_, err = svc.Create(ctx, &models.CreateCustomerRequest{
		Name:   "Sharma Traders Pune",
		Email:  "ACCOUNTS@sharmatraders.in",
		Mobile: "9876500000",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerCreateValidation(t *testing.T) {
	svc := NewCustomerService(newFakeCustomerStore())
	_, err := svc.Create(context.Background(), &models.CreateCustomerRequest{Name: "No Contact"})
	assert.Error(t, err)
}

func TestCustomerUpdatePartial(t *testing.T) {
	store := newFakeCustomerStore()
	svc := NewCustomerService(store)
	ctx := context.Background()

	customer, err := svc.Create(ctx, &models.CreateCustomerRequest{
		Name:   "Sharma Traders",
		Email:  "accounts@sharmatraders.in",
		Mobile: "9876543210",
		City:   "Pune",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, customer.ID, &models.UpdateCustomerRequest{City: "Mumbai"})
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", updated.City)
	assert.Equal(t, "Sharma Traders", updated.Name)
	assert.Equal(t, "9876543210", updated.Mobile)

	// Keeping your own contact details is not a duplicate
	_, err = svc.Update(ctx, customer.ID, &models.UpdateCustomerRequest{Mobile: "+919876543210"})
	assert.NoError(t, err)
}

func TestCustomerUpdateRejectsTakenContact(t *testing.T) {
	store := newFakeCustomerStore()
	svc := NewCustomerService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.CreateCustomerRequest{
		Name: "First", Email: "first@example.com", Mobile: "9876543210",
	})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &models.CreateCustomerRequest{
		Name: "Second", Email: "second@example.com", Mobile: "9876500000",
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, &models.UpdateCustomerRequest{Mobile: "98765 43210"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Update(ctx, second.ID, &models.UpdateCustomerRequest{Email: "First@Example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerGetNotFound(t *testing.T) {
	svc := NewCustomerService(newFakeCustomerStore())
	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
