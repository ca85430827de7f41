package services

import (
	"context"
	"fmt"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/pkg/utils"
)

// CustomerStore is the persistence surface CustomerService needs
type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, id int) (*models.Customer, error)
	GetByMobile(ctx context.Context, mobile string) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Dropdown(ctx context.Context) ([]*models.DropdownItem, error)
}

// CustomerService manages customer organizations
type CustomerService struct {
	Store CustomerStore
}

func NewCustomerService(store CustomerStore) *CustomerService {
	return &CustomerService{Store: store}
}

// Create registers a customer organization. Mobile and email are normalized
// before the duplicate check so formatting variants of the same contact
// cannot slip past it.
func (s *CustomerService) Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	if req.Name == "" || req.Mobile == "" || req.Email == "" {
		return nil, fmt.Errorf("name, email and mobile are required")
	}

	mobile := utils.NormalizeMobile(req.Mobile)
	email := utils.NormalizeEmail(req.Email)

	if _, err := s.Store.GetByMobile(ctx, mobile); mapNoRows(err) != ErrNotFound {
		if err == nil {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if _, err := s.Store.GetByEmail(ctx, email); mapNoRows(err) != ErrNotFound {
		if err == nil {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	customer := &models.Customer{
		Name:    req.Name,
		Email:   email,
		Mobile:  mobile,
		Address: req.Address,
		City:    req.City,
	}
	if err := s.Store.Create(ctx, customer); err != nil {
		return nil, err
	}
	customer.IsActive = true
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, id int) (*models.Customer, error) {
	customer, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context) ([]*models.Customer, error) {
	return s.Store.List(ctx)
}

// Update applies a partial edit; empty fields keep their current value
func (s *CustomerService) Update(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}

	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.Email != "" {
		email := utils.NormalizeEmail(req.Email)
		if email != customer.Email {
			if other, err := s.Store.GetByEmail(ctx, email); err == nil && other.ID != id {
				return nil, ErrDuplicate
			} else if err != nil && mapNoRows(err) != ErrNotFound {
				return nil, err
			}
			customer.Email = email
		}
	}
	if req.Mobile != "" {
		mobile := utils.NormalizeMobile(req.Mobile)
		if mobile != customer.Mobile {
			if other, err := s.Store.GetByMobile(ctx, mobile); err == nil && other.ID != id {
				return nil, ErrDuplicate
			} else if err != nil && mapNoRows(err) != ErrNotFound {
				return nil, err
			}
			customer.Mobile = mobile
		}
	}
	if req.Address != "" {
		customer.Address = req.Address
	}
	if req.City != "" {
		customer.City = req.City
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	if err := s.Store.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Dropdown returns {id, label} pairs for pickers
func (s *CustomerService) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	return s.Store.Dropdown(ctx)
}
