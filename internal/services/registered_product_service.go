package services

import (
	"context"
	"fmt"
	"time"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/repositories"
	"fieldserve-backend/internal/timeutil"
)

// RegisteredProductService manages machine instances installed at customer sites
type RegisteredProductService struct {
	Repo *repositories.RegisteredProductRepository
}

func NewRegisteredProductService(repo *repositories.RegisteredProductRepository) *RegisteredProductService {
	return &RegisteredProductService{Repo: repo}
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := timeutil.ParseInIST(timeutil.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return &t, nil
}

// Register records a machine installation under a customer. Serial numbers
// are globally unique.
func (s *RegisteredProductService) Register(ctx context.Context, req *models.CreateRegisteredProductRequest, createdBy int) (*models.RegisteredProduct, error) {
	if req.MachineID == 0 || req.CustomerID == 0 || req.SerialNumber == "" {
		return nil, fmt.Errorf("machine, customer and sl_no are required")
	}

	if _, err := s.Repo.GetBySerialNumber(ctx, req.SerialNumber); mapNoRows(err) != ErrNotFound {
		if err == nil {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	installed, err := parseDate(req.InstallationDate)
	if err != nil {
		return nil, err
	}
	warranty, err := parseDate(req.WarrantyExpiry)
	if err != nil {
		return nil, err
	}

	product := &models.RegisteredProduct{
		MachineID:        req.MachineID,
		CustomerID:       req.CustomerID,
		SerialNumber:     req.SerialNumber,
		InstallationDate: installed,
		WarrantyExpiry:   warranty,
		CreatedByID:      createdBy,
	}
	if err := s.Repo.Create(ctx, product); err != nil {
		return nil, err
	}
	product.IsActive = true
	return product, nil
}

func (s *RegisteredProductService) Get(ctx context.Context, id int) (*models.RegisteredProduct, error) {
	product, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return product, nil
}

func (s *RegisteredProductService) List(ctx context.Context) ([]*models.RegisteredProduct, error) {
	return s.Repo.List(ctx)
}

// ListByCustomer scopes the product list to the caller's organization
func (s *RegisteredProductService) ListByCustomer(ctx context.Context, customerID int) ([]*models.RegisteredProduct, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

func (s *RegisteredProductService) Update(ctx context.Context, id int, req *models.UpdateRegisteredProductRequest) (*models.RegisteredProduct, error) {
	product, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}

	if req.SerialNumber != "" && req.SerialNumber != product.SerialNumber {
		if other, err := s.Repo.GetBySerialNumber(ctx, req.SerialNumber); err == nil && other.ID != id {
			return nil, ErrDuplicate
		} else if err != nil && mapNoRows(err) != ErrNotFound {
			return nil, err
		}
		product.SerialNumber = req.SerialNumber
	}
	if req.InstallationDate != "" {
		installed, err := parseDate(req.InstallationDate)
		if err != nil {
			return nil, err
		}
		product.InstallationDate = installed
	}
	if req.WarrantyExpiry != "" {
		warranty, err := parseDate(req.WarrantyExpiry)
		if err != nil {
			return nil, err
		}
		product.WarrantyExpiry = warranty
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.Repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *RegisteredProductService) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	return s.Repo.Dropdown(ctx)
}
