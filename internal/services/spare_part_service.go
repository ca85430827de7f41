package services

import (
	"context"
	"fmt"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/repositories"
)

// SparePartService manages the spare part catalog
type SparePartService struct {
	Repo *repositories.SparePartRepository
}

func NewSparePartService(repo *repositories.SparePartRepository) *SparePartService {
	return &SparePartService{Repo: repo}
}

func (s *SparePartService) Create(ctx context.Context, name, partNumber, description string, photo *models.Asset, createdBy int) (*models.SparePart, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	part := &models.SparePart{
		Name:        name,
		PartNumber:  partNumber,
		Description: description,
		Photo:       photo,
		CreatedByID: createdBy,
	}
	if err := s.Repo.Create(ctx, part); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *SparePartService) Get(ctx context.Context, id int) (*models.SparePart, error) {
	part, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return part, nil
}

func (s *SparePartService) List(ctx context.Context) ([]*models.SparePart, error) {
	return s.Repo.List(ctx)
}

func (s *SparePartService) Update(ctx context.Context, id int, name, partNumber, description string, photo *models.Asset) (*models.SparePart, error) {
	part, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if name != "" {
		part.Name = name
	}
	if partNumber != "" {
		part.PartNumber = partNumber
	}
	if description != "" {
		part.Description = description
	}
	if photo != nil {
		part.Photo = photo
	}
	if err := s.Repo.Update(ctx, part); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *SparePartService) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	return s.Repo.Dropdown(ctx)
}
