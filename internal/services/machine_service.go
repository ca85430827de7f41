package services

import (
	"context"
	"fmt"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/repositories"
)

// MachineService manages the machine catalog
type MachineService struct {
	Repo *repositories.MachineRepository
}

func NewMachineService(repo *repositories.MachineRepository) *MachineService {
	return &MachineService{Repo: repo}
}

func (s *MachineService) Create(ctx context.Context, name, modelNumber, description string, photo *models.Asset, createdBy int) (*models.Machine, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	machine := &models.Machine{
		Name:        name,
		ModelNumber: modelNumber,
		Description: description,
		Photo:       photo,
		CreatedByID: createdBy,
	}
	if err := s.Repo.Create(ctx, machine); err != nil {
		return nil, err
	}
	return machine, nil
}

func (s *MachineService) Get(ctx context.Context, id int) (*models.Machine, error) {
	machine, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return machine, nil
}

func (s *MachineService) List(ctx context.Context) ([]*models.Machine, error) {
	return s.Repo.List(ctx)
}

// Update edits catalog fields; a nil photo keeps the stored one
func (s *MachineService) Update(ctx context.Context, id int, name, modelNumber, description string, photo *models.Asset) (*models.Machine, error) {
	machine, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if name != "" {
		machine.Name = name
	}
	if modelNumber != "" {
		machine.ModelNumber = modelNumber
	}
	if description != "" {
		machine.Description = description
	}
	if photo != nil {
		machine.Photo = photo
	}
	if err := s.Repo.Update(ctx, machine); err != nil {
		return nil, err
	}
	return machine, nil
}

func (s *MachineService) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	return s.Repo.Dropdown(ctx)
}
