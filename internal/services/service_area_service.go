package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
)

var (
	ErrServiceAreaNotFound = errors.New("service area not found")
	ErrServiceAreaExists   = errors.New("a service area with this name already exists")
	ErrZipTaken            = errors.New("zip code already belongs to another service area")
	ErrZipNotCovered       = errors.New("no active service area covers this zip code")
)

const zipConstraint = "service_area_zips_zip_code_key"

// --- Service Area DTOs ---
type CreateServiceAreaRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Zips        []string `json:"zips"`
}

type UpdateServiceAreaRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type ReplaceZipsRequest struct {
	Zips []string `json:"zips"`
}

// --- ServiceAreaService Interface ---
type ServiceAreaService interface {
	CreateArea(req CreateServiceAreaRequest) (*models.ServiceArea, error)
	GetAreaByID(id int64) (*models.ServiceArea, error)
	GetAreas(activeOnly bool) ([]models.ServiceArea, error)
	UpdateArea(id int64, req UpdateServiceAreaRequest) (*models.ServiceArea, error)
	ReplaceZips(id int64, zips []string) (*models.ServiceArea, error)
	DeleteArea(id int64) error
	LookupZip(zip string) (*models.ServiceArea, error)
}

type serviceAreaService struct {
	areaRepo repositories.ServiceAreaRepository
	tx       repositories.TxRunner
	db       *sql.DB
}

func NewServiceAreaService(areaRepo repositories.ServiceAreaRepository, tx repositories.TxRunner, db *sql.DB) ServiceAreaService {
	return &serviceAreaService{areaRepo: areaRepo, tx: tx, db: db}
}

// normalizeZips trims, de-duplicates and sorts zips, rejecting anything that is not five digits.
func normalizeZips(zips []string) ([]string, error) {
	seen := make(map[string]struct{}, len(zips))
	out := make([]string, 0, len(zips))
	var bad []string
	for _, z := range zips {
		z = models.NormalizeZip(z)
		if z == "" {
			continue
		}
		if !models.IsValidZip(z) {
			bad = append(bad, z)
			continue
		}
		if _, dup := seen[z]; dup {
			continue
		}
		seen[z] = struct{}{}
		out = append(out, z)
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: map[string]string{"zips": "invalid zip codes: " + strings.Join(bad, ", ")}}
	}
	sort.Strings(out)
	return out, nil
}

func mapAreaWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrServiceAreaNotFound
	case repositories.IsConstraint(err, zipConstraint):
		return ErrZipTaken
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrServiceAreaExists
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *serviceAreaService) CreateArea(req CreateServiceAreaRequest) (*models.ServiceArea, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "required"}}
	}
	zips, err := normalizeZips(req.Zips)
	if err != nil {
		return nil, err
	}
	area := &models.ServiceArea{Name: name, Description: trimmedOrNil(req.Description), IsActive: true}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}

	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		if _, err := s.areaRepo.CreateArea(exec, area); err != nil {
			return err
		}
		return s.areaRepo.ReplaceZips(exec, area.ID, zips)
	})
	if err != nil {
		return nil, mapAreaWriteError(err, "create service area")
	}
	return s.GetAreaByID(area.ID)
}

func (s *serviceAreaService) GetAreaByID(id int64) (*models.ServiceArea, error) {
	area, err := s.areaRepo.GetAreaByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceAreaNotFound
		}
		return nil, fmt.Errorf("failed to get service area: %w", err)
	}
	return area, nil
}

func (s *serviceAreaService) GetAreas(activeOnly bool) ([]models.ServiceArea, error) {
	areas, err := s.areaRepo.GetAreas(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get service areas: %w", err)
	}
	return areas, nil
}

func (s *serviceAreaService) UpdateArea(id int64, req UpdateServiceAreaRequest) (*models.ServiceArea, error) {
	area, err := s.GetAreaByID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Fields: map[string]string{"name": "cannot be empty"}}
		}
		area.Name = name
	}
	if req.Description != nil {
		area.Description = trimmedOrNil(req.Description)
	}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}
	if err := s.areaRepo.UpdateArea(s.db, area); err != nil {
		return nil, mapAreaWriteError(err, "update service area")
	}
	return s.GetAreaByID(id)
}

// ReplaceZips swaps the whole ZIP set in one transaction.
func (s *serviceAreaService) ReplaceZips(id int64, zips []string) (*models.ServiceArea, error) {
	normalized, err := normalizeZips(zips)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetAreaByID(id); err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		return s.areaRepo.ReplaceZips(exec, id, normalized)
	})
	if err != nil {
		return nil, mapAreaWriteError(err, "replace service area zips")
	}
	return s.GetAreaByID(id)
}

func (s *serviceAreaService) DeleteArea(id int64) error {
	if err := s.areaRepo.DeleteArea(s.db, id); err != nil {
		return mapAreaWriteError(err, "delete service area")
	}
	return nil
}

// LookupZip returns the active area covering zip, or ErrZipNotCovered.
func (s *serviceAreaService) LookupZip(zip string) (*models.ServiceArea, error) {
	zip = models.NormalizeZip(zip)
	if !models.IsValidZip(zip) {
		return nil, &ValidationError{Fields: map[string]string{"zip": "must be a 5-digit ZIP code"}}
	}
	area, err := s.areaRepo.FindAreaByZip(zip)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrZipNotCovered
		}
		return nil, fmt.Errorf("failed to look up zip: %w", err)
	}
	return area, nil
}

// zipLookup adapts the repository to the intake wizard's area lookup.
type zipLookup struct {
	areaRepo repositories.ServiceAreaRepository
}

// NewZipLookup returns the lookup the intake wizard uses to tag drafts.
func NewZipLookup(areaRepo repositories.ServiceAreaRepository) intake.AreaLookup {
	return &zipLookup{areaRepo: areaRepo}
}

func (l *zipLookup) LookupZip(_ context.Context, zip string) (*models.ServiceArea, error) {
	area, err := l.areaRepo.FindAreaByZip(zip)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return area, nil
}
