package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/internal/share"
	"gioservice_backend/pkg/utils"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientInUse    = errors.New("client cannot be deleted while jobs reference it")
)

// --- Client DTOs ---
type CreateClientRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

type UpdateClientRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(req CreateClientRequest) (*models.Client, error)
	GetClientByID(clientID int64) (*models.Client, error)
	GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error)
	UpdateClient(clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(clientID int64) error
	GetClientJobs(clientID int64, page, pageSize int) ([]models.Job, int, error)
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo  repositories.ClientRepository
	jobRepo     repositories.JobRepository
	db          *sql.DB
	phoneRegion string
}

// NewClientService creates a new instance of ClientService.
func NewClientService(repo repositories.ClientRepository, jobRepo repositories.JobRepository, db *sql.DB, phoneRegion string) ClientService {
	return &clientService{
		clientRepo:  repo,
		jobRepo:     jobRepo,
		db:          db,
		phoneRegion: phoneRegion,
	}
}

// normalizeContact trims the fields and brings a parseable phone to E.164.
func normalizeContact(phone, email *string, region string) (*string, *string, error) {
	phone = trimmedOrNil(phone)
	if phone != nil {
		p := share.NormalizeOrKeep(*phone, region)
		phone = &p
	}
	email = trimmedOrNil(email)
	if email != nil {
		e := strings.ToLower(*email)
		if !utils.IsValidEmail(e) {
			return nil, nil, &ValidationError{Fields: map[string]string{"email": "invalid email format"}}
		}
		email = &e
	}
	return phone, email, nil
}

func (s *clientService) CreateClient(req CreateClientRequest) (*models.Client, error) {
	if utils.IsEmpty(req.FullName) {
		return nil, &ValidationError{Fields: map[string]string{"full_name": "required"}}
	}
	phone, email, err := normalizeContact(req.Phone, req.Email, s.phoneRegion)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    phone,
		Email:    email,
		Address:  trimmedOrNil(req.Address),
		Notes:    trimmedOrNil(req.Notes),
	}
	id, err := s.clientRepo.CreateClient(s.db, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return s.GetClientByID(id)
}

func (s *clientService) GetClientByID(clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	page, pageSize = normalizePaging(page, pageSize)
	clients, total, err := s.clientRepo.GetClients(page, pageSize, trimmedOrNil(searchTerm))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	return clients, total, nil
}

func (s *clientService) UpdateClient(clientID int64, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if utils.IsEmpty(*req.FullName) {
			return nil, &ValidationError{Fields: map[string]string{"full_name": "cannot be empty"}}
		}
		client.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil || req.Email != nil {
		phone, email, err := normalizeContact(req.Phone, req.Email, s.phoneRegion)
		if err != nil {
			return nil, err
		}
		if req.Phone != nil {
			client.Phone = phone
		}
		if req.Email != nil {
			client.Email = email
		}
	}
	if req.Address != nil {
		client.Address = trimmedOrNil(req.Address)
	}
	if req.Notes != nil {
		client.Notes = trimmedOrNil(req.Notes)
	}

	if err := s.clientRepo.UpdateClient(s.db, client); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return s.GetClientByID(clientID)
}

// DeleteClient is refused while any job references the client.
func (s *clientService) DeleteClient(clientID int64) error {
	err := s.clientRepo.DeleteClient(s.db, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return ErrClientInUse
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// GetClientJobs lists jobs linked through the client_id reference.
func (s *clientService) GetClientJobs(clientID int64, page, pageSize int) ([]models.Job, int, error) {
	if _, err := s.GetClientByID(clientID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePaging(page, pageSize)
	jobs, total, err := s.jobRepo.GetJobs(models.JobFilter{ClientID: &clientID, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get client jobs: %w", err)
	}
	return jobs, total, nil
}
