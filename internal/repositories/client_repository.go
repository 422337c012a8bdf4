package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/models"
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(executor SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(id int64) (*models.Client, error)
	GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) // Clients, total count, error
	UpdateClient(executor SQLExecutor, client *models.Client) error
	DeleteClient(executor SQLExecutor, id int64) error
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, full_name, phone, email, address, notes, created_at, updated_at`

func scanClient(s scanner, client *models.Client, extra ...interface{}) error {
	dest := []interface{}{
		&client.ID, &client.FullName, &client.Phone, &client.Email,
		&client.Address, &client.Notes, &client.CreatedAt, &client.UpdatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

// CreateClient inserts a new client into the database.
func (r *clientRepository) CreateClient(executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (full_name, phone, email, address, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	client.CreatedAt = currentTime
	client.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		client.FullName, client.Phone, client.Email, client.Address, client.Notes,
		client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating client")
	}
	return client.ID, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(id int64) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	if err := scanClient(r.db.QueryRow(query, id), client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// GetClients retrieves a list of clients with pagination and optional search.
func (r *clientRepository) GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + clientColumns + `, COUNT(*) OVER() AS total_count FROM clients`)

	var args []interface{}
	argCount := 1

	if searchTerm != nil && strings.TrimSpace(*searchTerm) != "" {
		searchPattern := "%" + strings.ToLower(strings.TrimSpace(*searchTerm)) + "%"
		queryBuilder.WriteString(fmt.Sprintf(" WHERE (LOWER(full_name) LIKE $%d OR phone LIKE $%d OR LOWER(email) LIKE $%d)", argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY full_name ASC, id ASC")
	queryBuilder.WriteString(paginate(&args, &argCount, page, pageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var client models.Client
		if err := scanClient(rows, &client, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

// UpdateClient updates an existing client in the database.
func (r *clientRepository) UpdateClient(executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET
	            full_name = $1, phone = $2, email = $3, address = $4, notes = $5, updated_at = $6
	          WHERE id = $7`

	client.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		client.FullName, client.Phone, client.Email, client.Address, client.Notes,
		client.UpdatedAt, client.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating client ID %d", client.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating client ID %d", client.ID))
}

// DeleteClient removes a client. Jobs referencing the client block the delete with ErrForeignKey.
func (r *clientRepository) DeleteClient(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting client ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting client ID %d", id))
}
