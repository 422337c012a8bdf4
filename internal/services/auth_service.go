package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

const minPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest DTO
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"` // admin or staff; staff when empty
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(req LoginRequest) (*AuthResponse, error)
	Refresh(userID int64) (*AuthResponse, error)
	GetUser(userID int64) (*models.User, error)
	CreateUser(req CreateUserRequest) (*models.User, error)
	EnsureBootstrapAdmin(username, password string) error
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
	tokens   *utils.TokenIssuer
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB, tokens *utils.TokenIssuer) AuthService {
	return &authService{
		authRepo: authRepo,
		db:       db,
		tokens:   tokens,
	}
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &AuthResponse{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Login checks the password with bcrypt. Unknown and inactive users get the same error as a wrong password.
func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	user, hash, err := s.authRepo.FindUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Refresh issues a new token with a fresh expiry for a still-valid session.
func (s *authService) Refresh(userID int64) (*AuthResponse, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) GetUser(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) CreateUser(req CreateUserRequest) (*models.User, error) {
	checks := fieldChecks{}
	username := strings.TrimSpace(req.Username)
	checks.required("username", username)
	if len(req.Password) < minPasswordLength {
		checks.fail("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}
	if !models.IsValidRole(role) {
		checks.fail("role", "must be admin or staff")
	}
	if err := checks.err(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, FullName: trimmedOrNil(req.FullName), Role: role}
	if _, err := s.authRepo.CreateUser(s.db, user, string(hashed)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// EnsureBootstrapAdmin creates the first admin when the users table is empty.
func (s *authService) EnsureBootstrapAdmin(username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := s.authRepo.CountUsers()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	user, err := s.CreateUser(CreateUserRequest{Username: username, Password: password, Role: models.RoleAdmin})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	utils.LogInfo("bootstrap admin created", map[string]interface{}{"username": user.Username})
	return nil
}
