package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO. Role is ignored for the very first user, who
// always becomes the owner.
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UpdateRoleRequest DTO
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetActiveRequest DTO
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
}

// TokenIssuer signs access tokens. *utils.TokenManager satisfies it.
type TokenIssuer interface {
	GenerateAccessToken(userID, username, role string) (string, error)
	TTL() time.Duration
}

// --- AuthService Interface ---
type AuthService interface {
	// RegisterUser creates an account. actor is nil for anonymous callers,
	// which is only accepted while no users exist.
	RegisterUser(ctx context.Context, actor *models.Actor, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, actor models.Actor, userID string, req UpdateRoleRequest) (*models.User, error)
	SetActive(ctx context.Context, actor models.Actor, userID string, req SetActiveRequest) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	tx       repositories.Transactor
	tokens   TokenIssuer
	hashCost int
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, tx repositories.Transactor, tokens TokenIssuer) AuthService {
	return &authService{
		authRepo: authRepo,
		tx:       tx,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

func validateRegistration(req RegisterUserRequest) error {
	if utils.IsEmpty(req.Username) {
		return validationErrorf("username is required")
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	if req.Email != "" && !utils.IsValidEmail(req.Email) {
		return validationErrorf("invalid email address")
	}
	return nil
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(ctx context.Context, actor *models.Actor, req RegisterUserRequest) (*models.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(req.Username),
		Email:    utils.NewNullString(strings.TrimSpace(req.Email)),
		FullName: utils.NewNullString(strings.TrimSpace(req.FullName)),
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.authRepo.CountUsers(ctx, exec)
		if err != nil {
			return err
		}
		if count == 0 {
			user.Role = models.RoleOwner
		} else {
			if actor == nil || !models.IsPrivilegedRole(actor.Role) {
				return ErrForbidden
			}
			role := strings.ToLower(strings.TrimSpace(req.Role))
			if role == "" {
				role = models.RoleWaiter
			}
			if !models.IsValidRole(role) {
				return validationErrorf("unknown role %q", req.Role)
			}
			if role == models.RoleOwner && actor.Role != models.RoleOwner {
				return fmt.Errorf("%w: only an owner can create another owner", ErrForbidden)
			}
			user.Role = role
		}
		return s.authRepo.CreateUser(ctx, exec, user, string(hashedPasswordBytes))
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, storeError(err, nil)
	}

	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return user, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err, nil)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.authRepo.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return users, nil
}

// checkManageable enforces that only privileged users manage accounts, that
// nobody changes their own account, and that owners are managed by owners only.
func (s *authService) checkManageable(ctx context.Context, actor models.Actor, userID string) (*models.User, error) {
	if !models.IsPrivilegedRole(actor.Role) {
		return nil, ErrForbidden
	}
	if actor.UserID == userID {
		return nil, fmt.Errorf("%w: you cannot change your own account", ErrForbidden)
	}
	target, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	if target.Role == models.RoleOwner && actor.Role != models.RoleOwner {
		return nil, fmt.Errorf("%w: only an owner can change an owner account", ErrForbidden)
	}
	return target, nil
}

func (s *authService) UpdateRole(ctx context.Context, actor models.Actor, userID string, req UpdateRoleRequest) (*models.User, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !models.IsValidRole(role) {
		return nil, validationErrorf("unknown role %q", req.Role)
	}
	target, err := s.checkManageable(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleOwner && actor.Role != models.RoleOwner {
		return nil, fmt.Errorf("%w: only an owner can grant the owner role", ErrForbidden)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.authRepo.UpdateRole(ctx, exec, userID, role)
	})
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	utils.LogInfo("User role changed", map[string]interface{}{
		"user_id":  userID,
		"from":     target.Role,
		"to":       role,
		"actor_id": actor.UserID,
	})
	target.Role = role
	return target, nil
}

func (s *authService) SetActive(ctx context.Context, actor models.Actor, userID string, req SetActiveRequest) (*models.User, error) {
	target, err := s.checkManageable(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.authRepo.SetActive(ctx, exec, userID, req.Active)
	})
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	target.IsActive = req.Active
	return target, nil
}
