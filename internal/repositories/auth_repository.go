package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
)

// AuthRepository defines the interface for user account database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context, executor SQLExecutor) (int, error)
	UpdateRole(ctx context.Context, executor SQLExecutor, userID, role string) error
	SetActive(ctx context.Context, executor SQLExecutor, userID string, active bool) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user. IsActive is set to true; timestamps are set to now.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) error {
	query := `INSERT INTO users (id, username, password_hash, email, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := executor.ExecContext(ctx, query,
		user.ID, user.Username, hashedPassword, user.Email, user.FullName, user.Role, user.IsActive, now, now,
	)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return nil
}

const userColumns = `id, username, password_hash, email, full_name, role, is_active, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// FindUserByUsername returns the user model and their hashed password.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	hash := user.PasswordHash
	user.PasswordHash = ""
	return user, hash, nil
}

// FindUserByID retrieves a user profile by ID. The password hash is not populated.
func (r *authRepository) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	if !isRecordID(userID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %s: %v", ErrDatabaseError, userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (r *authRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		user.PasswordHash = ""
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating users: %v", ErrDatabaseError, err)
	}
	return users, nil
}

func (r *authRepository) CountUsers(ctx context.Context, executor SQLExecutor) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var n int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting users: %v", ErrDatabaseError, err)
	}
	return n, nil
}

func (r *authRepository) UpdateRole(ctx context.Context, executor SQLExecutor, userID, role string) error {
	if !isRecordID(userID) {
		return ErrNotFound
	}
	result, err := executor.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, role, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: updating role for user %s: %v", ErrDatabaseError, userID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *authRepository) SetActive(ctx context.Context, executor SQLExecutor, userID string, active bool) error {
	if !isRecordID(userID) {
		return ErrNotFound
	}
	result, err := executor.ExecContext(ctx, `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: updating active flag for user %s: %v", ErrDatabaseError, userID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
