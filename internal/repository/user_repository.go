package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"libmarket/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrRoleIDTaken       = errors.New("role identifier already assigned")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, status domain.VerificationStatus) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, updatedAt time.Time) error
	CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error)
}

type userRepository struct {
	db *sql.DB
}

const userColumns = `id, name, email, password_hash, role, seller_id, buyer_id, status, phone, address, created_at, updated_at`

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database using parameterized queries
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Role == nil {
		return domain.ErrUnknownRole
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role.Kind(),
		nullString(user.SellerID()),
		nullString(user.BuyerID()),
		user.Status,
		user.Phone,
		user.Address,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return ErrUserAlreadyExists
			case "users_seller_id_key", "users_buyer_id_key":
				return ErrRoleIDTaken
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by email using parameterized queries
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// List returns users oldest first, optionally narrowed to one status
func (r *userRepository) List(ctx context.Context, status domain.VerificationStatus) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateStatus records the outcome of an admin review
func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	return expectOneRow(result, ErrUserNotFound)
}

// CountByStatus counts users in status, or all users when status is empty
func (r *userRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	var (
		total int
		err   error
	)
	if status == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE status = $1`, status).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		kind              domain.RoleKind
		sellerID, buyerID sql.NullString
		phone, address    sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&kind,
		&sellerID,
		&buyerID,
		&user.Status,
		&phone,
		&address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	role, err := domain.NewRole(kind, sellerID.String, buyerID.String)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Role = role
	user.Phone = phone.String
	user.Address = address.String

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
