package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/repository"
	"libmarket/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// roleIDAttempts bounds retries when a generated role id is already taken
	roleIDAttempts = 5
)

// RegisterInput carries the registration form
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            domain.RoleKind
	Phone           string
	Address         string
}

// AuthService defines registration, login and session handling
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken string, session *domain.Session, err error)
	OpenSession(ctx context.Context, user *domain.User) (accessToken string, session *domain.Session, err error)
	Logout(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	RefreshProfile(ctx context.Context, sessionID string) (*domain.Session, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	SessionID string    `json:"sid"`
	jwt.RegisteredClaims
}

type authService struct {
	users        repository.UserRepository
	sessions     store.SessionStore
	carts        store.CartStore
	jwtSecret    string
	accessExpiry time.Duration
	logger       *zap.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	users repository.UserRepository,
	sessions store.SessionStore,
	carts store.CartStore,
	jwtSecret string,
	accessExpiry time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:        users,
		sessions:     sessions,
		carts:        carts,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
		logger:       logger,
	}
}

// GenerateRoleID derives a role-specific identifier from the clock: a
// prefix (RSH for sellers, BUY for buyers) and the last three digits of
// the unix time in milliseconds. Admins get no identifier.
func GenerateRoleID(kind domain.RoleKind, now time.Time) string {
	var prefix string
	switch kind {
	case domain.KindSeller:
		prefix = "RSH"
	case domain.KindBuyer:
		prefix = "BUY"
	default:
		return ""
	}
	return fmt.Sprintf("%s%03d", prefix, now.UnixMilli()%1000)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Register creates a pending buyer or seller account with hashed password
func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if in.Role == domain.KindAdmin {
		return nil, ErrAdminRegistration
	}
	if _, err := domain.ParseRoleKind(string(in.Role)); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	hashedPassword, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Status:       domain.StatusPending,
		Phone:        in.Phone,
		Address:      in.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 0; ; attempt++ {
		roleID := GenerateRoleID(in.Role, now.Add(time.Duration(attempt)*time.Millisecond))
		user.Role, err = domain.NewRole(in.Role, sellerPart(in.Role, roleID), buyerPart(in.Role, roleID))
		if err != nil {
			return nil, err
		}

		err = s.users.Create(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		if !errors.Is(err, repository.ErrRoleIDTaken) || attempt+1 >= roleIDAttempts {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(in.Role)),
	)

	return user, nil
}

func sellerPart(kind domain.RoleKind, id string) string {
	if kind == domain.KindSeller {
		return id
	}
	return ""
}

func buyerPart(kind domain.RoleKind, id string) string {
	if kind == domain.KindBuyer {
		return id
	}
	return ""
}

// Login authenticates a user, opens a session and returns a JWT bound to it
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	return s.OpenSession(ctx, user)
}

// OpenSession stores a session profile for an already authenticated user
// and returns a JWT bound to it
func (s *authService) OpenSession(ctx context.Context, user *domain.User) (string, *domain.Session, error) {
	session := domain.NewSession(user)
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to save session: %w", err)
	}

	accessToken, err := s.generateAccessToken(session)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, session, nil
}

// Logout drops the session profile and its cart
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// Session loads the profile bound to sessionID
func (s *authService) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// RefreshProfile reloads the user behind a session and saves the fresh
// profile back, so status changes made by an admin become visible.
func (s *authService) RefreshProfile(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, session.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	session.User = user
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateAccessToken generates a JWT with user ID, role and session claims
func (s *authService) generateAccessToken(session *domain.Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    session.User.ID,
		Role:      string(session.User.Role.Kind()),
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
