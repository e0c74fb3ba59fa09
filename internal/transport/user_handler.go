package transport

import (
	"net/http"

	"libmarket/internal/domain"
	"libmarket/internal/middleware"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=buyer seller"`
	Phone           string `json:"phone" validate:"max=50"`
	Address         string `json:"address"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token and the session profile
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	Profile     *UserProfile `json:"profile"`
}

// UserProfile is the flat profile record plus where the front end should
// send the user
type UserProfile struct {
	User      *domain.User `json:"user"`
	Dashboard string       `json:"dashboard"`
}

func newUserProfile(user *domain.User) *UserProfile {
	return &UserProfile{User: user, Dashboard: user.DashboardPath()}
}

// UserHandler handles HTTP requests for accounts and sessions
type UserHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService service.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/users", func(r chi.Router) {
		// Public routes
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(guards.Authenticate)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
			r.Post("/profile/refresh", h.RefreshProfile)
		})
	})
}

// Register handles buyer and seller registration. The new account is
// signed in straight away.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            domain.RoleKind(req.Role),
		Phone:           req.Phone,
		Address:         req.Address,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to register user")
		return
	}

	accessToken, session, err := h.authService.OpenSession(r.Context(), user)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to open session")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Profile:     newUserProfile(session.User),
	})
}

// Login authenticates and opens a session
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	accessToken, session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to login")
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", session.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Profile:     newUserProfile(session.User),
	})
}

// Logout ends the session and drops its cart
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), session.ID); err != nil {
		respondServiceError(w, h.logger, err, "failed to logout")
		return
	}

	h.logger.Info("User logged out successfully", zap.String("user_id", session.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// GetProfile returns the profile held in the session
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newUserProfile(session.User))
}

// RefreshProfile reloads the account so an admin decision shows up
func (h *UserHandler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	refreshed, err := h.authService.RefreshProfile(r.Context(), session.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to refresh profile")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newUserProfile(refreshed.User))
}
