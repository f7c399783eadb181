package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/auth"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/httputil"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/validator"
)

const bcryptCost = 12

// AuthHandler issues access tokens for the demo credentials configured in the
// environment. Order creation is the only guarded endpoint.
type AuthHandler struct {
	jwtManager   *auth.JWTManager
	username     string
	passwordHash []byte
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. The configured password is
// hashed once at startup so only the hash is held in memory.
func NewAuthHandler(jwtManager *auth.JWTManager, username, password string, logger *slog.Logger) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{
		jwtManager:   jwtManager,
		username:     username,
		passwordHash: hash,
		logger:       logger,
	}, nil
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the JSON response containing the access token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) == nil
	if !userOK || !passOK {
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid credentials"), h.logger)
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username, "admin")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: LoginResponse{Token: token}})
}
