package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corvus-faas/control-plane/auth"
)

// AuthHandler exposes registration and login, the only two unauthenticated
// endpoints that issue a bearer token.
type AuthHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// credentialsRequest is the shared JSON body shape for register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is returned by both endpoints on success.
type authResponse struct {
	Token string           `json:"token"`
	User  authResponseUser `json:"user"`
}

type authResponseUser struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
}

// decodeCredentials parses the request body and rejects an empty email
// or password before either handler touches the database.
func decodeCredentials(request *http.Request) (credentialsRequest, error) {
	var body credentialsRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		return body, errors.New("invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return body, errors.New("email and password are required")
	}
	return body, nil
}

// Register handles POST /auth/register.
func (handler *AuthHandler) Register(responseWriter http.ResponseWriter, request *http.Request) {
	body, err := decodeCredentials(request)
	if err != nil {
		writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, err.Error(), handler.logger)
		return
	}
	if len(body.Password) < 6 {
		writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, "password must be at least 6 characters", handler.logger)
		return
	}

	user, token, err := handler.authService.Register(body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeErrorJsonAndLogIt(responseWriter, http.StatusConflict, "email already registered", handler.logger)
			return
		}
		writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "failed to register user", handler.logger)
		return
	}

	writeJsonAndRespond(responseWriter, http.StatusCreated, authResponse{
		Token: token,
		User:  authResponseUser{UUID: user.UUID, Email: user.Email},
	})
}

// Login handles POST /auth/login.
func (handler *AuthHandler) Login(responseWriter http.ResponseWriter, request *http.Request) {
	body, err := decodeCredentials(request)
	if err != nil {
		writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, err.Error(), handler.logger)
		return
	}

	user, token, err := handler.authService.Login(body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeErrorJsonAndLogIt(responseWriter, http.StatusUnauthorized, "invalid credentials", handler.logger)
			return
		}
		writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "failed to log in", handler.logger)
		return
	}

	writeJsonAndRespond(responseWriter, http.StatusOK, authResponse{
		Token: token,
		User:  authResponseUser{UUID: user.UUID, Email: user.Email},
	})
}
