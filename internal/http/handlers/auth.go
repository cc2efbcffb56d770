package handlers

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/bank-customer-api/internal/auth"
	"github.com/hongminglow/bank-customer-api/internal/http/respond"
	"github.com/hongminglow/bank-customer-api/internal/models/dto"
)

const msgInvalidRequest = "Invalid request data"

// Authenticator is the login/registration core the auth routes delegate to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (auth.RegisterResult, error)
}

// AuthHandler owns the login and register endpoints.
type AuthHandler struct {
	svc Authenticator
	log logrus.FieldLogger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc Authenticator, log logrus.FieldLogger) *AuthHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthHandler{svc: svc, log: log}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/auth/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", h.handleRegister).Methods(http.MethodPost)
}

type invalidRequest struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

// writeInvalid reports a rejected payload. Field errors are included only when
// err carries them.
func writeInvalid(w http.ResponseWriter, err error) {
	out := invalidRequest{Message: msgInvalidRequest}
	var fields validation.Errors
	if errors.As(err, &fields) {
		out.Errors = fields
	}
	respond.JSON(w, http.StatusBadRequest, out)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeInvalid(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if authErr, ok := auth.AsError(err); ok {
			respond.JSON(w, http.StatusUnauthorized, dto.FailureResponse{
				Message:     authErr.Message,
				LockedUntil: authErr.LockedUntil,
			})
			return
		}
		h.log.WithError(err).Error("login failed")
		respond.Error(w, http.StatusInternalServerError, "An error occurred during login")
		return
	}

	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Success:     true,
		Message:     res.Message,
		Token:       res.Token,
		TokenExpiry: res.TokenExpiry,
		User:        res.User,
		Roles:       res.Roles,
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeInvalid(w, err)
		return
	}

	res, err := h.svc.Register(r.Context(), auth.RegisterInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		PhoneNumber:          req.PhoneNumber,
		DateOfBirth:          req.DateOfBirth.Time,
		Address:              req.Address,
		IdentificationNumber: req.IdentificationNumber,
		Password:             req.Password,
		UserKind:             req.Kind(),
		Department:           req.Department,
		Position:             req.Position,
		YearsOfExperience:    req.YearsOfExperience,
		AdminLevel:           req.AdminLevel,
	})
	if err != nil {
		if authErr, ok := auth.AsError(err); ok {
			respond.Error(w, http.StatusBadRequest, authErr.Message)
			return
		}
		h.log.WithError(err).Error("registration failed")
		respond.Error(w, http.StatusInternalServerError, "An error occurred during registration")
		return
	}

	respond.JSON(w, http.StatusOK, dto.RegisterResponse{
		Success: true,
		Message: res.Message,
		User:    res.User,
	})
}
