package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/bank-customer-api/internal/authz"
	"github.com/hongminglow/bank-customer-api/internal/http/respond"
	"github.com/hongminglow/bank-customer-api/internal/middleware"
	"github.com/hongminglow/bank-customer-api/internal/models"
	"github.com/hongminglow/bank-customer-api/internal/models/dto"
	"github.com/hongminglow/bank-customer-api/internal/storage"
)

// UserDirectory is the slice of storage the user routes need.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, update models.ProfileUpdate, at time.Time) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetUserActive(ctx context.Context, id int64, active bool) error
	ListGuardianships(ctx context.Context, userID int64) ([]models.GuardianRelationship, error)
}

// UserHandler serves the caller profile and admin user management.
type UserHandler struct {
	users   UserDirectory
	denials middleware.DenialRecorder
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewUserHandler constructs the handler. denials may be nil.
func NewUserHandler(users UserDirectory, denials middleware.DenialRecorder, log logrus.FieldLogger) *UserHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserHandler{
		users:   users,
		denials: denials,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register attaches user routes to the router. Every route requires a caller.
func (h *UserHandler) Register(r *mux.Router) {
	authenticated := middleware.Require(h.denials)
	readers := middleware.Require(h.denials, authz.AnyPermission(permReadUser))
	writers := middleware.Require(h.denials, authz.WriteAccess())
	adminWrite := middleware.Require(h.denials, authz.WriteAccess(), authz.Admin())
	staffDelete := middleware.Require(h.denials,
		authz.WriteAccess(),
		authz.Admin(),
		authz.UserKinds(models.KindAdmin, models.KindSysAdmin),
	)

	r.Handle("/api/users", readers(http.HandlerFunc(h.handleList))).Methods(http.MethodGet)
	r.Handle("/api/users/me", authenticated(http.HandlerFunc(h.handleMe))).Methods(http.MethodGet)
	r.Handle("/api/users/{id:[0-9]+}", writers(http.HandlerFunc(h.handleUpdate))).Methods(http.MethodPut)
	r.Handle("/api/users/{id:[0-9]+}", staffDelete(http.HandlerFunc(h.handleDelete))).Methods(http.MethodDelete)
	r.Handle("/api/users/{id:[0-9]+}/deactivate", adminWrite(http.HandlerFunc(h.handleDeactivate))).Methods(http.MethodPut)
}

const permReadUser = "READ_USER"

type userListItem struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	IsActive    bool      `json:"isActive"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"createdAt"`
}

type userListResponse struct {
	Success bool           `json:"success"`
	Data    []userListItem `json:"data"`
	Count   int            `json:"count"`
}

type profile struct {
	models.User
	Guardianships []models.GuardianRelationship `json:"guardianships,omitempty"`
}

type profileResponse struct {
	Success bool    `json:"success"`
	Data    profile `json:"data"`
}

type userActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := authz.FromContext(r.Context())
	if claims.UserID <= 0 {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID in token")
		return
	}

	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.WithError(err).WithField("user_id", claims.UserID).Error("load profile")
		respond.Error(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	out := profile{User: user}
	if user.Kind == models.KindNormal {
		rels, err := h.users.ListGuardianships(r.Context(), user.ID)
		if err != nil {
			h.log.WithError(err).WithField("user_id", user.ID).Error("load guardianships")
			respond.Error(w, http.StatusInternalServerError, "Failed to load user")
			return
		}
		now := h.now()
		for _, rel := range rels {
			if rel.InEffect(now) {
				out.Guardianships = append(out.Guardianships, rel)
			}
		}
	}
	respond.JSON(w, http.StatusOK, profileResponse{Success: true, Data: out})
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list users")
		respond.Error(w, http.StatusInternalServerError, "Failed to load users")
		return
	}
	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, userListItem{
			ID:          u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			IsActive:    u.Active,
			Kind:        u.Kind.String(),
			CreatedAt:   u.CreatedAt,
		})
	}
	respond.JSON(w, http.StatusOK, userListResponse{Success: true, Data: items, Count: len(items)})
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeInvalid(w, err)
		return
	}

	if _, err := h.users.UpdateUserProfile(r.Context(), id, req.Profile(), h.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.WithError(err).WithField("user_id", id).Error("update user")
		respond.Error(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	h.log.WithFields(logrus.Fields{
		"user_id":  id,
		"actor_id": authz.FromContext(r.Context()).UserID,
	}).Info("user updated")
	respond.JSON(w, http.StatusOK, userActionResponse{
		Success: true,
		Message: "User updated successfully",
		UserID:  id,
	})
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "User not found")
		case errors.Is(err, storage.ErrUserActive):
			respond.Error(w, http.StatusBadRequest, "User must be inactive before deletion. Please deactivate the user first.")
		default:
			h.log.WithError(err).WithField("user_id", id).Error("delete user")
			respond.Error(w, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}

	h.log.WithFields(logrus.Fields{
		"user_id":  id,
		"actor_id": authz.FromContext(r.Context()).UserID,
	}).Info("user deleted")
	respond.JSON(w, http.StatusOK, userActionResponse{
		Success: true,
		Message: "User deleted successfully",
		UserID:  id,
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID")
		return 0, false
	}
	return id, true
}

func (h *UserHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.SetUserActive(r.Context(), id, false); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.WithError(err).WithField("user_id", id).Error("deactivate user")
		respond.Error(w, http.StatusInternalServerError, "Failed to deactivate user")
		return
	}

	h.log.WithFields(logrus.Fields{
		"user_id":  id,
		"actor_id": authz.FromContext(r.Context()).UserID,
	}).Info("user deactivated")
	respond.JSON(w, http.StatusOK, userActionResponse{
		Success: true,
		Message: "User deactivated successfully",
		UserID:  id,
	})
}
