package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/directory"
	"github.com/hongminglow/debt-ledger/internal/http/respond"
	"github.com/hongminglow/debt-ledger/internal/models/dto"
)

// UserHandler owns registration and user lookups. Password hashes never
// leave the process: models.User omits them from JSON.
type UserHandler struct {
	directory *directory.Service
	log       logrus.FieldLogger
}

// NewUserHandler constructs the handler.
func NewUserHandler(dir *directory.Service, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{directory: dir, log: log}
}

// Register attaches user routes to the router.
func (h *UserHandler) Register(r *mux.Router) {
	r.HandleFunc("/users", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/users", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.handleGet).Methods(http.MethodGet)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.directory.Create(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "users", users)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.directory.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "user found", user)
}
