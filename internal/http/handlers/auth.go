package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/http/respond"
	"github.com/hongminglow/debt-ledger/internal/models/dto"
	"github.com/hongminglow/debt-ledger/internal/session"
)

// AuthHandler owns the login endpoint.
type AuthHandler struct {
	sessions *session.Service
	log      logrus.FieldLogger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions *session.Service, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{sessions: sessions, log: log}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	token, user, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}
