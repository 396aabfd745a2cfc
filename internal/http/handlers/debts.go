package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/export"
	"github.com/hongminglow/debt-ledger/internal/http/respond"
	"github.com/hongminglow/debt-ledger/internal/ledger"
	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/models/dto"
)

// DebtHandler owns the /debts surface. Every route expects to be mounted
// behind middleware.Authenticate.
type DebtHandler struct {
	ledger *ledger.Service
	log    logrus.FieldLogger
}

// NewDebtHandler constructs the handler.
func NewDebtHandler(l *ledger.Service, log logrus.FieldLogger) *DebtHandler {
	return &DebtHandler{ledger: l, log: log}
}

// Register attaches debt routes to the router.
func (h *DebtHandler) Register(r *mux.Router) {
	r.HandleFunc("/debts", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/debts", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/debts/user/{userId}", h.handleListByUser).Methods(http.MethodGet)
	r.HandleFunc("/debts/export/{userId}", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/debts/stats/{userId}", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/debts/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/debts/{id}", h.handleUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/debts/{id}/pay", h.handleMarkPaid).Methods(http.MethodPatch)
	r.HandleFunc("/debts/{id}", h.handleDelete).Methods(http.MethodDelete)
}

func (h *DebtHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := newDebtFromRequest(req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.ledger.CreateDebt(r.Context(), input)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "debt created successfully", created)
}

func (h *DebtHandler) handleList(w http.ResponseWriter, r *http.Request) {
	debts, err := h.ledger.GetAll(r.Context())
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "debts", debts)
}

func (h *DebtHandler) handleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	debts, err := h.ledger.GetByUser(r.Context(), userID, statusQuery(r))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "debts", debts)
}

func (h *DebtHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	debt, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "debt found", debt)
}

func (h *DebtHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dto.UpdateDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.ledger.Update(r.Context(), id, models.DebtUpdate{
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "debt updated successfully", updated)
}

func (h *DebtHandler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	paid, err := h.ledger.MarkPaid(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "debt marked as paid", paid)
}

func (h *DebtHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "debt deleted successfully", nil)
}

func (h *DebtHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := h.ledger.Stats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "stats", stats)
}

func (h *DebtHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	debts, err := h.ledger.GetByUser(r.Context(), userID, statusQuery(r))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	body, err := export.Render(format, debts)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("export failed")
		respond.Error(w, http.StatusInternalServerError, fmt.Sprintf("failed to generate %s export", format))
		return
	}
	var filename string
	if format == export.FormatCSV {
		filename = fmt.Sprintf("debts-%s.csv", userID)
	}
	respond.Attachment(w, format.ContentType(), filename, body)
}

func statusQuery(r *http.Request) models.DebtStatus {
	return models.DebtStatus(r.URL.Query().Get("status"))
}

func newDebtFromRequest(req dto.CreateDebtRequest) (models.NewDebt, error) {
	if req.Amount == nil {
		return models.NewDebt{}, fmt.Errorf("amount is required")
	}
	creditorID, err := uuid.Parse(req.CreditorID)
	if err != nil {
		return models.NewDebt{}, fmt.Errorf("creditorId must be a valid UUID")
	}
	debtorID, err := uuid.Parse(req.DebtorID)
	if err != nil {
		return models.NewDebt{}, fmt.Errorf("debtorId must be a valid UUID")
	}
	return models.NewDebt{
		Description: req.Description,
		Amount:      *req.Amount,
		CreditorID:  creditorID,
		DebtorID:    debtorID,
	}, nil
}
