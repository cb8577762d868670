package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/credit-service/internal/credit"
	"github.com/Dan9191/credit-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// LoanService is the part of *service.Service the handlers call
type LoanService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.RegisterResult, error)
	CheckEligibility(ctx context.Context, req service.LoanRequest) (*service.EligibilityResult, error)
	CreateLoan(ctx context.Context, req service.LoanRequest) (*service.CreateLoanResult, error)
	ViewLoan(ctx context.Context, loanID int64) (*service.LoanDetails, error)
	ViewLoans(ctx context.Context, customerID int64) ([]service.LoanSummary, error)
}

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	svc LoanService
	db  Pinger
	log *logrus.Logger
}

func NewHandler(svc LoanService, db Pinger, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, db: db, log: log}
}

// Routes registers every endpoint on r
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/check-eligibility", h.CheckEligibility).Methods("POST")
	r.HandleFunc("/create-loan", h.CreateLoan).Methods("POST")
	r.HandleFunc("/view-loan/{loan_id}", h.ViewLoan).Methods("GET")
	r.HandleFunc("/view-loans/{customer_id}", h.ViewLoans).Methods("GET")
	r.HandleFunc("/healthz", h.Health).Methods("GET")
}

// Register handles customer registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// CheckEligibility handles a read-only eligibility check
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req service.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.CheckEligibility(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CreateLoan handles a loan application
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req service.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.CreateLoan(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	status := http.StatusOK
	if result.Approved {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, result)
}

// ViewLoan returns one loan with its customer
func (h *Handler) ViewLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathID(w, r, "loan_id")
	if !ok {
		return
	}

	details, err := h.svc.ViewLoan(r.Context(), loanID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, details)
}

// ViewLoans returns the customer's active loans
func (h *Handler) ViewLoans(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.pathID(w, r, "customer_id")
	if !ok {
		return
	}

	loans, err := h.svc.ViewLoans(r.Context(), customerID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loans)
}

// Health pings the database
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		h.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// fail maps a service error to its status code
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, credit.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCustomerNotFound), errors.Is(err, service.ErrLoanNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPhoneTaken), errors.Is(err, service.ErrCommitConflict):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Errorf("Request failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
