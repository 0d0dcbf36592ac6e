package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/branchops/expense-service/internal/repository"
	"github.com/branchops/expense-service/internal/service"
	"github.com/branchops/expense-service/internal/settlement"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Handler decodes and validates HTTP requests before anything reaches the
// service layer; the settlement core only ever sees validated values.
type Handler struct {
	svc    *service.Service
	alerts *service.AlertService
}

func NewHandler(svc *service.Service, alerts *service.AlertService) *Handler {
	return &Handler{svc: svc, alerts: alerts}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createBranchRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	NotifyEmail string `json:"notify_email"`
}

// CreateBranch handles branch creation
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req createBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.Name == "" || req.NotifyEmail == "" {
		respondError(w, http.StatusBadRequest, "code, name and notify_email are required")
		return
	}

	branch, err := h.svc.CreateBranch(req.Code, req.Name, req.NotifyEmail)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, branch)
}

type expenseRequest struct {
	BranchID int64           `json:"branch_id"`
	Category string          `json:"category"`
	Period   string          `json:"period"`
	DueDate  string          `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Vendor   string          `json:"vendor"`
	Notes    string          `json:"notes"`
}

func (req *expenseRequest) toInput() (service.ExpenseInput, string) {
	if req.BranchID <= 0 {
		return service.ExpenseInput{}, "branch_id is required"
	}
	if req.Category == "" || req.Period == "" || req.DueDate == "" || req.Currency == "" {
		return service.ExpenseInput{}, "category, period, due_date and currency are required"
	}
	return service.ExpenseInput{
		BranchID: req.BranchID,
		Category: req.Category,
		Period:   req.Period,
		DueDate:  req.DueDate,
		Amount:   req.Amount,
		Currency: req.Currency,
		Vendor:   req.Vendor,
		Notes:    req.Notes,
	}, ""
}

// CreateExpense handles expense creation
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input, msg := req.toInput()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	expense, err := h.svc.CreateExpense(input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

// UpdateExpense handles expense updates
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input, msg := req.toInput()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	expense, err := h.svc.UpdateExpense(id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

// GetExpense returns one expense with its live settlement projection
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	expense, err := h.svc.GetExpense(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

// ListExpenses returns all expenses for a branch
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	branchID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	expenses, err := h.svc.ListExpenses(branchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

// DeleteExpense removes an expense
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteExpense(id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	PaidDate  string          `json:"paid_date"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// ApplyPayment posts a payment against an expense
func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	expenseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaidDate == "" || req.Currency == "" {
		respondError(w, http.StatusBadRequest, "paid_date and currency are required")
		return
	}

	payment, err := h.svc.ApplyPayment(expenseID, service.PaymentInput{
		PaidDate:  req.PaidDate,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

// RemovePayment deletes a payment and refreshes the owning expense's status
func (h *Handler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.RemovePayment(id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type alertRuleRequest struct {
	RuleType    string `json:"rule_type"`
	DayOffset   int    `json:"day_offset"`
	Active      bool   `json:"active"`
	Description string `json:"description"`
}

// CreateAlertRule records a new notification rule
func (h *Handler) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	var req alertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RuleType == "" {
		respondError(w, http.StatusBadRequest, "rule_type is required")
		return
	}

	rule, err := h.svc.CreateAlertRule(req.RuleType, req.DayOffset, req.Active, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// ListAlertRules returns all configured rules
func (h *Handler) ListAlertRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ListAlertRules()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// RunAlerts triggers an evaluation pass outside the cron schedule. Safe to
// call repeatedly: delivery is deduplicated by idempotency key.
func (h *Handler) RunAlerts(w http.ResponseWriter, r *http.Request) {
	result, err := h.alerts.Run()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"total":      result.TotalCount,
		"eligible":   result.EligibleCount,
		"candidates": len(result.Candidates),
	})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.Is(err, service.ErrOverpayment),
		errors.Is(err, service.ErrAmountBelowPaid),
		errors.Is(err, service.ErrUnknownRuleType),
		errors.Is(err, settlement.ErrInvalidDate):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
