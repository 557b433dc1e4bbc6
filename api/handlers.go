/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the engine to the reporting and admin callers. Handles HTTP
  request/response and JSON serialization, delegates everything else to
  the engine. Balance reads run lazy accrual, so the figures returned are
  always current as of today.

ENDPOINTS:
  Companies:
    POST   /api/companies                        Create company (+ policy)
    PUT    /api/companies/{id}/policy            Upsert policy from JSON

  Employees:
    GET    /api/employees                        List employees
    POST   /api/employees                        Create employee
    GET    /api/employees/{id}/balance           Balance (lazy accrual)
    POST   /api/employees/{id}/adjustment        Set manual adjustment
    POST   /api/employees/{id}/leaves            Submit leave request

  Leaves:
    POST   /api/leaves/{id}/approve              Approve (fixes allocation)
    POST   /api/leaves/{id}/reject               Reject

  Unpaid deduction ledger:
    GET    /api/employees/{id}/deductions        List ledger entries
    GET    /api/employees/{id}/deductions/{month}  Materialize one month
    PUT    /api/employees/{id}/deductions/{month}  Save admin deduction

  Dev:
    POST   /api/seed                             Load demo data

ERROR HANDLING:
  - 400: invalid input or business-rule violation (leave.IsClientError)
  - 404: missing records (leave.IsNotFound)
  - 500: storage failures
  Malformed month strings are NOT errors: the engine degrades them to
  zero-valued results, per its error posture.
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds the API's dependencies. Now is injectable so tests can pin
// the as-of date.
type Handler struct {
	Engine    *leave.Engine
	Employees leave.EmployeeStore
	Companies leave.CompanyStore
	Leaves    leave.LeaveStore
	Now       func() leave.Date
}

func NewHandler(engine *leave.Engine, employees leave.EmployeeStore, companies leave.CompanyStore, leaves leave.LeaveStore) *Handler {
	return &Handler{
		Engine:    engine,
		Employees: employees,
		Companies: companies,
		Leaves:    leaves,
		Now:       leave.Today,
	}
}

// =============================================================================
// COMPANIES
// =============================================================================

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	company := &leave.Company{ID: uuid.NewString(), Name: req.Name}
	if req.Policy != nil {
		company.Policy = factory.FromJSON(*req.Policy)
	}
	if err := h.Companies.SaveCompany(r.Context(), company); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CompanyDTO{ID: company.ID, Name: company.Name, Policy: req.Policy})
}

func (h *Handler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	var pj factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	company, err := h.Companies.GetCompany(r.Context(), companyID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if company == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}

	company.Policy = factory.FromJSON(pj)
	if err := h.Companies.SaveCompany(r.Context(), company); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompanyDTO{ID: company.ID, Name: company.Name, Policy: &pj})
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, employeeDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "name and company_id are required")
		return
	}

	emp := &leave.Employee{
		ID:        uuid.NewString(),
		CompanyID: req.CompanyID,
		Name:      req.Name,
		CreatedAt: h.Now(),
	}
	// An unparseable joining date is treated as absent; accrual then falls
	// back through its precedence chain.
	if d, ok := leave.ParseDate(req.JoiningDate); ok {
		emp.JoiningDate = &d
	}

	if err := h.Employees.SaveEmployee(r.Context(), emp); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, employeeDTO(emp))
}

// GetBalance runs lazy accrual and returns the refreshed employee snapshot.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Engine.Balances(r.Context(), chi.URLParam(r, "id"), h.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(emp))
}

func (h *Handler) SetAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	employeeID := chi.URLParam(r, "id")
	if err := h.Engine.SetManualAdjustment(r.Context(), employeeID, num(req.Adjustment), h.Now()); err != nil {
		writeEngineError(w, err)
		return
	}
	emp, err := h.Engine.Balances(r.Context(), employeeID, h.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(emp))
}

// =============================================================================
// LEAVES
// =============================================================================

func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	employeeID := chi.URLParam(r, "id")
	emp, err := h.Employees.GetEmployee(r.Context(), employeeID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "employee not found")
		return
	}

	start, okStart := leave.ParseDate(req.StartDate)
	end, okEnd := leave.ParseDate(req.EndDate)
	if !okStart || !okEnd {
		writeError(w, http.StatusBadRequest, "start_date and end_date must be YYYY-MM-DD")
		return
	}

	l := &leave.Leave{
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Start:      start,
		End:        end,
		Allocation: req.Allocations.toAllocation(),
		Reason:     req.Reason,
	}
	if err := h.Engine.SubmitLeave(r.Context(), l); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, leaveDTO(l))
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.ApproveLeave(r.Context(), chi.URLParam(r, "id"), h.Now()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(leave.StatusApproved)})
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RejectLeave(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(leave.StatusRejected)})
}

// =============================================================================
// UNPAID DEDUCTION LEDGER
// =============================================================================

func (h *Handler) GetDeduction(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Engine.DeductionEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "month"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deductionDTO(entry))
}

func (h *Handler) SaveDeduction(w http.ResponseWriter, r *http.Request) {
	var req SaveDeductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entry, err := h.Engine.SaveDeduction(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "month"), num(req.Deducted))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deductionDTO(entry))
}

func (h *Handler) ListDeductions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Engine.ListDeductions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]DeductionEntryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, deductionDTO(&entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
