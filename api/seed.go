/*
seed.go - Demo data loader for development and demonstrations

PURPOSE:
  Populates the store with a realistic demo dataset: one company with a
  full policy, three employees at different tenure points, and a mix of
  approved leaves including an unpaid stretch that spans a month boundary.
  Lets the frontend and manual API exploration start from something real.

WHAT IT CREATES:
  Acme Corp        policy: 1.5 days/month, 18 annual, caps 12/4/2, max
                   monthly deduction 3
  Alice Nguyen     joined 2024-01-15, paid + casual usage
  Bob Okafor       joined well in the past, unpaid leave spanning two
                   months (feeds the deduction ledger demo)
  Carla Mendes     joined this month, nothing taken yet

NOTE:
  Seeding is additive and non-destructive. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: SeedDemo endpoint registration
  - factory/policy.go: Policy JSON definitions
*/
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
)

// SeedDemo loads the demo dataset and returns the created company ID.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	companyID, err := h.loadDemo(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"company_id": companyID})
}

func (h *Handler) loadDemo(ctx context.Context) (string, error) {
	now := h.Now()

	policy, err := factory.ParsePolicy(`{
		"rate_per_month": 1.5,
		"total_annual": 18,
		"type_caps": {"paid": 12, "casual": 4, "sick": 2},
		"max_monthly_deduction": 3
	}`)
	if err != nil {
		return "", err
	}

	company := &leave.Company{
		ID:     uuid.NewString(),
		Name:   "Acme Corp",
		Policy: policy,
	}
	if err := h.Companies.SaveCompany(ctx, company); err != nil {
		return "", err
	}

	alice, err := h.seedEmployee(ctx, company.ID, "Alice Nguyen", now.AddMonths(-7))
	if err != nil {
		return "", err
	}
	bob, err := h.seedEmployee(ctx, company.ID, "Bob Okafor", now.AddMonths(-20))
	if err != nil {
		return "", err
	}
	if _, err := h.seedEmployee(ctx, company.ID, "Carla Mendes", now.FloorToMonth()); err != nil {
		return "", err
	}

	// Alice: a paid week and a casual day, both approved.
	if err := h.seedApprovedLeave(ctx, alice, now.AddDays(-30), now.AddDays(-26),
		leave.Allocation{Paid: num(5)}, "family trip"); err != nil {
		return "", err
	}
	if err := h.seedApprovedLeave(ctx, alice, now.AddDays(-10), now.AddDays(-10),
		leave.Allocation{Casual: num(1)}, "errand"); err != nil {
		return "", err
	}

	// Bob: unpaid leave spanning the previous month boundary, so the
	// deduction ledger has something to reconcile.
	monthStart := now.FloorToMonth()
	if err := h.seedApprovedLeave(ctx, bob, monthStart.AddDays(-4), monthStart.AddDays(3),
		leave.Allocation{Unpaid: num(6)}, "extended travel"); err != nil {
		return "", err
	}

	return company.ID, nil
}

func (h *Handler) seedEmployee(ctx context.Context, companyID, name string, joined leave.Date) (*leave.Employee, error) {
	emp := &leave.Employee{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Name:        name,
		JoiningDate: &joined,
		CreatedAt:   h.Now(),
	}
	if err := h.Employees.SaveEmployee(ctx, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

func (h *Handler) seedApprovedLeave(ctx context.Context, emp *leave.Employee, start, end leave.Date, alloc leave.Allocation, reason string) error {
	l := &leave.Leave{
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Start:      start,
		End:        end,
		Allocation: alloc,
		Reason:     reason,
	}
	if err := h.Engine.SubmitLeave(ctx, l); err != nil {
		return err
	}
	return h.Engine.ApproveLeave(ctx, l.ID, h.Now())
}
