/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Quantities
  cross the boundary as JSON numbers and are coerced into decimals on the
  way in (non-finite values become 0); responses are plain numbers for the
  frontend.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type embedded in company requests
*/
package api

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateCompanyRequest struct {
	Name   string              `json:"name"`
	Policy *factory.PolicyJSON `json:"policy,omitempty"`
}

type CreateEmployeeRequest struct {
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	JoiningDate string `json:"joining_date,omitempty"` // "YYYY-MM-DD", optional
}

type SubmitLeaveRequest struct {
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Allocations AllocationJSON `json:"allocations"`
	Reason      string         `json:"reason,omitempty"`
}

type AllocationJSON struct {
	Paid   float64 `json:"paid"`
	Casual float64 `json:"casual"`
	Sick   float64 `json:"sick"`
	Unpaid float64 `json:"unpaid"`
}

type AdjustmentRequest struct {
	Adjustment float64 `json:"adjustment"`
}

type SaveDeductionRequest struct {
	Deducted float64 `json:"deducted"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type CompanyDTO struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Policy *factory.PolicyJSON `json:"policy,omitempty"`
}

type EmployeeDTO struct {
	ID               string      `json:"id"`
	CompanyID        string      `json:"company_id"`
	Name             string      `json:"name"`
	JoiningDate      string      `json:"joining_date,omitempty"`
	TotalAvailable   float64     `json:"total_available"`
	Balances         BalancesDTO `json:"balances"`
	Usage            BalancesDTO `json:"usage"`
	ManualAdjustment float64     `json:"manual_adjustment"`
	LastAccruedMonth string      `json:"last_accrued_month,omitempty"`
}

type BalancesDTO struct {
	Paid   float64 `json:"paid"`
	Casual float64 `json:"casual"`
	Sick   float64 `json:"sick"`
	Unpaid float64 `json:"unpaid"`
}

type LeaveDTO struct {
	ID          string         `json:"id"`
	EmployeeID  string         `json:"employee_id"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Status      string         `json:"status"`
	Allocations AllocationJSON `json:"allocations"`
	Reason      string         `json:"reason,omitempty"`
}

type DeductionEntryDTO struct {
	EmployeeID    string  `json:"employee_id"`
	Month         string  `json:"month"`
	Taken         float64 `json:"taken"`
	CarryBefore   float64 `json:"carry_before"`
	Available     float64 `json:"available"`
	MaxDeductable float64 `json:"max_deductable"`
	Deducted      float64 `json:"deducted"`
	CarryAfter    float64 `json:"carry_after"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// num coerces a client-supplied number to a decimal; non-finite values
// degrade to zero rather than poisoning downstream arithmetic.
func num(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func (a AllocationJSON) toAllocation() leave.Allocation {
	return leave.Allocation{
		Paid:   num(a.Paid),
		Casual: num(a.Casual),
		Sick:   num(a.Sick),
		Unpaid: num(a.Unpaid),
	}
}

func allocationDTO(a leave.Allocation) AllocationJSON {
	return AllocationJSON{
		Paid:   a.Paid.InexactFloat64(),
		Casual: a.Casual.InexactFloat64(),
		Sick:   a.Sick.InexactFloat64(),
		Unpaid: a.Unpaid.InexactFloat64(),
	}
}

func employeeDTO(e *leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:             e.ID,
		CompanyID:      e.CompanyID,
		Name:           e.Name,
		TotalAvailable: e.TotalAvailable.InexactFloat64(),
		Balances: BalancesDTO{
			Paid:   e.Balances.Paid.InexactFloat64(),
			Casual: e.Balances.Casual.InexactFloat64(),
			Sick:   e.Balances.Sick.InexactFloat64(),
			Unpaid: e.Balances.Unpaid.InexactFloat64(),
		},
		Usage: BalancesDTO{
			Paid:   e.Usage.Paid.InexactFloat64(),
			Casual: e.Usage.Casual.InexactFloat64(),
			Sick:   e.Usage.Sick.InexactFloat64(),
			Unpaid: e.Usage.Unpaid.InexactFloat64(),
		},
		ManualAdjustment: e.Accrual.ManualAdjustment.InexactFloat64(),
		LastAccruedMonth: string(e.Accrual.LastAccruedMonth),
	}
	if e.JoiningDate != nil {
		dto.JoiningDate = e.JoiningDate.String()
	}
	return dto
}

func leaveDTO(l *leave.Leave) LeaveDTO {
	return LeaveDTO{
		ID:          l.ID,
		EmployeeID:  l.EmployeeID,
		StartDate:   l.Start.String(),
		EndDate:     l.End.String(),
		Status:      string(l.Status),
		Allocations: allocationDTO(l.Allocation),
		Reason:      l.Reason,
	}
}

func deductionDTO(e *leave.DeductionEntry) DeductionEntryDTO {
	return DeductionEntryDTO{
		EmployeeID:    e.EmployeeID,
		Month:         string(e.Month),
		Taken:         e.Taken.InexactFloat64(),
		CarryBefore:   e.CarryBefore.InexactFloat64(),
		Available:     e.Available.InexactFloat64(),
		MaxDeductable: e.MaxDeductable.InexactFloat64(),
		Deducted:      e.Deducted.InexactFloat64(),
		CarryAfter:    e.CarryAfter.InexactFloat64(),
	}
}
