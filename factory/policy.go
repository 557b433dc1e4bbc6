/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy documents into leave.LeavePolicy values. This enables
  policy configuration without code changes - HR can define policies in
  JSON, and the factory creates the proper Go structs.

JSON SCHEMA:
  {
    "rate_per_month": 1.5,
    "total_annual": 18,
    "applicable_from": "2024-01-01",
    "type_caps": {"paid": 12, "casual": 4, "sick": 2},
    "max_monthly_deduction": 3
  }

COERCION RULES:
  Mirrors the engine's degrade-to-zero posture: non-finite and negative
  numbers coerce to 0, and an unparseable applicable_from is treated as
  absent. A policy whose rate or annual coerces to 0 comes out degenerate,
  which disables accrual - that is intentional, not an error.

USAGE:
  policy, err := factory.ParsePolicy(jsonStr)
  company.Policy = policy

SEE ALSO:
  - leave/types.go: LeavePolicy definition
  - api/handlers.go: Policy upsert endpoint using this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a leave policy.
type PolicyJSON struct {
	RatePerMonth        float64       `json:"rate_per_month"`
	TotalAnnual         float64       `json:"total_annual"`
	ApplicableFrom      string        `json:"applicable_from,omitempty"`
	TypeCaps            *TypeCapsJSON `json:"type_caps,omitempty"`
	MaxMonthlyDeduction float64       `json:"max_monthly_deduction,omitempty"`
}

// TypeCapsJSON represents per-type annual caps.
type TypeCapsJSON struct {
	Paid   float64 `json:"paid"`
	Casual float64 `json:"casual"`
	Sick   float64 `json:"sick"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// ParsePolicy converts a JSON policy document into a LeavePolicy.
func ParsePolicy(jsonStr string) (*leave.LeavePolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return FromJSON(pj), nil
}

// FromJSON builds a LeavePolicy from the decoded JSON form, applying the
// coercion rules.
func FromJSON(pj PolicyJSON) *leave.LeavePolicy {
	policy := &leave.LeavePolicy{
		RatePerMonth:        sanitize(pj.RatePerMonth),
		TotalAnnual:         sanitize(pj.TotalAnnual),
		MaxMonthlyDeduction: sanitize(pj.MaxMonthlyDeduction),
	}

	if pj.ApplicableFrom != "" {
		if d, ok := leave.ParseDate(pj.ApplicableFrom); ok {
			policy.ApplicableFrom = &d
		}
	}

	if pj.TypeCaps != nil {
		policy.TypeCaps = leave.TypeCaps{
			Paid:   sanitize(pj.TypeCaps.Paid),
			Casual: sanitize(pj.TypeCaps.Casual),
			Sick:   sanitize(pj.TypeCaps.Sick),
		}
	}
	return policy
}

// sanitize coerces non-finite and negative values to zero.
func sanitize(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
