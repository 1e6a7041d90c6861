package ledger

import "github.com/postforge/postforge/internal/models"

// Allowance describes the daily generation cap for a plan tier.
type Allowance struct {
	Daily     int  // Generations per UTC calendar day; meaningless when Unlimited.
	Unlimited bool // No daily cap.
}

// planAllowances maps plan tiers to their daily caps. New tiers are
// added here without touching call sites.
var planAllowances = map[models.PlanTier]Allowance{
	models.PlanFree:     {Daily: 3},
	models.PlanMonthly:  {Daily: 20},
	models.PlanLifetime: {Unlimited: true},
}

// AllowanceFor returns the daily allowance for a plan. Admin accounts
// are exempt from quota enforcement regardless of plan.
func AllowanceFor(plan models.PlanTier, isAdmin bool) Allowance {
	if isAdmin {
		return Allowance{Unlimited: true}
	}
	if allowance, ok := planAllowances[plan]; ok {
		return allowance
	}
	return planAllowances[models.PlanFree]
}
