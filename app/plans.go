// Package app implements the document generation, metering and billing API.
package app

import "github.com/MrBrightsidedev/Docwise/app/models"

// Unlimited is the sentinel limit value for plans without a numeric cap.
const Unlimited = -1

// PlanLimits holds the numeric caps for a subscription tier.
type PlanLimits struct {
	AIGenerations int
	Documents     int
}

var planTable = map[models.Plan]PlanLimits{
	models.PlanFree:     {AIGenerations: 5, Documents: 3},
	models.PlanPro:      {AIGenerations: 100, Documents: Unlimited},
	models.PlanBusiness: {AIGenerations: Unlimited, Documents: Unlimited},
}

// LimitsFor maps a plan name to its limits. Unknown plans get the free tier's
// limits so a bad value can never widen access.
func LimitsFor(plan models.Plan) PlanLimits {
	if limits, ok := planTable[plan]; ok {
		return limits
	}
	return planTable[models.PlanFree]
}

// Permissions is the result of checking a usage snapshot against plan limits.
type Permissions struct {
	CanUseAI          bool
	CanCreateDocument bool
}

// CanPerform compares current counts to limits. An Unlimited limit always
// allows; a limit of zero always denies. Pure, shared by the pre-flight check
// and the /me snapshot.
func CanPerform(generationsUsed, documentCount int, limits PlanLimits) Permissions {
	return Permissions{
		CanUseAI:          withinLimit(generationsUsed, limits.AIGenerations),
		CanCreateDocument: withinLimit(documentCount, limits.Documents),
	}
}

func withinLimit(used, limit int) bool {
	if limit == Unlimited {
		return true
	}
	return used < limit
}

// PlanForPrice resolves a Stripe price id to the plan it purchases, using the
// configured price ids. Unknown prices resolve to free.
func (a *App) PlanForPrice(priceID string) models.Plan {
	switch priceID {
	case "":
		return models.PlanFree
	case a.cfg.Stripe.PriceIDPro:
		return models.PlanPro
	case a.cfg.Stripe.PriceIDBusiness:
		return models.PlanBusiness
	}
	return models.PlanFree
}
