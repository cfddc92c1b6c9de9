// Package models defines plan tiers and per-user usage tracking fields.
package models

import (
	"database/sql"
	"time"
)

type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// Valid reports whether p is one of the known tiers.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanBusiness:
		return true
	}
	return false
}

// UsageCounter is one row per user tracking AI generations consumed within
// the current billing period.
type UsageCounter struct {
	UserID            string         `db:"user_id"`
	Plan              Plan           `db:"plan"`
	AIGenerationsUsed int            `db:"ai_generations_used"`
	PeriodStart       time.Time      `db:"period_start"`
	StripeCustomerID  sql.NullString `db:"stripe_customer_id"`
}
