package models

import "time"

// Document is a user-owned legal document. Owner is immutable after creation
// and every store query is scoped to it.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"-" db:"owner"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OAuthToken is the stored Google credential for a user, 1:1 with the user.
// Overwritten on connect, deleted on disconnect.
type OAuthToken struct {
	UserID       string    `db:"user_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	TokenType    string    `db:"token_type"`
	ExpiresAt    time.Time `db:"expires_at"`
	Scope        string    `db:"scope"`
}

// BillingCustomer links a payment provider customer to the user it belongs
// to. Written only by webhook reconciliation.
type BillingCustomer struct {
	StripeCustomerID string `db:"stripe_customer_id"`
	UserID           string `db:"user_id"`
}

// BillingSubscription mirrors the payment provider's subscription state.
// Written only by webhook reconciliation.
type BillingSubscription struct {
	SubscriptionID   string    `db:"subscription_id"`
	StripeCustomerID string    `db:"stripe_customer_id"`
	PriceID          string    `db:"price_id"`
	Status           string    `db:"status"`
	CurrentPeriodEnd time.Time `db:"current_period_end"`
}
