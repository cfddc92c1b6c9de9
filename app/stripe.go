package app

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
)

// ensureStripeCustomer finds or creates a Stripe Customer for the given user.
// It uses usage_counters.stripe_customer_id when present, otherwise creates a
// new customer with metadata user_id = <userID> and stores the id back.
func (a *App) ensureStripeCustomer(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("missing user id")
	}

	usage, err := a.store.GetUsage(ctx, userID)
	if err != nil {
		return "", err
	}
	if usage.StripeCustomerID.Valid && usage.StripeCustomerID.String != "" {
		return usage.StripeCustomerID.String, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"user_id": userID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	if err := a.store.SetStripeCustomerID(ctx, userID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}
