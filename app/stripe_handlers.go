package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MrBrightsidedev/Docwise/app/models"
	"github.com/MrBrightsidedev/Docwise/auth"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// CreateCheckoutSession starts a Stripe Checkout Session for the authenticated
// user and returns the redirect URL.
func (a *App) CreateCheckoutSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if a.cfg.Stripe.SecretKey == "" {
		log.Printf("checkout: stripe not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}
	if req.PriceID != a.cfg.Stripe.PriceIDPro && req.PriceID != a.cfg.Stripe.PriceIDBusiness {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown price id"})
		return
	}

	frontendURL := strings.TrimRight(a.cfg.Stripe.FrontendURL, "/")
	successURL := req.SuccessURL
	cancelURL := req.CancelURL
	if successURL == "" {
		successURL = frontendURL + "/billing/success"
	}
	if cancelURL == "" {
		cancelURL = frontendURL + "/billing/cancel"
	}
	if frontendURL != "" && (!strings.HasPrefix(successURL, frontendURL) || !strings.HasPrefix(cancelURL, frontendURL)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "redirect urls must match the frontend origin"})
		return
	}

	mode := stripe.CheckoutSessionModeSubscription
	if req.Mode == "payment" {
		mode = stripe.CheckoutSessionModePayment
	}

	stripeCustomerID, err := a.ensureStripeCustomer(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Printf("ensureStripeCustomer failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare billing"})
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(mode)),
		Customer: stripe.String(stripeCustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"price_id": req.PriceID,
			"user_id":  claims.Subject,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		log.Printf("stripe checkout session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// StripeWebhook verifies and reconciles Stripe events into the billing mirror
// tables, then recomputes the user's plan. Signature verification fails
// closed; events for unknown customers are logged and dropped.
func (a *App) StripeWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Printf("stripe webhook read failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	endpointSecret := a.cfg.Stripe.WebhookSecret
	if endpointSecret == "" {
		log.Printf("stripe webhook secret missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		c.GetHeader("Stripe-Signature"),
		endpointSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		log.Printf("stripe webhook signature failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe session unmarshal failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
			return
		}
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		if customerID == "" {
			log.Printf("stripe session missing customer id")
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing customer id"})
			return
		}

		if userID := sess.Metadata["user_id"]; userID != "" {
			mirror := models.BillingCustomer{StripeCustomerID: customerID, UserID: userID}
			if err := a.store.UpsertCustomer(c.Request.Context(), mirror); err != nil {
				log.Printf("stripe customer mirror upsert failed customer=%s err=%v", customerID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record customer"})
				return
			}
		}

		plan := a.PlanForPrice(sess.Metadata["price_id"])
		if err := a.store.SetPlanByCustomer(c.Request.Context(), customerID, plan); err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Printf("stripe checkout for unknown customer=%s, dropped", customerID)
				break
			}
			log.Printf("stripe plan change failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			log.Printf("stripe subscription unmarshal failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription payload"})
			return
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		if customerID == "" {
			log.Printf("stripe subscription missing customer id")
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing customer id"})
			return
		}

		mirror := models.BillingSubscription{
			SubscriptionID:   sub.ID,
			StripeCustomerID: customerID,
			Status:           string(sub.Status),
			CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			mirror.PriceID = sub.Items.Data[0].Price.ID
		}
		if event.Type == "customer.subscription.deleted" {
			mirror.Status = string(stripe.SubscriptionStatusCanceled)
		}
		if err := a.store.UpsertSubscription(c.Request.Context(), mirror); err != nil {
			log.Printf("stripe mirror upsert failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record subscription"})
			return
		}

		if err := a.store.SetPlanByCustomer(c.Request.Context(), customerID, a.planForSubscription(mirror)); err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Printf("stripe subscription for unknown customer=%s, dropped", customerID)
				break
			}
			log.Printf("stripe plan change failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}

	default:
		// Intentionally ignore unhandled events.
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// planForSubscription derives the effective plan from a mirror row: an active
// or trialing subscription grants the purchased tier, anything else reverts
// the user to free.
func (a *App) planForSubscription(sub models.BillingSubscription) models.Plan {
	switch sub.Status {
	case string(stripe.SubscriptionStatusActive), string(stripe.SubscriptionStatusTrialing):
		return a.PlanForPrice(sub.PriceID)
	}
	return models.PlanFree
}

// CreatePortalSession creates a Stripe Customer Portal session for the
// authenticated user.
func (a *App) CreatePortalSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	usage, err := a.store.GetUsage(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Printf("portal lookup failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load customer"})
		return
	}
	if !usage.StripeCustomerID.Valid || usage.StripeCustomerID.String == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stripe customer missing for user"})
		return
	}

	frontendURL := strings.TrimRight(a.cfg.Stripe.FrontendURL, "/")
	if frontendURL == "" {
		log.Printf("missing Stripe config: frontend_url=false")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(usage.StripeCustomerID.String),
		ReturnURL: stripe.String(frontendURL + "/settings/billing"),
	}

	sess, err := portal.New(params)
	if err != nil {
		log.Printf("stripe portal session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}
