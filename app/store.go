package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrBrightsidedev/Docwise/app/config"
	"github.com/MrBrightsidedev/Docwise/app/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Store is the persistence facade over Postgres. Every document and token
// operation is scoped to the calling user's id so a caller can never see or
// mutate another user's rows.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenDB connects to Postgres using the configured credentials and verifies
// the connection with a ping.
func OpenDB(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.URL,
		cfg.DB.Port,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// monthStartUTC returns the start of the billing period containing t.
// Usage counters reset at each UTC month boundary.
func monthStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ---- documents ----

func (s *Store) CreateDocument(ctx context.Context, owner, title, content string) (models.Document, error) {
	title = strings.TrimSpace(title)
	if owner == "" || title == "" {
		return models.Document{}, ErrInvalidInput
	}

	doc := models.Document{
		ID:      uuid.NewString(),
		Owner:   owner,
		Title:   title,
		Content: content,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, owner, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at;
	`, doc.ID, doc.Owner, doc.Title, doc.Content).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, owner, id string) (models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner, title, content, created_at, updated_at
		FROM documents
		WHERE id = $1 AND owner = $2;
	`, id, owner).Scan(&doc.ID, &doc.Owner, &doc.Title, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// UpdateDocument rewrites title and content. A row owned by someone else is
// indistinguishable from a missing row.
func (s *Store) UpdateDocument(ctx context.Context, owner, id, title, content string) (models.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Document{}, ErrInvalidInput
	}

	var doc models.Document
	err := s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET title = $1, content = $2, updated_at = now()
		WHERE id = $3 AND owner = $4
		RETURNING id, owner, title, content, created_at, updated_at;
	`, title, content, id, owner).Scan(&doc.ID, &doc.Owner, &doc.Title, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// DeleteDocument hard-deletes a document. Deleting an id that is already gone
// is not an error, so the operation is idempotent for the caller.
func (s *Store) DeleteDocument(ctx context.Context, owner, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE id = $1 AND owner = $2;
	`, id, owner)
	return err
}

func (s *Store) ListDocuments(ctx context.Context, owner string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, title, content, created_at, updated_at
		FROM documents
		WHERE owner = $1
		ORDER BY created_at DESC;
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Owner, &doc.Title, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) CountDocuments(ctx context.Context, owner string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM documents WHERE owner = $1;
	`, owner).Scan(&n)
	return n, err
}

// ---- usage counters ----

// GetUsage returns the caller's usage counter, creating a zeroed free-plan row
// on first touch and resetting the count when a new billing period has begun.
func (s *Store) GetUsage(ctx context.Context, userID string) (models.UsageCounter, error) {
	usage, err := s.getUsageRow(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.EnsureUser(ctx, userID); err != nil {
			return models.UsageCounter{}, err
		}
		usage, err = s.getUsageRow(ctx, userID)
	}
	if err != nil {
		return models.UsageCounter{}, err
	}

	periodStart := monthStartUTC(time.Now())
	if usage.PeriodStart.Before(periodStart) {
		_, err := s.db.ExecContext(ctx, `
			UPDATE usage_counters
			SET ai_generations_used = 0, period_start = $1
			WHERE user_id = $2;
		`, periodStart, userID)
		if err != nil {
			return models.UsageCounter{}, err
		}
		usage.AIGenerationsUsed = 0
		usage.PeriodStart = periodStart
	}
	return usage, nil
}

func (s *Store) getUsageRow(ctx context.Context, userID string) (models.UsageCounter, error) {
	var usage models.UsageCounter
	err := s.db.QueryRowContext(ctx, `
		SELECT plan, ai_generations_used, period_start, stripe_customer_id
		FROM usage_counters
		WHERE user_id = $1;
	`, userID).Scan(&usage.Plan, &usage.AIGenerationsUsed, &usage.PeriodStart, &usage.StripeCustomerID)
	if err != nil {
		return models.UsageCounter{}, err
	}
	usage.UserID = userID
	return usage, nil
}

// EnsureUser creates the usage counter row for a newly seen user.
func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_counters (user_id, plan, ai_generations_used, period_start)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING;
	`, userID, models.PlanFree, 0, monthStartUTC(time.Now()))
	return err
}

// ConsumeGeneration increments the caller's generation count by one with a
// single conditional UPDATE, so the counter can never pass the limit through
// interleaved requests. limit uses the Unlimited sentinel. Returns
// ErrLimitReached when the condition does not hold.
func (s *Store) ConsumeGeneration(ctx context.Context, userID string, limit int) (models.UsageCounter, error) {
	var usage models.UsageCounter
	err := s.db.QueryRowContext(ctx, `
		UPDATE usage_counters
		SET ai_generations_used = ai_generations_used + 1
		WHERE user_id = $1 AND ($2 = -1 OR ai_generations_used < $2)
		RETURNING plan, ai_generations_used, period_start;
	`, userID, limit).Scan(&usage.Plan, &usage.AIGenerationsUsed, &usage.PeriodStart)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UsageCounter{}, ErrLimitReached
	}
	if err != nil {
		return models.UsageCounter{}, err
	}
	usage.UserID = userID
	return usage, nil
}

func (s *Store) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE usage_counters
		SET stripe_customer_id = $1
		WHERE user_id = $2;
	`, customerID, userID)
	return err
}

// SetPlanByCustomer updates the plan for the user linked to a Stripe customer.
// ErrNotFound signals an unknown customer so webhook handling can log and drop.
func (s *Store) SetPlanByCustomer(ctx context.Context, customerID string, plan models.Plan) error {
	if customerID == "" {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE usage_counters
		SET plan = $1
		WHERE stripe_customer_id = $2;
	`, plan, customerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- billing mirror ----

// UpsertCustomer records the customer-to-user link from a completed checkout.
// The application never writes these rows outside webhook handling.
func (s *Store) UpsertCustomer(ctx context.Context, cust models.BillingCustomer) error {
	if cust.StripeCustomerID == "" || cust.UserID == "" {
		return ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO billing_customers (stripe_customer_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (stripe_customer_id) DO UPDATE
		SET user_id = EXCLUDED.user_id;
	`, cust.StripeCustomerID, cust.UserID)
	return err
}

// UpsertSubscription reconciles a webhook event into the mirror table. The
// application never writes these rows outside webhook handling.
func (s *Store) UpsertSubscription(ctx context.Context, sub models.BillingSubscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO billing_subscriptions (subscription_id, stripe_customer_id, price_id, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subscription_id) DO UPDATE
		SET price_id = EXCLUDED.price_id,
		    status = EXCLUDED.status,
		    current_period_end = EXCLUDED.current_period_end;
	`, sub.SubscriptionID, sub.StripeCustomerID, sub.PriceID, sub.Status, sub.CurrentPeriodEnd)
	return err
}

// ---- oauth tokens ----

func (s *Store) SaveOAuthToken(ctx context.Context, tok models.OAuthToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_tokens (user_id, access_token, refresh_token, token_type, expires_at, scope)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_type = EXCLUDED.token_type,
		    expires_at = EXCLUDED.expires_at,
		    scope = EXCLUDED.scope;
	`, tok.UserID, tok.AccessToken, tok.RefreshToken, tok.TokenType, tok.ExpiresAt, tok.Scope)
	return err
}

func (s *Store) GetOAuthToken(ctx context.Context, userID string) (models.OAuthToken, error) {
	var tok models.OAuthToken
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, token_type, expires_at, scope
		FROM oauth_tokens
		WHERE user_id = $1;
	`, userID).Scan(&tok.UserID, &tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &tok.ExpiresAt, &tok.Scope)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OAuthToken{}, ErrNotConnected
	}
	if err != nil {
		return models.OAuthToken{}, err
	}
	return tok, nil
}

func (s *Store) DeleteOAuthToken(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM oauth_tokens
		WHERE user_id = $1;
	`, userID)
	return err
}
