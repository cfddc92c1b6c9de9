package config

import (
	"fmt"
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	DB         PostgresConfig
	Generation GenerationConfig
	Stripe     StripeConfig
	Google     GoogleConfig
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
}

// GenerationConfig points at the hosted text-completion service. A missing
// APIKey makes the generation endpoints fail closed with a configuration
// error rather than silently degrade.
type GenerationConfig struct {
	APIURL    string
	APIKey    string
	Model     string
	MaxTokens int
}

type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PriceIDPro      string
	PriceIDBusiness string
	FrontendURL     string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

func LoadConfig() (*Config, error) {
	maxTokens := 4096
	if v := os.Getenv("GENERATION_MAX_TOKENS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GENERATION_MAX_TOKENS: %w", err)
		}
		maxTokens = parsed
	}

	cfg := &Config{
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     os.Getenv("POSTGRES_PORT"),
		},
		Generation: GenerationConfig{
			APIURL:    os.Getenv("GENERATION_API_URL"),
			APIKey:    os.Getenv("GENERATION_API_KEY"),
			Model:     os.Getenv("GENERATION_MODEL"),
			MaxTokens: maxTokens,
		},
		Stripe: StripeConfig{
			SecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDPro:      os.Getenv("STRIPE_PRICE_ID_PRO"),
			PriceIDBusiness: os.Getenv("STRIPE_PRICE_ID_BUSINESS"),
			FrontendURL:     os.Getenv("FRONTEND_URL"),
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		},
	}

	return cfg, nil
}
