package app

import (
	"github.com/MrBrightsidedev/Docwise/app/config"

	"github.com/stripe/stripe-go/v79"
)

// App holds the explicitly constructed dependencies for the handler set.
// Nothing in this package keeps package-level mutable state; everything the
// handlers touch hangs off this struct.
type App struct {
	cfg       *config.Config
	store     *Store
	generator *GenerationClient
	exporter  *GoogleExporter
}

// New wires the application from its config and an opened store. The Stripe
// SDK key is process-global by SDK design and is set here once.
func New(cfg *config.Config, store *Store) *App {
	stripe.Key = cfg.Stripe.SecretKey
	return &App{
		cfg:       cfg,
		store:     store,
		generator: NewGenerationClient(cfg.Generation),
		exporter:  NewGoogleExporter(cfg.Google, store),
	}
}
