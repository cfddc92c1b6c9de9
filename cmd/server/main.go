package main

import (
	"log"

	"github.com/MrBrightsidedev/Docwise/app"
	"github.com/MrBrightsidedev/Docwise/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := app.OpenDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	log.Println("Connected to Postgres")

	a := app.New(cfg, app.NewStore(db))
	router, err := a.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	router.Run("0.0.0.0:8080")
}
