package main

import (
	"context"
	"log"

	"github.com/stackdeck-app/stackdeck-backend/config"
	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/bootstrap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	authClient, err := auth.NewClient(context.Background(), &cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}

	store, err := bootstrap.OpenStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "stackdeck-backend",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.App.CORSOrigins,
		AdminGroup:  cfg.Firebase.AdminGroup,
		AuthClient:  authClient,
		Store:       store,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
