package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"sondaj/internal/adapters/anaf"
	httpadapter "sondaj/internal/adapters/http"
	pg "sondaj/internal/adapters/postgres"
	"sondaj/internal/config"
	authsvc "sondaj/internal/services/auth"
	dashsvc "sondaj/internal/services/dashboard"
	surveysvc "sondaj/internal/services/survey"
	"sondaj/internal/workers/statspoller"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pg.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	survey := surveysvc.New(db, db)
	dashboard := dashsvc.New(db, db, cfg.Operators)
	authn := authsvc.New(cfg.Operators, cfg.OperatorPassword)
	registry := anaf.NewClient(cfg.RegistryURL, cfg.FallbackURL, cfg.FallbackAPIKey)

	poller := statspoller.New(dashboard, authn.Operators())
	go poller.Run(ctx, cfg.StatsPollInterval)

	srv := httpadapter.New(survey, dashboard, poller, registry, authn)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	log.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		log.Fatal(fmt.Errorf("server error: %w", err))
	}
}
