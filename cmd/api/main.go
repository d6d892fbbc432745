package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"elina.dev/internal/auth"
	"elina.dev/internal/config"
	"elina.dev/internal/httpapi"
	"elina.dev/internal/obs"
	"elina.dev/internal/rules"
)

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	tokens, err := auth.NewTokenService(cfg.AuthSecret,
		auth.WithIssuer(cfg.AuthIssuer),
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	store := auth.NewPGStore(db)
	resolver, err := auth.NewResolver(store.Roles(), store.Permissions())
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	authSvc, err := auth.NewService(store, tokens, resolver)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	ruleStore := rules.NewPGStore(db)
	engine, err := rules.NewEngine(ruleStore, rules.DefaultValidators()...)
	if err != nil {
		log.Fatalf("rule engine: %v", err)
	}
	ruleSvc, err := rules.NewService(ruleStore, engine)
	if err != nil {
		log.Fatalf("rule service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, cfg.Version, tokens, authSvc, ruleSvc, engine)
	api.SetRateLimit(cfg.RateRPS, cfg.RateBurst)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting elina-authz %s on %s", cfg.Version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
