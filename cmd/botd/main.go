package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/sinovhub/sinovbot/internal/bot"
	"github.com/sinovhub/sinovbot/internal/bot/telegram"
	"github.com/sinovhub/sinovbot/internal/config"
	"github.com/sinovhub/sinovbot/internal/db"
	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	st := store.NewSQLStore(dbh, cfg.DBDriver)
	sessions := session.NewManager()

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core := bot.New(st, sessions, nil, cfg, time.Now)
	adapter, err := telegram.New(cfg.BotToken, core)
	if err != nil {
		log.Fatalf("telegram init failed: %v", err)
	}
	core.SetTransport(adapter)

	// Ops endpoints for process supervision.
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})
	ops := &http.Server{Addr: cfg.OpsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ops server: %v", err)
		}
	}()

	log.Printf("bot started (db=%s, ops=%s)", cfg.DBDriver, cfg.OpsAddr)
	adapter.Run(runCtx)

	log.Printf("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = ops.Shutdown(shutdownCtx)
}
