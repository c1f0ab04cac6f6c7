package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/denmalbas007/draw-together/internal/app"
	httpx "github.com/denmalbas007/draw-together/internal/http"
	store "github.com/denmalbas007/draw-together/internal/store"
	ws "github.com/denmalbas007/draw-together/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Store: Postgres when PG_URL is set, otherwise the SQLite file
	var db store.RoomStore
	if cfg.PGURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.PGURL, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
		db = pg
	} else {
		lite, err := store.NewSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("sqlite open", "err", err)
			log.Fatal(err)
		}
		db = lite
	}
	defer db.Close()

	// Redis bus for cross-instance fanout (optional)
	var bus *ws.Bus
	if cfg.RedisAddr != "" {
		var err error
		bus, err = ws.NewBus(ctx, cfg.RedisAddr, cfg.RedisDB, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer bus.Close()
	}

	// WebSocket hub
	hub := ws.NewHub(logger, db, bus, cfg.RoomIdleTTL, cfg.SaveQueueLen)
	go hub.Run(ctx)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, hub, db)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// Drain HTTP, then flush unsaved rooms
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	hub.Flush(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
