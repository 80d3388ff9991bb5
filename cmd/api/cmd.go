package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/bootstrap"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/config"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/handlers"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/response"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/router"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/services"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	cstore := store.NewCoachStore(bs.Firestore)
	qstore := store.NewUsageStore(bs.Firestore)

	// services
	userv := services.NewUserService(ustore)
	ledger, err := services.NewUsageLedger(qstore, cfg.LedgerTimezone)
	exitOnError("ledger init failed", err, bs.Log)
	registry := services.NewToolRegistry()
	coachsv := services.NewCoachService(bs.VertexAdapter, registry, cstore, cfg.StreamTimeout, cfg.HistoryLimit)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.UserSvc = userv
	deps.Ledger = ledger
	deps.CoachSvc = coachsv
	deps.VertexModel = cfg.VertexModel

	// router
	r := router.NewRouter(deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitOnError("server start failed", err, bs.Log)
		}
	}()
	bs.Log.Info("server listening", "port", cfg.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// In-flight streams get a grace period to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		bs.Log.Error("server shutdown failed", "error", err)
	}
}
