package main

import (
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"triptally/internal/api"
	"triptally/internal/config"
	"triptally/internal/metrics"
	"triptally/internal/notify"
	"triptally/internal/payments"
	"triptally/internal/rates"
	"triptally/internal/service"
	"triptally/internal/storage/sqlite"
	"triptally/internal/syncer"
	"triptally/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	sync := syncer.New(store)
	sync.Subscribe(notify.NewWatcher(notify.LogDispatcher{}).OnSnapshot)

	trips := service.NewTripService(sync)
	expenses := service.NewExpenseService(sync, rates.NewStatic(nil))
	settlements := service.NewSettlementService(sync, payments.NewDeepLink(cfg.ProviderBaseURL))

	router := api.NewServer(trips, expenses, settlements).Router()
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// h2c keeps HTTP/2 available to clients that speak it without TLS.
	handler := h2c.NewHandler(router, &http2.Server{})

	addr := ":" + cfg.Port
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
