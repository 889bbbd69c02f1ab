package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/gateway/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := app.NewGateway(app.Config{
		PersistenceBaseURL: config.EnvStr("PERSISTENCE_URL", "http://persistence:8081"),
		AlertsBaseURL:      config.EnvStr("ALERTS_URL", "http://alert-service:8080"),
		HTTPTimeout:        config.EnvDuration("TIMEOUT_MS", 3*time.Second),
		BreakerFailures:    uint32(config.EnvInt("CB_FAILURES", 3)),
		BreakerOpenFor:     config.EnvDuration("CB_OPEN_MS", 10*time.Second),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/dashboard/data", gw.HandleDashboard)

	addr := ":" + config.EnvStr("PORT", "5009")
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Printf("gateway listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("gateway: %v", err)
		}
	}()

	<-ctx.Done()
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
}
