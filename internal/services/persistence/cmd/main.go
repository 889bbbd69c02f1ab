package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/alert"
	persistencepkg "github.com/LeonardoBeccarini/sensor_classifier/internal/services/persistence"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MQTT ---
	mqCfg := &rabbitmq.RabbitMQConfig{
		Host:     config.EnvStr("RABBITMQ_HOST", "localhost"),
		Port:     config.EnvInt("RABBITMQ_PORT", 1883),
		User:     config.EnvStr("RABBITMQ_USER", "guest"),
		Password: config.EnvStr("RABBITMQ_PASSWORD", "guest"),
		ClientID: config.EnvStr("MQTT_CLIENT_ID", "persistence-service"),
	}
	topics := config.EnvList("AVERAGE_SUB_TOPICS", "sensor/average/#")

	mqClient, err := rabbitmq.NewRabbitMQConn(mqCfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}
	consumer := rabbitmq.NewConsumer(mqClient, nil, topics...)

	// --- InfluxDB ---
	influxURL := config.EnvStr("INFLUX_URL", "http://localhost:8086")
	influxToken := config.EnvStr("INFLUX_TOKEN", "")
	influxOrg := config.EnvStr("INFLUX_ORG", "org")
	influxBucket := config.EnvStr("INFLUX_BUCKET", "sensor-averages")
	if influxToken == "" {
		log.Fatal("persistence: INFLUX_TOKEN is required")
	}

	influxClient := influxdb2.NewClient(influxURL, influxToken)
	defer influxClient.Close()
	writer := alert.NewWriter(influxClient.WriteAPIBlocking(influxOrg, influxBucket),
		uint32(config.EnvInt("CB_FAILURES", 5)), config.EnvDuration("CB_OPEN_FOR", 30*time.Second))

	svc, err := persistencepkg.NewService(consumer, writer, config.EnvStr("MEASUREMENT", "sensor_average"))
	if err != nil {
		log.Fatalf("persistence init failed: %v", err)
	}

	// --- HTTP mux ---
	mux := persistencepkg.NewHTTPMux(svc)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ready": mqClient.IsConnectionOpen()})
	})

	httpPort := config.EnvStr("PORT", "8081")
	srv := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("persistence HTTP listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go svc.Start(ctx)

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("persistence: shutdown complete")
}
