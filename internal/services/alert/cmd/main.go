package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/alert"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/dedup"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

func main() {
	// === Config ===
	cfg := struct {
		Rabbit rabbitmq.RabbitMQConfig

		CatalogPath string
		Codec       string
		Topics      []string
		AlertTopic  string

		InfluxURL      string
		InfluxToken    string
		InfluxOrg      string
		InfluxBucket   string
		BreakerFails   int
		BreakerOpenFor time.Duration

		HTTPPort       int
		GRPCPort       int
		ReadinessGrace time.Duration
	}{
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     config.EnvStr("RABBITMQ_HOST", "localhost"),
			Port:     config.EnvInt("RABBITMQ_PORT", 1883),
			User:     config.EnvStr("RABBITMQ_USER", "guest"),
			Password: config.EnvStr("RABBITMQ_PASSWORD", "guest"),
			ClientID: config.EnvStr("HOSTNAME", "alert-service"),
		},

		CatalogPath: config.EnvStr("SENSOR_CATALOG", "sensors.yaml"),
		Codec:       config.EnvStr("PAYLOAD_CODEC", "json"),
		Topics:      config.EnvList("DATA_SUB_TOPICS", "sensor/data/#"),
		AlertTopic:  config.EnvStr("ALERT_TOPIC", rabbitmq.TopicAlert),

		InfluxURL:      config.EnvStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:    os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:      config.EnvStr("INFLUX_ORG", "org"),
		InfluxBucket:   config.EnvStr("INFLUX_BUCKET", "alerts"),
		BreakerFails:   config.EnvInt("INFLUX_BREAKER_FAILURES", 5),
		BreakerOpenFor: config.EnvDuration("INFLUX_BREAKER_OPEN", 30*time.Second),

		HTTPPort:       config.EnvInt("HTTP_PORT", 8080),
		GRPCPort:       config.EnvInt("GRPC_PORT", 50051),
		ReadinessGrace: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("alert-svc: load catalog: %v", err)
	}
	log.Printf("alert-svc: %d sensors in catalog %s", len(catalog.IDs()), cfg.CatalogPath)

	payloadCodec, err := codec.New(cfg.Codec)
	if err != nil {
		log.Fatalf("alert-svc: %v", err)
	}

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := alert.NewMetrics(reg)

	// === InfluxDB ===
	influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer influx.Close()
	writer := alert.NewWriter(influx.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket), uint32(cfg.BreakerFails), cfg.BreakerOpenFor)

	// === MQTT ===
	mqttClient, err := rabbitmq.NewRabbitMQConn(&cfg.Rabbit, ctx)
	if err != nil {
		log.Fatalf("alert-svc: mqtt connection error: %v", err)
	}
	consumer := rabbitmq.NewConsumer(mqttClient, nil, cfg.Topics...)
	publisher := rabbitmq.NewPublisher(mqttClient)

	svc := alert.NewService(consumer, publisher, alert.Options{
		Catalog:    catalog,
		Codec:      payloadCodec,
		Writer:     writer,
		Metrics:    metrics,
		Deduper:    dedup.New(2*time.Minute, 20000),
		AlertTopic: cfg.AlertTopic,
	})

	// === HTTP ===
	ev := alert.NewEvaluator(catalog)
	mux := http.NewServeMux()
	mux.Handle("/healthz", alert.NewHealthHandler(mqttClient, writer))
	mux.Handle("/readyz", alert.NewReadyHandler(mqttClient, writer, 2*time.Second))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/classify", alert.NewClassifyHandler(ev))
	mux.Handle("/alerts/latest", alert.NewAlertsLatestHandler(influx.QueryAPI(cfg.InfluxOrg), cfg.InfluxBucket))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("alert-svc: HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("alert-svc: http server error: %v", err)
		}
	}()

	// === gRPC ===
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
	if err != nil {
		log.Fatalf("alert-svc: grpc listen: %v", err)
	}
	gs := grpc.NewServer()
	alert.RegisterClassifierServer(gs, alert.NewGrpcHandler(ev))
	go func() {
		log.Printf("alert-svc: gRPC listening on :%d", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Printf("alert-svc: grpc server stopped: %v", err)
		}
	}()

	// === Consumer ===
	svc.Start(ctx)
	log.Printf("alert-svc: shutting down...")

	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ReadinessGrace)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
	gs.GracefulStop()
}
