package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/aggregator"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

func main() {
	cfg := &rabbitmq.RabbitMQConfig{
		Host:     config.EnvStr("RABBITMQ_HOST", "localhost"),
		Port:     config.EnvInt("RABBITMQ_PORT", 1883),
		User:     config.EnvStr("RABBITMQ_USER", "guest"),
		Password: config.EnvStr("RABBITMQ_PASSWORD", "guest"),
		ClientID: config.EnvStr("HOSTNAME", "dataAggregator1"),
	}
	interval := config.EnvDuration("AGGREGATION_INTERVAL", time.Minute)
	threshold := config.EnvFloat("OUTLIER_THRESHOLD", 100)
	topics := config.EnvList("DATA_SUB_TOPICS", "sensor/data/#")

	payloadCodec, err := codec.New(config.EnvStr("PAYLOAD_CODEC", "json"))
	if err != nil {
		log.Fatalf("aggregator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatalf("Failed to connect to MQTT broker: %v", err)
	}

	publisher := rabbitmq.NewPublisher(client)
	// nil handler, injected by the service
	consumer := rabbitmq.NewConsumer(client, nil, topics...)

	svc := aggregator.NewDataAggregatorService(consumer, publisher, payloadCodec, interval, threshold)

	log.Printf("aggregator: running every %s, outlier threshold %g", interval, threshold)
	svc.Start(ctx)
}
