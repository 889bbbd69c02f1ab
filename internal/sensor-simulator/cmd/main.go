package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	sensorSimulator "github.com/LeonardoBeccarini/sensor_classifier/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

func main() {
	sensorID := flag.String("sensor-id", "temp-1", "unique sensor identifier")
	fieldID := flag.String("field-id", "field1", "unique field identifier")
	clientID := flag.String("client-id", "sensorPublisher1", "MQTT client ID")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	catalogPath := flag.String("catalog", "", "sensor catalog yaml; overrides -name/-min/-max")
	name := flag.String("name", "Temperature", "sensor display name")
	minV := flag.Float64("min", 0, "envelope minimum")
	maxV := flag.Float64("max", 100, "envelope maximum")
	spike := flag.Float64("spike", 0.05, "probability of an out-of-range reading")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	codecName := flag.String("codec", "json", "payload codec: json or msgpack")
	flag.Parse()

	sensor := model.Sensor{FieldID: *fieldID, ID: *sensorID, Config: model.NewSensorConfig(*name, *minV, *maxV)}
	if *catalogPath != "" {
		cat, err := config.LoadCatalog(*catalogPath)
		if err != nil {
			log.Fatalf("catalog: %v", err)
		}
		s, err := cat.Lookup(*sensorID)
		if err != nil {
			log.Fatalf("catalog: %v", err)
		}
		sensor = s
		if sensor.FieldID == "" {
			sensor.FieldID = *fieldID
		}
	}
	if !sensor.Config.IsValid() {
		log.Fatalf("invalid envelope for %s: min=%g max=%g", sensor.ID, sensor.Config.MinValue, sensor.Config.MaxValue)
	}

	payloadCodec, err := codec.New(*codecName)
	if err != nil {
		log.Fatal(err)
	}

	cfg := &rabbitmq.RabbitMQConfig{
		Host:     config.EnvStr("RABBITMQ_HOST", "localhost"),
		Port:     config.EnvInt("RABBITMQ_PORT", 1883),
		User:     config.EnvStr("RABBITMQ_USER", "guest"),
		Password: config.EnvStr("RABBITMQ_PASSWORD", "guest"),
		ClientID: *clientID,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatal(err)
	}

	publisher := rabbitmq.NewPublisher(client)
	generator := sensorSimulator.NewDataGenerator(sensor.Config, *spike, *seed)
	sim := sensorSimulator.NewSensorSimulator(publisher, generator, payloadCodec, &sensor)

	sim.Start(ctx, *interval)
}
