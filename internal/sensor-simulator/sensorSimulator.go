package sensor_simulator

import (
	"context"
	"log"
	"time"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

// Encoder serializes a reading for the wire.
type Encoder interface {
	Name() string
	Encode(model.Reading) ([]byte, error)
}

type SensorSimulator struct {
	sensor    *model.Sensor
	generator *DataGenerator
	publisher rabbitmq.IPublisher
	encoder   Encoder
	topic     string
}

func NewSensorSimulator(publisher rabbitmq.IPublisher, gen *DataGenerator, enc Encoder, sensor *model.Sensor) *SensorSimulator {
	return &SensorSimulator{
		sensor:    sensor,
		generator: gen,
		publisher: publisher,
		encoder:   enc,
		topic:     rabbitmq.FormatTopic(rabbitmq.TopicSensorData, sensor.FieldID, sensor.ID),
	}
}

// Start publishes one reading per interval until ctx is done.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			if err := s.publishOnce(); err != nil {
				log.Printf("sensor %s: %v", s.sensor.ID, err)
			}
		}
	}
}

func (s *SensorSimulator) publishOnce() error {
	r := s.generator.Next(s.sensor)
	payload, err := s.encoder.Encode(r)
	if err != nil {
		return err
	}
	log.Printf("sensor: pub %s value=%g (%s)", s.topic, r.Value, s.encoder.Name())
	return s.publisher.PublishMessage(s.topic, payload)
}
