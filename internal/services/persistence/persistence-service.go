package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

const defaultMeasurement = "sensor_average"

// PointWriter is the subset of the Influx write API the service needs.
type PointWriter interface {
	Write(ctx context.Context, p *write.Point) error
}

// Service stores the windowed averages published by the aggregator and keeps
// the latest one per sensor in memory.
type Service struct {
	consumer    rabbitmq.IConsumer
	writer      PointWriter
	measurement string

	mu     sync.RWMutex
	latest map[string]model.AverageEvent
}

func NewService(consumer rabbitmq.IConsumer, writer PointWriter, measurement string) (*Service, error) {
	if writer == nil {
		return nil, fmt.Errorf("persistence: nil writer")
	}
	if measurement == "" {
		measurement = defaultMeasurement
	}
	return &Service{
		consumer:    consumer,
		writer:      writer,
		measurement: sanitizeMeasurement(measurement),
		latest:      make(map[string]model.AverageEvent),
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(func(topic string, msg mqtt.Message) error {
		return s.handle(ctx, topic, msg.Payload())
	})
	s.consumer.ConsumeMessage(ctx)
}

func (s *Service) handle(ctx context.Context, topic string, payload []byte) error {
	var m model.AverageEvent
	if err := json.Unmarshal(payload, &m); err != nil {
		log.Printf("persistence: invalid JSON on %s: %v", topic, err)
		return nil
	}
	if f, id, ok := rabbitmq.TopicIDs(topic, "sensor/average"); ok {
		if m.FieldID == "" {
			m.FieldID = f
		}
		if m.SensorID == "" {
			m.SensorID = id
		}
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	s.latest[m.FieldID+"/"+m.SensorID] = m
	s.mu.Unlock()

	if err := s.writer.Write(ctx, s.toPoint(m)); err != nil {
		log.Printf("persistence: write error: %v", err)
		return err
	}
	log.Printf("persistence: wrote %s field=%s sensor=%s avg=%.3f", s.measurement, m.FieldID, m.SensorID, m.Average)
	return nil
}

func (s *Service) toPoint(m model.AverageEvent) *write.Point {
	tags := map[string]string{
		"field_id":  m.FieldID,
		"sensor_id": m.SensorID,
	}
	fields := map[string]interface{}{
		"average":  m.Average,
		"count":    int64(m.Count),
		"rejected": int64(m.Rejected),
	}
	return influxdb2.NewPoint(s.measurement, tags, fields, m.Timestamp)
}

// LatestCache returns the most recent average seen for every sensor.
func (s *Service) LatestCache() []model.AverageEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AverageEvent, 0, len(s.latest))
	for _, v := range s.latest {
		out = append(out, v)
	}
	return out
}

func sanitizeMeasurement(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
