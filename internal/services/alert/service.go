package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/dedup"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

var errNaNReading = errors.New("reading value is NaN")

// Options wires the optional collaborators of Service.
type Options struct {
	Catalog    *config.Catalog
	Codec      codec.Codec    // json when nil
	Writer     *Writer        // nil disables persistence
	Metrics    *Metrics       // nil disables counters
	Deduper    *dedup.Deduper // drops QoS>0 redeliveries; nil disables
	Logger     *log.Logger    // diagnostics; stderr when nil
	AlertTopic string         // rabbitmq.TopicAlert when empty
	DataPrefix string         // "sensor/data" when empty
}

// Service consumes raw readings, classifies them against the catalog and
// publishes one AlertEvent per reading that is in range.
type Service struct {
	consumer   rabbitmq.IConsumer
	publisher  rabbitmq.IPublisher
	catalog    *config.Catalog
	codec      codec.Codec
	writer     *Writer
	metrics    *Metrics
	deduper    *dedup.Deduper
	logger     *log.Logger
	sink       classifier.Sink
	alertTopic string
	dataPrefix string

	now   func() time.Time
	newID func() string
}

func NewService(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, opts Options) *Service {
	s := &Service{
		consumer:   consumer,
		publisher:  publisher,
		catalog:    opts.Catalog,
		codec:      opts.Codec,
		writer:     opts.Writer,
		metrics:    opts.Metrics,
		deduper:    opts.Deduper,
		logger:     opts.Logger,
		alertTopic: opts.AlertTopic,
		dataPrefix: opts.DataPrefix,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
	if s.codec == nil {
		s.codec = codec.JSON
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "alert-svc: ", log.LstdFlags)
	}
	if s.alertTopic == "" {
		s.alertTopic = rabbitmq.TopicAlert
	}
	if s.dataPrefix == "" {
		s.dataPrefix = "sensor/data"
	}
	s.sink = classifier.MultiSink{classifier.NewLogSink(s.logger), s.metrics}
	return s
}

// Start blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(s.handleMessage)
	defer s.publisher.Close()
	s.consumer.ConsumeMessage(ctx)
}

func (s *Service) handleMessage(_ string, msg mqtt.Message) error {
	if s.isRedelivery(msg) {
		return nil
	}
	payload := msg.Payload()

	var r model.Reading
	if err := s.codec.Decode(payload, &r); err != nil {
		s.metrics.incDecodeError()
		return fmt.Errorf("invalid %s reading on %s: %w", s.codec.Name(), msg.Topic(), err)
	}
	if r.FieldID == "" || r.SensorID == "" {
		if f, sid, ok := rabbitmq.TopicIDs(msg.Topic(), s.dataPrefix); ok {
			if r.FieldID == "" {
				r.FieldID = f
			}
			if r.SensorID == "" {
				r.SensorID = sid
			}
		}
	}

	_, err := s.Process(context.Background(), r)
	switch {
	case err == nil, errors.Is(err, classifier.ErrOutOfRange):
		// out-of-range readings were already routed to the diagnostic sink
		return nil
	case errors.Is(err, config.ErrUnknownSensor):
		s.logger.Printf("ignoring reading: %v", err)
		return nil
	default:
		return err
	}
}

// isRedelivery reports a QoS>0 message the broker flagged as a retry of one
// already handled. QoS0 readings are never redelivered, so identical payloads
// there are distinct readings.
func (s *Service) isRedelivery(msg mqtt.Message) bool {
	if msg.Qos() == 0 {
		return false
	}
	fresh := s.deduper.ShouldProcess(dedup.MessageKey(msg.Topic(), msg.MessageID(), msg.Payload()))
	return !fresh && msg.Duplicate()
}

// Process classifies one reading and, when it is in range, publishes and
// stores the resulting AlertEvent. Out-of-range readings are reported to the
// diagnostic sink and returned as errors. Publish and write failures are
// counted and logged but do not fail the reading.
func (s *Service) Process(ctx context.Context, r model.Reading) (model.AlertEvent, error) {
	if math.IsNaN(r.Value) {
		s.metrics.incDecodeError()
		return model.AlertEvent{}, errNaNReading
	}
	sensor, err := s.catalog.Lookup(r.SensorID)
	if err != nil {
		s.metrics.incUnknownSensor()
		return model.AlertEvent{}, err
	}
	cfg := sensor.Config

	level, err := classifier.Classify(r.Value, cfg)
	if err != nil {
		s.sink.Report(classifier.Diagnostic{Value: r.Value, Err: fmt.Errorf("sensor %s: %w", r.SensorID, err)})
		return model.AlertEvent{}, err
	}

	fieldID := r.FieldID
	if fieldID == "" {
		fieldID = sensor.FieldID
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	evt := model.AlertEvent{
		EventID:    s.newID(),
		FieldID:    fieldID,
		SensorID:   r.SensorID,
		SensorName: cfg.Name,
		Value:      r.Value,
		Normalized: classifier.Normalize(r.Value, cfg),
		Level:      level,
		Timestamp:  ts,
	}
	s.metrics.observeClassified(string(level), evt.Normalized)

	if b, err := json.Marshal(evt); err != nil {
		s.logger.Printf("marshal alert %s: %v", evt.EventID, err)
	} else if err := s.publisher.PublishMessage(rabbitmq.FormatTopic(s.alertTopic, fieldID, r.SensorID), b); err != nil {
		s.metrics.incPublishError()
		s.logger.Printf("publish alert %s: %v", evt.EventID, err)
	}

	if s.writer != nil {
		if err := s.writer.Write(ctx, AlertToPoint(evt)); err != nil {
			s.metrics.incWriteError()
			s.logger.Printf("influx write %s/%s: %v", fieldID, r.SensorID, err)
		}
	}
	return evt, nil
}
