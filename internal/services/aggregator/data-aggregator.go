package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/rabbitmq"
)

type sensorKey struct {
	fieldID  string
	sensorID string
}

// DataAggregatorService averages each sensor's readings over a window,
// dropping outliers, and publishes one AverageEvent per sensor per window.
type DataAggregatorService struct {
	consumer            rabbitmq.IConsumer
	publisher           rabbitmq.IPublisher
	codec               codec.Codec
	buffer              map[sensorKey]*classifier.ReadingProcessor
	mutex               sync.Mutex
	aggregationInterval time.Duration
	outlierThreshold    float64
	topicTemplate       string
	now                 func() time.Time
}

// NewDataAggregatorService decodes readings with c, JSON when nil.
func NewDataAggregatorService(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, c codec.Codec, aggregationInterval time.Duration, outlierThreshold float64) *DataAggregatorService {
	if c == nil {
		c = codec.JSON
	}
	return &DataAggregatorService{
		consumer:            consumer,
		publisher:           publisher,
		codec:               c,
		aggregationInterval: aggregationInterval,
		outlierThreshold:    outlierThreshold,
		topicTemplate:       rabbitmq.TopicSensorAverage,
		buffer:              make(map[sensorKey]*classifier.ReadingProcessor),
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

func (d *DataAggregatorService) messageHandler(_ string, message mqtt.Message) error {
	var r model.Reading
	if err := d.codec.Decode(message.Payload(), &r); err != nil {
		return fmt.Errorf("aggregator: invalid %s reading: %w", d.codec.Name(), err)
	}
	if f, s, ok := rabbitmq.TopicIDs(message.Topic(), "sensor/data"); ok {
		if r.FieldID == "" {
			r.FieldID = f
		}
		if r.SensorID == "" {
			r.SensorID = s
		}
	}
	if r.SensorID == "" {
		return fmt.Errorf("aggregator: reading on %s has no sensor id", message.Topic())
	}

	// held across Add so a window swap never splits a reading
	d.mutex.Lock()
	defer d.mutex.Unlock()
	k := sensorKey{fieldID: r.FieldID, sensorID: r.SensorID}
	p, ok := d.buffer[k]
	if !ok {
		p = classifier.NewReadingProcessor(d.outlierThreshold)
		d.buffer[k] = p
	}
	p.Add(r.Value)
	return nil
}

func (d *DataAggregatorService) Start(ctx context.Context) {
	d.consumer.SetHandler(d.messageHandler)

	// consumer blocks until ctx is done, so it runs beside the ticker
	go d.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(d.aggregationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.publisher.Close()
			return
		case <-ticker.C:
			d.aggregateAndPublish()
		}
	}
}

func (d *DataAggregatorService) aggregateAndPublish() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for k, p := range d.buffer {
		avg, ok := p.FilteredAverage()
		rejected := p.Rejected()
		if !ok {
			if rejected > 0 {
				log.Printf("aggregator: %s/%s: all %d readings rejected as outliers", k.fieldID, k.sensorID, rejected)
			}
			p.Reset()
			continue
		}

		out := model.AverageEvent{
			FieldID:   k.fieldID,
			SensorID:  k.sensorID,
			Average:   avg,
			Count:     p.Count(),
			Rejected:  rejected,
			Timestamp: d.now(),
		}
		p.Reset()

		b, err := json.Marshal(out)
		if err != nil {
			log.Printf("aggregator: marshal err %v", err)
			continue
		}
		topic := rabbitmq.FormatTopic(d.topicTemplate, k.fieldID, k.sensorID)
		if err := d.publisher.PublishMessage(topic, b); err != nil {
			log.Printf("aggregator: publish err %v", err)
		} else {
			log.Printf("aggregator: %s avg=%.3f n=%d rejected=%d", topic, out.Average, out.Count, out.Rejected)
		}
	}
}
