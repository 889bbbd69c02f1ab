package aggregator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
)

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct{ msgs []published }

func (p *fakePublisher) PublishMessage(topic string, payload []byte) error {
	p.msgs = append(p.msgs, published{topic, payload})
	return nil
}
func (p *fakePublisher) Close() {}

type stubMessage struct {
	topic   string
	payload []byte
}

func (m stubMessage) Duplicate() bool   { return false }
func (m stubMessage) Qos() byte         { return 0 }
func (m stubMessage) Retained() bool    { return false }
func (m stubMessage) Topic() string     { return m.topic }
func (m stubMessage) MessageID() uint16 { return 0 }
func (m stubMessage) Payload() []byte   { return m.payload }
func (m stubMessage) Ack()              {}

func feed(t *testing.T, d *DataAggregatorService, topic string, r model.Reading) {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, d.messageHandler("sensor/data/#", stubMessage{topic: topic, payload: b}))
}

func TestAggregateAndPublish(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDataAggregatorService(nil, pub, nil, time.Minute, 50)
	d.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	topic := "sensor/data/field1/temp-1"
	for _, v := range []float64{10, 20, 30, 500} {
		feed(t, d, topic, model.Reading{Value: v})
	}

	d.aggregateAndPublish()

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "sensor/average/field1/temp-1", pub.msgs[0].topic)
	var evt model.AverageEvent
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &evt))
	assert.Equal(t, "field1", evt.FieldID)
	assert.Equal(t, "temp-1", evt.SensorID)
	assert.Equal(t, 20.0, evt.Average)
	assert.Equal(t, 3, evt.Count)
	assert.Equal(t, 1, evt.Rejected)

	// window was reset
	d.aggregateAndPublish()
	assert.Len(t, pub.msgs, 1)
}

func TestAggregateMsgpackReadings(t *testing.T) {
	mp, err := codec.New("msgpack")
	require.NoError(t, err)
	pub := &fakePublisher{}
	d := NewDataAggregatorService(nil, pub, mp, time.Minute, 100)

	for _, v := range []float64{40, 44} {
		b, err := mp.Encode(model.Reading{SensorID: "temp-1", Value: v})
		require.NoError(t, err)
		require.NoError(t, d.messageHandler("", stubMessage{topic: "sensor/data/field1/temp-1", payload: b}))
	}
	d.aggregateAndPublish()

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "sensor/average/field1/temp-1", pub.msgs[0].topic)
	var evt model.AverageEvent
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &evt))
	assert.Equal(t, 42.0, evt.Average)
	assert.Equal(t, 2, evt.Count)
}

func TestMessageHandlerKeepsPayloadSensorID(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDataAggregatorService(nil, pub, nil, time.Minute, 100)

	feed(t, d, "sensor/data/field1/topic-sensor", model.Reading{SensorID: "temp-1", Value: 10})
	d.aggregateAndPublish()

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "sensor/average/field1/temp-1", pub.msgs[0].topic)
}

func TestAggregateSkipsAllOutlierWindow(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDataAggregatorService(nil, pub, nil, time.Minute, 10)

	feed(t, d, "sensor/data/f/s", model.Reading{Value: 99})
	d.aggregateAndPublish()
	assert.Empty(t, pub.msgs)
}

func TestMessageHandlerErrors(t *testing.T) {
	d := NewDataAggregatorService(nil, &fakePublisher{}, nil, time.Minute, 10)
	assert.Error(t, d.messageHandler("", stubMessage{topic: "sensor/data/f/s", payload: []byte("x")}))
	assert.Error(t, d.messageHandler("", stubMessage{topic: "other", payload: []byte(`{"value":1}`)}))
}
