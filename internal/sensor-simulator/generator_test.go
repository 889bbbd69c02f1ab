package sensor_simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/pkg/codec"
)

func testSensor() *model.Sensor {
	return &model.Sensor{FieldID: "field1", ID: "temp-1", Config: model.NewSensorConfig("Temperature", 0, 100)}
}

func TestGeneratorStaysInsideEnvelopeWithoutSpikes(t *testing.T) {
	s := testSensor()
	g := NewDataGenerator(s.Config, 0, 42)
	for i := 0; i < 500; i++ {
		r := g.Next(s)
		assert.GreaterOrEqual(t, r.Value, 0.0)
		assert.LessOrEqual(t, r.Value, 100.0)
		assert.Equal(t, "temp-1", r.SensorID)
		assert.Equal(t, "field1", r.FieldID)
	}
}

func TestGeneratorAlwaysSpikes(t *testing.T) {
	s := testSensor()
	g := NewDataGenerator(s.Config, 1, 7)
	for i := 0; i < 100; i++ {
		r := g.Next(s)
		assert.True(t, r.Value < 0 || r.Value > 100, "value %g should be outside envelope", r.Value)
	}
}

func TestGeneratorDeterministicForSeed(t *testing.T) {
	s := testSensor()
	a := NewDataGenerator(s.Config, 0.2, 99)
	b := NewDataGenerator(s.Config, 0.2, 99)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Next(s).Value, b.Next(s).Value)
	}
}

type capturePublisher struct {
	topics   []string
	payloads [][]byte
	closed   bool
}

func (p *capturePublisher) PublishMessage(topic string, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}
func (p *capturePublisher) Close() { p.closed = true }

func TestSimulatorPublishesEncodedReading(t *testing.T) {
	s := testSensor()
	mp, err := codec.New("msgpack")
	require.NoError(t, err)

	pub := &capturePublisher{}
	gen := NewDataGenerator(s.Config, 0, 1)
	gen.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	sim := NewSensorSimulator(pub, gen, mp, s)

	require.NoError(t, sim.publishOnce())
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "sensor/data/field1/temp-1", pub.topics[0])

	var r model.Reading
	require.NoError(t, mp.Decode(pub.payloads[0], &r))
	assert.Equal(t, "temp-1", r.SensorID)
	assert.InDelta(t, 50, r.Value, 5)
}
