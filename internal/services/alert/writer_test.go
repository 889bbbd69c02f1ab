package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

type fakePointWriter struct {
	err    error
	calls  int
	points []*write.Point
}

func (f *fakePointWriter) WritePoint(_ context.Context, p ...*write.Point) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, p...)
	return nil
}

func sampleAlert() model.AlertEvent {
	return model.AlertEvent{
		EventID:    "e-1",
		FieldID:    "field1",
		SensorID:   "temp-1",
		SensorName: "temp",
		Value:      90,
		Normalized: 0.9,
		Level:      model.LevelCritical,
		Timestamp:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestAlertToPoint(t *testing.T) {
	p := AlertToPoint(sampleAlert())
	line := write.PointToLineProtocol(p, time.Second)

	assert.Equal(t, "sensor_alert", p.Name())
	assert.True(t, strings.HasPrefix(line, "sensor_alert,"), line)
	assert.Contains(t, line, "field_id=field1")
	assert.Contains(t, line, "level=critical")
	assert.Contains(t, line, "sensor_id=temp-1")
	assert.Contains(t, line, "sensor_name=temp")
	assert.Contains(t, line, "rank=2i")
	assert.Contains(t, line, "value=90")
	assert.Contains(t, line, "1700000000")
}

func TestWriterWritesAndCounts(t *testing.T) {
	fw := &fakePointWriter{}
	w := NewWriter(fw, 3, time.Minute)

	require.NoError(t, w.Write(context.Background(), AlertToPoint(sampleAlert())))
	assert.Len(t, fw.points, 1)
	assert.Equal(t, int64(1), w.Count(alertMeasurement))
	assert.Greater(t, w.LastErrorAge(), time.Hour)
}

func TestWriterBreakerOpens(t *testing.T) {
	fw := &fakePointWriter{err: errors.New("influx down")}
	w := NewWriter(fw, 2, time.Minute)
	p := AlertToPoint(sampleAlert())

	assert.Error(t, w.Write(context.Background(), p))
	assert.Error(t, w.Write(context.Background(), p))
	assert.Equal(t, gobreaker.StateOpen, w.BreakerState())

	err := w.Write(context.Background(), p)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, fw.calls)
	assert.Less(t, w.LastErrorAge(), time.Second)
}

func TestNilWriter(t *testing.T) {
	var w *Writer
	assert.Equal(t, int64(0), w.Count(alertMeasurement))
	assert.Greater(t, w.LastErrorAge(), time.Hour)
}
