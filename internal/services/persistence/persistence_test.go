package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

type fakeWriter struct {
	points []*write.Point
	err    error
}

func (f *fakeWriter) Write(_ context.Context, p *write.Point) error {
	f.points = append(f.points, p)
	return f.err
}

func payload(t *testing.T, evt model.AverageEvent) []byte {
	t.Helper()
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

func TestHandleWritesPointAndCaches(t *testing.T) {
	w := &fakeWriter{}
	svc, err := NewService(nil, w, "")
	require.NoError(t, err)

	ts := time.Unix(1700000000, 0).UTC()
	evt := model.AverageEvent{FieldID: "field1", SensorID: "temp-1", Average: 21.5, Count: 4, Rejected: 1, Timestamp: ts}
	require.NoError(t, svc.handle(context.Background(), "sensor/average/field1/temp-1", payload(t, evt)))

	require.Len(t, w.points, 1)
	line := write.PointToLineProtocol(w.points[0], time.Second)
	assert.True(t, strings.HasPrefix(line, "sensor_average,field_id=field1,sensor_id=temp-1 "), line)
	assert.Contains(t, line, "average=21.5")
	assert.Contains(t, line, "count=4i")
	assert.Contains(t, line, "rejected=1i")

	cached := svc.LatestCache()
	require.Len(t, cached, 1)
	assert.Equal(t, 21.5, cached[0].Average)
}

func TestHandleFillsIDsFromTopic(t *testing.T) {
	w := &fakeWriter{}
	svc, err := NewService(nil, w, "avg per sensor")
	require.NoError(t, err)

	require.NoError(t, svc.handle(context.Background(), "sensor/average/f2/hum-1", []byte(`{"average":40}`)))
	cached := svc.LatestCache()
	require.Len(t, cached, 1)
	assert.Equal(t, "f2", cached[0].FieldID)
	assert.Equal(t, "hum-1", cached[0].SensorID)
	assert.False(t, cached[0].Timestamp.IsZero())
	assert.Equal(t, "avg_per_sensor", svc.measurement)
}

func TestHandleFillsOnlyMissingFieldID(t *testing.T) {
	w := &fakeWriter{}
	svc, err := NewService(nil, w, "")
	require.NoError(t, err)

	require.NoError(t, svc.handle(context.Background(), "sensor/average/f3/topic-id", []byte(`{"sensor_id":"hum-2","average":55}`)))
	cached := svc.LatestCache()
	require.Len(t, cached, 1)
	assert.Equal(t, "f3", cached[0].FieldID)
	assert.Equal(t, "hum-2", cached[0].SensorID)

	line := write.PointToLineProtocol(w.points[0], time.Second)
	assert.True(t, strings.HasPrefix(line, "sensor_average,field_id=f3,sensor_id=hum-2 "), line)
}

func TestHandleInvalidAndWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("influx down")}
	svc, err := NewService(nil, w, "")
	require.NoError(t, err)

	assert.NoError(t, svc.handle(context.Background(), "sensor/average/f/s", []byte("nope")))
	assert.Empty(t, w.points)

	assert.Error(t, svc.handle(context.Background(), "sensor/average/f/s", []byte(`{"average":1}`)))
	// cached even when the write fails
	assert.Len(t, svc.LatestCache(), 1)
}

func TestNewServiceNeedsWriter(t *testing.T) {
	_, err := NewService(nil, nil, "")
	assert.Error(t, err)
}

func TestAveragesLatestHandler(t *testing.T) {
	svc, err := NewService(nil, &fakeWriter{}, "")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, svc.handle(ctx, "sensor/average/f1/b", []byte(`{"average":2}`)))
	require.NoError(t, svc.handle(ctx, "sensor/average/f1/a", []byte(`{"average":1}`)))

	mux := NewHTTPMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/averages/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0]["sensor_id"])
	assert.Equal(t, "b", out[1]["sensor_id"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/averages/latest?sensor_id=b", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/averages/latest", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
