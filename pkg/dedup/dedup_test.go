package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestShouldProcessWithinTTL(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	d := New(time.Minute, 100)
	d.now = clk.now

	assert.True(t, d.ShouldProcess("a"))
	assert.False(t, d.ShouldProcess("a"))
	assert.True(t, d.ShouldProcess("b"))

	clk.advance(61 * time.Second)
	assert.True(t, d.ShouldProcess("a"))
}

func TestShouldProcessEmptyID(t *testing.T) {
	d := New(0, 0)
	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))
	assert.Equal(t, 0, d.Len())
}

func TestMessageKey(t *testing.T) {
	d := New(time.Minute, 10)
	p := []byte(`{"sensor_id":"temp-1","value":12.5}`)
	topic := "sensor/data/field1/temp-1"

	assert.True(t, d.ShouldProcess(MessageKey(topic, 3, p)))
	assert.False(t, d.ShouldProcess(MessageKey(topic, 3, append([]byte(nil), p...))))
	assert.True(t, d.ShouldProcess(MessageKey(topic, 4, p)))
	assert.True(t, d.ShouldProcess(MessageKey(topic, 3, []byte(`{"sensor_id":"temp-1","value":12.6}`))))

	var nilDeduper *Deduper
	assert.True(t, nilDeduper.ShouldProcess(MessageKey(topic, 3, p)))
}

func TestEvictsExpiredKeysOverCapacity(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	d := New(time.Second, 2)
	d.now = clk.now

	d.ShouldProcess("a")
	d.ShouldProcess("b")
	clk.advance(2 * time.Second)
	d.ShouldProcess("c")

	assert.LessOrEqual(t, d.Len(), 2)
	assert.True(t, d.ShouldProcess("a"))
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key([]byte("x")), Key([]byte("x")))
	assert.NotEqual(t, Key([]byte("x")), Key([]byte("y")))
	assert.Len(t, Key(nil), 64)
}
