package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

const (
	// stepFraction is the largest random-walk step as a share of the envelope span.
	stepFraction = 0.05

	// spikeOvershoot is how far past a bound a spike lands, as a share of the span.
	spikeOvershoot = 0.25
)

// DataGenerator random-walks a value inside the sensor envelope. With
// probability spikeProb a single reading jumps outside it, so downstream
// classification sees both accepted and rejected values.
type DataGenerator struct {
	mu        sync.Mutex
	cfg       model.SensorConfig
	value     float64
	seeded    bool
	spikeProb float64
	rnd       *rand.Rand
	now       func() time.Time
}

func NewDataGenerator(cfg model.SensorConfig, spikeProb float64, seed int64) *DataGenerator {
	return &DataGenerator{
		cfg:       cfg,
		spikeProb: clamp(spikeProb, 0, 1),
		rnd:       rand.New(rand.NewSource(seed)),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Next advances the walk and returns a reading for sensor.
func (g *DataGenerator) Next(sensor *model.Sensor) model.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	span := g.cfg.Range()
	if !g.seeded {
		g.value = g.cfg.MinValue + span/2
		g.seeded = true
	}

	g.value += (g.rnd.Float64()*2 - 1) * stepFraction * span
	g.value = clamp(g.value, g.cfg.MinValue, g.cfg.MaxValue)

	out := g.value
	if g.spikeProb > 0 && g.rnd.Float64() < g.spikeProb {
		over := (0.01 + g.rnd.Float64()*spikeOvershoot) * span
		if g.rnd.Intn(2) == 0 {
			out = g.cfg.MinValue - over
		} else {
			out = g.cfg.MaxValue + over
		}
	}

	return model.Reading{
		FieldID:   sensor.FieldID,
		SensorID:  sensor.ID,
		Value:     round2(out),
		Timestamp: g.now(),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
