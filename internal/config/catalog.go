package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

var ErrUnknownSensor = errors.New("unknown sensor")

// Catalog maps sensor IDs to their deployment and envelope.
//
//	sensors:
//	  - id: temp-1
//	    field_id: field1
//	    name: temp
//	    min_value: 0
//	    max_value: 100
type Catalog struct {
	Sensors []model.Sensor `yaml:"sensors"`

	byID map[string]model.Sensor
}

// LoadCatalog reads a YAML catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseCatalog(f)
}

// ParseCatalog decodes and validates a catalog. Every sensor needs an id,
// ids are unique and each envelope must satisfy IsValid.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// NewCatalog builds a catalog in code, with the same validation as ParseCatalog.
func NewCatalog(sensors ...model.Sensor) (*Catalog, error) {
	c := &Catalog{Sensors: sensors}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	c.byID = make(map[string]model.Sensor, len(c.Sensors))
	for i, s := range c.Sensors {
		if s.ID == "" {
			return fmt.Errorf("catalog: sensor #%d has no id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return fmt.Errorf("catalog: duplicate sensor id %q", s.ID)
		}
		if !s.Config.IsValid() {
			return fmt.Errorf("catalog: sensor %q: max_value %g must exceed min_value %g",
				s.ID, s.Config.MaxValue, s.Config.MinValue)
		}
		if s.Config.Name == "" {
			c.Sensors[i].Config.Name = s.ID
			s = c.Sensors[i]
		}
		c.byID[s.ID] = s
	}
	return nil
}

// Lookup returns the sensor registered under id.
func (c *Catalog) Lookup(id string) (model.Sensor, error) {
	if c != nil {
		if s, ok := c.byID[id]; ok {
			return s, nil
		}
	}
	return model.Sensor{}, fmt.Errorf("%w: %s", ErrUnknownSensor, id)
}

// IDs returns the sorted sensor ids.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
