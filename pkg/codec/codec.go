// Package codec encodes and decodes raw sensor readings on the wire.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

// Codec decodes raw reading payloads. Sensors on constrained links publish msgpack.
type Codec interface {
	Name() string
	Decode(payload []byte, r *model.Reading) error
	Encode(r model.Reading) ([]byte, error)
}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Decode(payload []byte, r *model.Reading) error {
	return json.Unmarshal(payload, r)
}

func (jsonCodec) Encode(r model.Reading) ([]byte, error) { return json.Marshal(r) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Decode(payload []byte, r *model.Reading) error {
	return msgpack.Unmarshal(payload, r)
}

func (msgpackCodec) Encode(r model.Reading) ([]byte, error) { return msgpack.Marshal(r) }

// New returns the codec for "json" (or empty) and "msgpack".
func New(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported payload codec %q", name)
	}
}
