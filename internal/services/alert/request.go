package alert

import (
	"errors"
	"fmt"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

var (
	errMissingConfig = errors.New("either sensor_id or config is required")
	errInvalidConfig = errors.New("config max_value must exceed min_value")
	errMissingValue  = errors.New("value or readings is required")
)

// ClassifyRequest is the body of POST /classify and of the gRPC calls.
// Either SensorID (catalog lookup) or Config must be set; Readings selects batch mode.
type ClassifyRequest struct {
	SensorID string              `json:"sensor_id,omitempty"`
	Config   *model.SensorConfig `json:"config,omitempty"`
	Value    *float64            `json:"value,omitempty"`
	Readings []float64           `json:"readings,omitempty"`
}

type DiagnosticDTO struct {
	Index   int     `json:"index"`
	Value   float64 `json:"value"`
	Kind    string  `json:"kind"`
	Bound   float64 `json:"bound"`
	Message string  `json:"message"`
}

type ClassifyResponse struct {
	Config      model.SensorConfig `json:"config"`
	Level       model.AlertLevel   `json:"level,omitempty"`
	Normalized  *float64           `json:"normalized,omitempty"`
	Levels      []model.AlertLevel `json:"levels,omitempty"`
	Diagnostics []DiagnosticDTO    `json:"diagnostics,omitempty"`
}

func toDiagnosticDTO(d classifier.Diagnostic) DiagnosticDTO {
	dto := DiagnosticDTO{Index: d.Index, Value: d.Value, Message: d.Err.Error(), Kind: "unknown"}
	if oor, ok := classifier.AsOutOfRange(d.Err); ok {
		dto.Kind = oor.Kind.String()
		dto.Bound = oor.Bound
	}
	return dto
}

// Evaluator answers ClassifyRequests against an optional catalog.
type Evaluator struct {
	catalog *config.Catalog
}

func NewEvaluator(catalog *config.Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// resolve picks the envelope. Ad-hoc configs that fail IsValid are refused here,
// before they reach the classifier.
func (e *Evaluator) resolve(req ClassifyRequest) (model.SensorConfig, error) {
	if req.Config != nil {
		if !req.Config.IsValid() {
			return model.SensorConfig{}, errInvalidConfig
		}
		return *req.Config, nil
	}
	if req.SensorID == "" {
		return model.SensorConfig{}, errMissingConfig
	}
	s, err := e.catalog.Lookup(req.SensorID)
	if err != nil {
		return model.SensorConfig{}, err
	}
	return s.Config, nil
}

// Evaluate classifies a single value or a batch. A single out-of-range value is
// returned as *classifier.OutOfRangeError; batch failures become diagnostics.
func (e *Evaluator) Evaluate(req ClassifyRequest) (ClassifyResponse, error) {
	cfg, err := e.resolve(req)
	if err != nil {
		return ClassifyResponse{}, err
	}
	resp := ClassifyResponse{Config: cfg}

	switch {
	case req.Readings != nil:
		levels, diags := classifier.ClassifyAll(req.Readings, cfg)
		resp.Levels = levels
		resp.Diagnostics = make([]DiagnosticDTO, 0, len(diags))
		for _, d := range diags {
			resp.Diagnostics = append(resp.Diagnostics, toDiagnosticDTO(d))
		}
	case req.Value != nil:
		level, err := classifier.Classify(*req.Value, cfg)
		if err != nil {
			return resp, fmt.Errorf("classify %s: %w", cfg.Name, err)
		}
		n := classifier.Normalize(*req.Value, cfg)
		resp.Level = level
		resp.Normalized = &n
	default:
		return ClassifyResponse{}, errMissingValue
	}
	return resp, nil
}

func isBadRequest(err error) bool {
	return errors.Is(err, errMissingConfig) || errors.Is(err, errInvalidConfig) || errors.Is(err, errMissingValue)
}
