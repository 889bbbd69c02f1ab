// Package batch is the command-line front end to the classifier: readings in,
// one alert level per accepted reading out.
package batch

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	name         string
	min, max     float64
	catalogPath  string
	sensorID     string
	strictConfig bool
}

// Run parses args, classifies the readings and returns the process exit code.
// Values come from args after the flags, or from stdin when there are none.
// Negative values on the command line need a "--" separator.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.name, "name", "sensor", "sensor name")
	fs.Float64Var(&o.min, "min", 0, "envelope minimum")
	fs.Float64Var(&o.max, "max", 100, "envelope maximum")
	fs.StringVar(&o.catalogPath, "config", "", "sensor catalog yaml")
	fs.StringVar(&o.sensorID, "sensor", "", "sensor id in the catalog (with -config)")
	fs.BoolVar(&o.strictConfig, "strict-config", false, "fail when max is not greater than min")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := log.New(stderr, "classify: ", 0)

	cfg, err := o.sensorConfig()
	if err != nil {
		logger.Print(err)
		return exitUsage
	}
	if o.strictConfig && !cfg.IsValid() {
		logger.Printf("invalid config %q: min %g must be below max %g", cfg.Name, cfg.MinValue, cfg.MaxValue)
		return exitError
	}

	sink := classifier.NewLogSink(logger)

	tokens := fs.Args()
	if len(tokens) == 0 {
		tokens, err = readTokens(stdin)
		if err != nil {
			logger.Printf("read stdin: %v", err)
			return exitError
		}
	}

	w := bufio.NewWriter(stdout)
	for _, lvl := range classifyTokens(tokens, cfg, sink) {
		fmt.Fprintln(w, lvl)
	}
	if err := w.Flush(); err != nil {
		logger.Printf("write: %v", err)
		return exitError
	}
	return exitOK
}

func (o options) sensorConfig() (model.SensorConfig, error) {
	if o.catalogPath == "" {
		return model.NewSensorConfig(o.name, o.min, o.max), nil
	}
	if o.sensorID == "" {
		return model.SensorConfig{}, errors.New("-config needs -sensor")
	}
	cat, err := config.LoadCatalog(o.catalogPath)
	if err != nil {
		return model.SensorConfig{}, err
	}
	s, err := cat.Lookup(o.sensorID)
	if err != nil {
		return model.SensorConfig{}, err
	}
	return s.Config, nil
}

// classifyTokens parses and classifies tokens. Every diagnostic, parse or
// range, carries the token's position in the input.
func classifyTokens(tokens []string, cfg model.SensorConfig, sink classifier.Sink) []model.AlertLevel {
	values := make([]float64, 0, len(tokens))
	positions := make([]int, 0, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			sink.Report(classifier.Diagnostic{Index: i, Err: fmt.Errorf("parse %q: %w", tok, errors.Unwrap(err))})
			continue
		}
		values = append(values, v)
		positions = append(positions, i)
	}
	return classifier.ClassifyBatch(values, cfg, classifier.SinkFunc(func(d classifier.Diagnostic) {
		d.Index = positions[d.Index]
		sink.Report(d)
	}))
}

func readTokens(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var tokens []string
	for sc.Scan() {
		tokens = append(tokens, sc.Text())
	}
	return tokens, sc.Err()
}
