package app

import (
	"log"
	"time"
)

type Config struct {
	PersistenceBaseURL string
	AlertsBaseURL      string
	PersistencePath    string
	AlertsPath         string
	HTTPTimeout        time.Duration

	BreakerFailures uint32
	BreakerOpenFor  time.Duration

	Logger *log.Logger
}

// Gateway aggregates the persistence and alert services into one dashboard view.
type Gateway struct {
	cfg         Config
	persistence *Upstream
	alerts      *Upstream
}

func NewGateway(cfg Config) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 3 * time.Second
	}
	if cfg.PersistencePath == "" {
		cfg.PersistencePath = "/averages/latest"
	}
	if cfg.AlertsPath == "" {
		cfg.AlertsPath = "/alerts/latest"
	}

	// one breaker per upstream
	p := NewUpstream("persistence", cfg.PersistenceBaseURL, cfg.PersistencePath, cfg.HTTPTimeout,
		newBreaker("persistence", cfg.BreakerFailures, cfg.BreakerOpenFor, cfg.Logger))
	a := NewUpstream("alerts", cfg.AlertsBaseURL, cfg.AlertsPath, cfg.HTTPTimeout,
		newBreaker("alerts", cfg.BreakerFailures, cfg.BreakerOpenFor, cfg.Logger))

	return &Gateway{cfg: cfg, persistence: p, alerts: a}
}
