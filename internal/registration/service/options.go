package service

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"regdesk/internal/registration/metrics"
)

// DefaultConfirmationPath is where the browser navigates after acceptance.
const DefaultConfirmationPath = "confirmation.html"

type serviceConfig struct {
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	confirmationPath string
}

// Option configures a Service.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = tracer
	}
}

// WithConfirmationPath overrides the redirect target returned on acceptance.
func WithConfirmationPath(path string) Option {
	return func(c *serviceConfig) {
		if path != "" {
			c.confirmationPath = path
		}
	}
}
