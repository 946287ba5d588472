// Package metrics counts thumbnail requests and their outcomes.
package metrics

import (
	"context"
	"os"
)

const envEnabled = "OTEL_ENABLED"

// FromEnv returns an OpenTelemetry recorder when OTEL_ENABLED is "true", otherwise a Noop
func FromEnv(ctx context.Context) (Recorder, error) {
	if os.Getenv(envEnabled) != "true" {
		return NewNoop(), nil
	}
	return NewOtel(ctx)
}
