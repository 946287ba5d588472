package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	envCollectorEndpoint = "OTEL_COLLECTOR_GRPC_ENDPOINT"
	exportInterval       = 3 * time.Second
	meterName            = "qlthumb"
)

// Otel records counters through an OTLP/gRPC metric exporter
type Otel struct {
	counters      map[Name]metric.Int64Counter
	shutdownFuncs []func(ctx context.Context) error
}

// NewOtel connects to the collector named by OTEL_COLLECTOR_GRPC_ENDPOINT and registers the counters
func NewOtel(ctx context.Context) (*Otel, error) {
	provider, err := newMeterProvider(ctx)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(provider)

	counters, err := newCounters(provider.Meter(meterName))
	if err != nil {
		return nil, err
	}

	return &Otel{
		counters:      counters,
		shutdownFuncs: []func(ctx context.Context) error{provider.Shutdown},
	}, nil
}

func newCounters(meter metric.Meter) (map[Name]metric.Int64Counter, error) {
	descriptions := map[Name]struct {
		desc string
		unit string
	}{
		RequestReceived: {"Number of received thumbnail requests", "{request}"},
		Created:         {"Number of created thumbnails", "{thumbnail}"},
		Failed:          {"Number of failed thumbnail requests", "{request}"},
	}

	counters := make(map[Name]metric.Int64Counter, len(descriptions))
	for name, d := range descriptions {
		counter, err := meter.Int64Counter(
			string(name),
			metric.WithDescription(d.desc),
			metric.WithUnit(d.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("register counter %s: %w", name, err)
		}
		counters[name] = counter
	}
	return counters, nil
}

func (o *Otel) Increment(ctx context.Context, name Name, attrs map[string]string) {
	counter, ok := o.counters[name]
	if !ok {
		log.WithField("metric.name", name).Warn("unknown metric name")
		return
	}

	kvAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		kvAttrs = append(kvAttrs, attribute.String(key, value))
	}
	counter.Add(ctx, 1, metric.WithAttributeSet(attribute.NewSet(kvAttrs...)))
}

func (o *Otel) Shutdown(ctx context.Context) error {
	for _, shutdown := range o.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown metrics: %w", err)
		}
	}
	log.Debug("metrics shut down")
	return nil
}

func newMeterProvider(ctx context.Context) (*sdkmetric.MeterProvider, error) {
	conn, err := grpc.NewClient(
		os.Getenv(envCollectorEndpoint),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("create gRPC connection to collector: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(meterName)))
	if err != nil {
		return nil, fmt.Errorf("create OpenTelemetry resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	), nil
}
