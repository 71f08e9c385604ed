package support

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

func ConsoleExporter() (trace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// OTLPExporter ships spans over gRPC. Honeycomb, for example, wants endpoint
// api.honeycomb.io:443 with the x-honeycomb-team header.
func OTLPExporter(ctx context.Context, endpoint string, headers map[string]string, insecure bool) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithHeaders(headers),
	}

	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	client := otlptracegrpc.NewClient(opts...)
	return otlptrace.New(ctx, client)
}

func JaegerExporter(endpoint string) (*jaeger.Exporter, error) {
	return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
}

// Tracing installs the global tracer provider for the exporter named by
// cfg.Tracing. With "none" the otel no-op provider is left in place.
func Tracing(ctx context.Context, cfg Config) (func(), error) {
	var (
		exporter trace.SpanExporter
		err      error
	)

	switch cfg.Tracing {
	case "none", "":
		return func() {}, nil
	case "stdout":
		exporter, err = ConsoleExporter()
	case "otlp":
		exporter, err = OTLPExporter(ctx, cfg.OTLPEndpoint, cfg.OTLPHeaders, cfg.OTLPInsecure)
	case "jaeger":
		exporter, err = JaegerExporter(cfg.JaegerEndpoint)
	default:
		return nil, errors.Errorf("unknown tracing exporter %q", cfg.Tracing)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s exporter", cfg.Tracing)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)
	otel.SetTracerProvider(provider)

	return func() {
		_ = provider.Shutdown(context.Background())
	}, nil
}
