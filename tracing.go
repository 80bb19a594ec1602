package main

import (
	"context"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// setupTracing configures the global OpenTelemetry SDK from the standard
// OTEL_* environment variables and returns its shutdown function.
func setupTracing() (func(), error) {
	return otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(ResourceLibrary),
		otelconfig.WithServiceVersion(ResourceVersion),
	)
}

// make sure it implements Sender
var _ Sender = (*TracingSender)(nil)

// TracingSender wraps another Sender and records a span around each Send,
// plus one each for Flush and Close.
type TracingSender struct {
	next   Sender
	topic  string
	tracer trace.Tracer
}

func NewTracingSender(next Sender, topic string) *TracingSender {
	return &TracingSender{
		next:   next,
		topic:  topic,
		tracer: otel.Tracer(ResourceLibrary, trace.WithInstrumentationVersion(ResourceVersion)),
	}
}

func (t *TracingSender) Send(ctx context.Context, key, value []byte) error {
	ctx, span := t.tracer.Start(ctx, "publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", t.topic),
		attribute.String("messaging.kafka.message.key", string(key)),
		attribute.Int("messaging.message.body.size", len(value)),
	)
	err := t.next.Send(ctx, key, value)
	recordErr(span, err)
	return err
}

func (t *TracingSender) Flush(ctx context.Context) error {
	ctx, span := t.tracer.Start(ctx, "flush")
	defer span.End()
	err := t.next.Flush(ctx)
	recordErr(span, err)
	return err
}

func (t *TracingSender) Close() error {
	_, span := t.tracer.Start(context.Background(), "close")
	defer span.End()
	err := t.next.Close()
	recordErr(span, err)
	return err
}

func recordErr(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
