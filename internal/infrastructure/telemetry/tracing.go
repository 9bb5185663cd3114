package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for business spans
const TracerName = "payroll-backend"

// Common span attribute keys for the contribution engine
const (
	AttrEmployeeID    = "payroll.employee_id"
	AttrPeriodID      = "payroll.period_id"
	AttrInsuranceType = "payroll.insurance_type"
	AttrBatchSize     = "payroll.batch_size"
	AttrChunkSize     = "payroll.chunk_size"
)

// StartSpan starts a new internal span with the given name. The caller is
// responsible for calling span.End().
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return tracer.Start(ctx, spanName, opts...)
}

// StartServiceSpan starts a span named service.operation for a service method.
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation), attrs...)
}

// RecordError records an error on the span and marks the span status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// String builds a string span attribute.
func String(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// Int builds an int span attribute.
func Int(key string, value int) attribute.KeyValue {
	return attribute.Int(key, value)
}
