package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// BatchRunIDKey is the context key for a contribution batch run ID
	BatchRunIDKey contextKey = "batch_run_id"
	// EmployeeIDKey is the context key for the employee being processed
	EmployeeIDKey contextKey = "employee_id"
	// PeriodIDKey is the context key for the payroll period
	PeriodIDKey contextKey = "period_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns an enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithBatchRunID adds a batch run ID to context and returns an enriched logger
func WithBatchRunID(ctx context.Context, logger *zap.Logger, runID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, BatchRunIDKey, runID)
	enriched := logger.With(zap.String("batch_run_id", runID))
	return WithContext(ctx, enriched), enriched
}

// WithEmployeeID adds the employee being processed to context and returns an
// enriched logger
func WithEmployeeID(ctx context.Context, logger *zap.Logger, employeeID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, EmployeeIDKey, employeeID)
	enriched := logger.With(zap.String("employee_id", employeeID))
	return WithContext(ctx, enriched), enriched
}

// WithPeriodID adds the payroll period to context and returns an enriched
// logger
func WithPeriodID(ctx context.Context, logger *zap.Logger, periodID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, PeriodIDKey, periodID)
	enriched := logger.With(zap.String("period_id", periodID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetBatchRunID retrieves the batch run ID from context
func GetBatchRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(BatchRunIDKey).(string); ok {
		return runID
	}
	return ""
}

// GetEmployeeID retrieves the employee ID from context
func GetEmployeeID(ctx context.Context) string {
	if employeeID, ok := ctx.Value(EmployeeIDKey).(string); ok {
		return employeeID
	}
	return ""
}

// GetPeriodID retrieves the period ID from context
func GetPeriodID(ctx context.Context) string {
	if periodID, ok := ctx.Value(PeriodIDKey).(string); ok {
		return periodID
	}
	return ""
}
