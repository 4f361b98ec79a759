// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// DeliveryIDKey is the context key for the inbound message delivery ID
	DeliveryIDKey contextKey = "delivery_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and delivery_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if deliveryID, ok := ctx.Value(DeliveryIDKey).(string); ok && deliveryID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("delivery_id", deliveryID))}
	}

	return newLogger
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// WorkflowTransition logs a ticket workflow state transition.
func (l *Logger) WorkflowTransition(ticketNumber, from, to, trigger, actor string) {
	l.Info("workflow_transition",
		slog.String("ticket", ticketNumber),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("trigger", trigger),
		slog.String("actor", actor),
	)
}

// NotificationFailure logs a failed notification delivery attempt.
func (l *Logger) NotificationFailure(channel, recipient string, err error) {
	l.Warn("notification_failure",
		slog.String("channel", channel),
		slog.String("recipient", recipient),
		slog.String("error", err.Error()),
	)
}

// ClassifierFallback logs that the external classifier failed and the
// deterministic keyword classifier was used instead.
func (l *Logger) ClassifierFallback(reason string) {
	l.Warn("classifier_fallback", slog.String("reason", reason))
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
