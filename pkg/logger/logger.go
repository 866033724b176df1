package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	// Get log level from environment
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	// Create logger
	logger := slog.New(handler)

	return &Logger{
		Logger: logger,
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithSessionID adds browsing session ID to logger context
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("session_id", sessionID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Database logging methods

// LogDBQuery logs a database query
func (l *Logger) LogDBQuery(ctx context.Context, query string, duration time.Duration, err error) {
	if err != nil {
		l.Logger.ErrorContext(ctx,
			"Database Query Error",
			slog.String("query", query),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
	} else {
		l.Logger.DebugContext(ctx,
			"Database Query",
			slog.String("query", query),
			slog.Duration("duration", duration),
		)
	}
}

// Hold lifecycle logging methods

// LogHoldCreated logs when a hold is placed on seats
func (l *Logger) LogHoldCreated(ctx context.Context, holdID, ownerID string, seatCount int, expiresAt time.Time) {
	l.Logger.InfoContext(ctx,
		"Hold Created",
		slog.String("hold_id", holdID),
		slog.String("owner_id", ownerID),
		slog.Int("seat_count", seatCount),
		slog.Time("expires_at", expiresAt),
	)
}

// LogHoldExtended logs when a hold deadline is pushed out
func (l *Logger) LogHoldExtended(ctx context.Context, holdID string, expiresAt time.Time) {
	l.Logger.InfoContext(ctx,
		"Hold Extended",
		slog.String("hold_id", holdID),
		slog.Time("expires_at", expiresAt),
	)
}

// LogHoldReleased logs when a hold is released
func (l *Logger) LogHoldReleased(ctx context.Context, holdID, reason string) {
	l.Logger.InfoContext(ctx,
		"Hold Released",
		slog.String("hold_id", holdID),
		slog.String("reason", reason),
	)
}

// LogHoldExpired logs when the sweep or a lazy check expires a hold
func (l *Logger) LogHoldExpired(ctx context.Context, holdID string, seatCount int) {
	l.Logger.InfoContext(ctx,
		"Hold Expired",
		slog.String("hold_id", holdID),
		slog.Int("seat_count", seatCount),
	)
}

// LogHoldCommitted logs when a hold is converted into a sale
func (l *Logger) LogHoldCommitted(ctx context.Context, holdID, orderID string, seatCount int) {
	l.Logger.InfoContext(ctx,
		"Hold Committed",
		slog.String("hold_id", holdID),
		slog.String("order_id", orderID),
		slog.Int("seat_count", seatCount),
	)
}

// LogSeatConflict logs a failed atomic acquire
func (l *Logger) LogSeatConflict(ctx context.Context, seatID, ownerID string) {
	l.Logger.DebugContext(ctx,
		"Seat Acquire Conflict",
		slog.String("seat_id", seatID),
		slog.String("owner_id", ownerID),
	)
}

// LogSweepCompleted logs one pass of the expiration sweep
func (l *Logger) LogSweepCompleted(ctx context.Context, expired int, duration time.Duration) {
	if expired > 0 {
		l.Logger.InfoContext(ctx,
			"Expiration Sweep Completed",
			slog.Int("expired_holds", expired),
			slog.Duration("duration", duration),
		)
	} else {
		l.Logger.DebugContext(ctx,
			"Expiration Sweep Completed",
			slog.Int("expired_holds", expired),
			slog.Duration("duration", duration),
		)
	}
}

// Session logging methods

// LogSessionStarted logs when a browsing session is opened
func (l *Logger) LogSessionStarted(ctx context.Context, sessionID, chartID string) {
	l.Logger.InfoContext(ctx,
		"Session Started",
		slog.String("session_id", sessionID),
		slog.String("chart_id", chartID),
	)
}

// LogSessionEvicted logs when an idle session is dropped
func (l *Logger) LogSessionEvicted(ctx context.Context, sessionID string, idle time.Duration) {
	l.Logger.InfoContext(ctx,
		"Session Evicted",
		slog.String("session_id", sessionID),
		slog.Duration("idle", idle),
	)
}

// Security logging methods

// LogAuthFailure logs a rejected session token
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.DebugContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
