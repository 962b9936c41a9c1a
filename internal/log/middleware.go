package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware stores logger in the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds the request id to the context logger.
func RequestIDMiddleware(extractRequestID func(context.Context) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r.Context()))
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger emits domain events with a uniform field set.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) log(ctx context.Context) *Logger {
	if sl == nil || sl.logger == nil {
		return FromContext(ctx)
	}
	return sl.logger
}

// LogUserRegistered logs a new account.
func (sl *StructuredLogger) LogUserRegistered(ctx context.Context, userID int64, username string, seeded int) {
	fields := NewFields().
		WithUser(userID).
		WithOperation(OpCreate).
		WithComponent(ComponentAuth).
		ToSlice()
	fields = append(fields, FieldUsername, username, "seeded_categories", seeded)
	sl.log(ctx).Logger.InfoContext(ctx, "User registered", fields...)
}

// LogTransactionSaved logs a created or updated transaction.
func (sl *StructuredLogger) LogTransactionSaved(ctx context.Context, op string, userID, id int64, kind string, amountCents int64, date string) {
	fields := NewFields().
		WithUser(userID).
		WithTransaction(id, kind, amountCents, date).
		WithOperation(op).
		WithComponent(ComponentTransaction)
	sl.log(ctx).Logger.InfoContext(ctx, "Transaction saved", fields.ToSlice()...)
}

// LogTransactionDeleted logs a removed transaction.
func (sl *StructuredLogger) LogTransactionDeleted(ctx context.Context, userID, id int64) {
	fields := NewFields().
		WithUser(userID).
		WithOperation(OpDelete).
		WithComponent(ComponentTransaction)
	fields[FieldTransactionID] = id
	sl.log(ctx).Logger.InfoContext(ctx, "Transaction deleted", fields.ToSlice()...)
}

// LogBudgetSaved logs a created or updated budget.
func (sl *StructuredLogger) LogBudgetSaved(ctx context.Context, op string, userID, id, categoryID int64, month string) {
	fields := NewFields().
		WithUser(userID).
		WithOperation(op).
		WithComponent(ComponentBudget)
	fields[FieldBudgetID] = id
	fields[FieldCategoryID] = categoryID
	fields[FieldMonth] = month
	sl.log(ctx).Logger.InfoContext(ctx, "Budget saved", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)
	sl.log(ctx).Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
