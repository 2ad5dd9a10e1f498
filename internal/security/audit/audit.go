package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger writes structured audit records for lending operations
type Logger struct {
	logger *slog.Logger
}

// NewLogger wraps a slog logger for audit output
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogAction records one auditable action
func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		if s, ok := reqID.(string); ok {
			requestID = s
		}
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

// LogIssue records a loan issue attempt
func (al *Logger) LogIssue(ctx context.Context, userID, copyID, status string) {
	al.LogAction(ctx, userID, "issue", "loan", copyID, status)
}

// LogReturn records a loan return attempt
func (al *Logger) LogReturn(ctx context.Context, userID, loanID, status string) {
	al.LogAction(ctx, userID, "return", "loan", loanID, status)
}

// LogReserve records a reservation attempt
func (al *Logger) LogReserve(ctx context.Context, userID, bookID, status string) {
	al.LogAction(ctx, userID, "reserve", "reservation", bookID, status)
}

// LogCancel records a reservation cancel attempt
func (al *Logger) LogCancel(ctx context.Context, userID, reservationID, status string) {
	al.LogAction(ctx, userID, "cancel", "reservation", reservationID, status)
}
