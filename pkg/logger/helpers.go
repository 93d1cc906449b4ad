package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs one HTTP exchange at a level derived from its status
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":   method,
		"url":      url,
		"status":   statusCode,
		"duration": duration,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogPagination records the outcome of one feed page
func LogPagination(l Logger, userID string, cursor int64, found int, next int64) {
	l.InfoWithFields("feed page processed", map[string]interface{}{
		"user_id":     userID,
		"cursor":      cursor,
		"urls_found":  found,
		"next_cursor": next,
	})
}

// LogDownload records the outcome of one media download
func LogDownload(l Logger, url, fileName string, success, skipped bool, err error) {
	entry := l.WithFields(map[string]interface{}{
		"url":     url,
		"file":    fileName,
		"success": success,
	})

	switch {
	case err != nil:
		entry.WithError(err).Error("download failed")
	case skipped:
		entry.Info("download skipped, file exists")
	case success:
		entry.Info("download completed")
	default:
		entry.Warn("download did not complete")
	}
}

// LogRetry records a transient failure that will be retried
func LogRetry(l Logger, operation string, attempt int, delay time.Duration, err error) {
	l.WithError(err).WarnWithFields("retrying after transient failure", map[string]interface{}{
		"operation": operation,
		"attempt":   attempt,
		"delay":     delay,
	})
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
