package statefulcontent

import "log/slog"

// NoopMetrics is a no-operation implementation of Metrics
type NoopMetrics struct{}

// NewNoopMetrics creates a new no-operation metrics sink
func NewNoopMetrics() Metrics {
	return &NoopMetrics{}
}

// FetchCompleted does nothing
func (n *NoopMetrics) FetchCompleted(mode APIMode, contentType string, err error) {}

// StateResolved does nothing
func (n *NoopMetrics) StateResolved(contentType string, state ResourceState) {}

// ResolutionSkipped does nothing
func (n *NoopMetrics) ResolutionSkipped(contentType string, err error) {}

// LoggingMetrics writes every outcome to a structured logger at debug level.
// Useful for development and debugging
type LoggingMetrics struct {
	logger *slog.Logger
}

// NewLoggingMetrics creates a metrics sink that logs
func NewLoggingMetrics(logger *slog.Logger) Metrics {
	return &LoggingMetrics{logger: logger}
}

// FetchCompleted logs the fetch outcome
func (l *LoggingMetrics) FetchCompleted(mode APIMode, contentType string, err error) {
	if err != nil {
		l.logger.Debug("fetch failed", "mode", mode, "content_type", contentType, "err", err)
		return
	}
	l.logger.Debug("fetch completed", "mode", mode, "content_type", contentType)
}

// StateResolved logs the resolved state
func (l *LoggingMetrics) StateResolved(contentType string, state ResourceState) {
	l.logger.Debug("state resolved", "content_type", contentType, "state", state)
}

// ResolutionSkipped logs the skipped resolution
func (l *LoggingMetrics) ResolutionSkipped(contentType string, err error) {
	l.logger.Debug("state resolution skipped", "content_type", contentType, "err", err)
}
