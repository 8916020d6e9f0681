package logger

import (
	"time"
)

// OperationLogger logs the lifecycle of one long-running operation, such as
// a single CSV ingestion run. Every line it writes carries the operation name,
// the fields attached so far and, on completion, the elapsed duration.
type OperationLogger struct {
	logger    Logger
	operation string
	fields    Fields
	startTime time.Time
}

// NewOperationLogger creates a new operation logger and logs its start
func NewOperationLogger(operation string, logger Logger, fields Fields) *OperationLogger {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	ol := &OperationLogger{
		logger:    logger,
		operation: operation,
		fields:    Fields{"operation": operation},
		startTime: time.Now(),
	}
	for k, v := range fields {
		ol.fields[k] = v
	}

	ol.logger.WithFields(ol.fields).Info("Starting operation")
	return ol
}

// Step logs a step within the operation at debug level
func (ol *OperationLogger) Step(message string, fields Fields) {
	ol.logger.WithFields(ol.merge(fields)).Debug(message)
}

// Warning logs a recoverable problem during the operation
func (ol *OperationLogger) Warning(err error, message string) {
	ol.logger.WithError(err).WithFields(ol.merge(nil)).Warn(message)
}

// Success completes the operation successfully
func (ol *OperationLogger) Success(message string, fields Fields) {
	merged := ol.merge(fields)
	merged["duration"] = time.Since(ol.startTime).String()
	merged["status"] = "success"
	ol.logger.WithFields(merged).Info(message)
}

// Failure completes the operation with an error
func (ol *OperationLogger) Failure(err error, message string, fields Fields) {
	merged := ol.merge(fields)
	merged["duration"] = time.Since(ol.startTime).String()
	merged["status"] = "error"
	ol.logger.WithError(err).WithFields(merged).Error(message)
}

// Elapsed returns the time since the operation started
func (ol *OperationLogger) Elapsed() time.Duration {
	return time.Since(ol.startTime)
}

func (ol *OperationLogger) merge(fields Fields) Fields {
	merged := make(Fields, len(ol.fields)+len(fields))
	for k, v := range ol.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}
