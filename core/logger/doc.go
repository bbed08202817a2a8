// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production).
//
// # Document Awareness
//
// Sync runs touch many documents in one pass. The WithDocument helper attaches
// the document name to the log entry, ensuring that all logs related to a
// specific document can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
//
//	// While reconciling one document:
//	l := logger.WithDocument(log, "draft-ietf-foo-bar")
//	l.Warn("unknown state")
package logger
