// Package logger provides structured logging for cloudreq using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Loggers derived with WithContext pick up the
// outgoing request ID and the active OpenTelemetry trace/span IDs.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("request")
//	log.Debug("request sent", logger.Fields("method", "GET", "status", 200))
package logger
