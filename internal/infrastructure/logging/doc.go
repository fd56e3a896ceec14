// Package logging provides structured logging for IoT Connect Core.
//
// It wraps log/slog with JSON or text output, level filtering and default
// service/version fields.
//
// Configuration lives in the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log device passes, verification tokens, session tokens or broker
// passwords. Identifiers such as device keys go through Redact.
package logging
