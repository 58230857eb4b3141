// Package logger configures structured logging for redikv.
//
//   - logger.go: handler construction and the runtime-adjustable level
//   - context.go: per-connection logger propagation
//   - redact.go: truncation of user data and masking of secrets
//
// All components log through log/slog; New builds the handler and
// SetDefault installs it process-wide.
package logger
