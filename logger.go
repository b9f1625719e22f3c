package plugboard

// Logger defines the interface for framework logging. The framework uses
// structured logging with key-value pairs so implementing applications can
// control how its diagnostics appear.
//
// The variadic arguments are key-value pairs:
//
//	logger.Warn("Event type not registered", "type", "scrollEnd", "op", "on")
//
// This shape is compatible with popular structured logging libraries;
// *slog.Logger satisfies it directly.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs. The
	// buses use it for the non-fatal diagnostics on undeclared event
	// types.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, args ...any)
}
