package commands

import "go.uber.org/zap"

// Command is a write request handed to a service. Validate normalizes the
// command in place, so implementations use pointer receivers for it.
type Command interface {
	CommandType() string
	Validate() error
	// IdempotencyKey is empty when the caller supplied none.
	IdempotencyKey() string
}

// LogFields describes cmd for structured logs.
func LogFields(cmd Command) []zap.Field {
	fields := []zap.Field{zap.String("command", cmd.CommandType())}
	if key := cmd.IdempotencyKey(); key != "" {
		fields = append(fields, zap.String("idempotency_key", key))
	}
	return fields
}
