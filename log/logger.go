package log

import "context"

// Logger is the structured logger handed to the services of the registry.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]any)
	Info(ctx context.Context, msg string, fields ...map[string]any)
	Warn(ctx context.Context, msg string, fields ...map[string]any)
	Error(ctx context.Context, msg string, err error, fields ...map[string]any)
	Fatal(ctx context.Context, msg string, err error, fields ...map[string]any) // exits the process
	With(fields map[string]any) Logger
}
