package model

import "context"

// Writer defines a generic interface for emitting the final aggregation state.
type Writer interface {
	// Write takes the end-of-run snapshot and emits it to the writer's destination.
	Write(ctx context.Context, snapshot *Snapshot) error

	// Name identifies the writer in logs.
	Name() string
}
