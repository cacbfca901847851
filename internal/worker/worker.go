package worker

import (
	"context"
)

// Worker is the contract every background job implements.
type Worker interface {
	// Start runs the worker loop until the context ends or Stop is called.
	Start(ctx context.Context) error

	// Stop signals the worker to finish.
	Stop() error

	// Name identifies the worker in logs.
	Name() string
}
