package adapter

import (
	"errors"
	"fmt"
	"log"
)

// Adapter defines the interface for printer communication adapters
type Adapter interface {
	// Write sends or queues data for the printer
	Write(data []byte) (int, error)

	// Read reads data from the printer. Write-only adapters return ErrNotSupported.
	Read(buf []byte) (int, error)

	// Finalize delivers any pending data and ends the adapter's lifecycle.
	// Writes after Finalize fail with ErrFinalized.
	Finalize() error
}

// Discarder is implemented by adapters that hold data until Finalize and can
// drop it without sending.
type Discarder interface {
	// Discard drops pending data and returns how many bytes were dropped.
	Discard() int
}

// Use runs fn with a and guarantees a is finalized or discarded afterwards.
// When fn succeeds a is finalized. When fn fails, pending data is discarded
// rather than sent, and a warning naming the unsent byte count is logged.
func Use(a Adapter, logger *log.Logger, fn func(Adapter) error) error {
	if err := fn(a); err != nil {
		if d, ok := a.(Discarder); ok {
			if n := d.Discard(); n > 0 && logger != nil {
				logger.Printf("Warning: adapter discarded %d unsent bytes: %v", n, err)
			}
		} else if ferr := a.Finalize(); ferr != nil && !errors.Is(ferr, ErrFinalized) && logger != nil {
			logger.Printf("Warning: failed to finalize adapter: %v", ferr)
		}
		return err
	}

	if err := a.Finalize(); err != nil && !errors.Is(err, ErrFinalized) {
		return fmt.Errorf("failed to finalize adapter: %w", err)
	}
	return nil
}
