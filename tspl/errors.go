package tspl

import "errors"

var (
	// ErrNotAttached is returned by Buffer operations while no printer owns the buffer.
	ErrNotAttached = errors.New("buffer is not attached to a printer")

	// ErrAlreadyAttached is returned when a buffer owned by one printer is handed to another.
	ErrAlreadyAttached = errors.New("buffer is already attached to a printer")

	// ErrPrinterClosed is returned by every operation after Close or an auto-closing Print.
	ErrPrinterClosed = errors.New("printer is closed")
)
