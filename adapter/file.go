package adapter

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Stdout is the FileAdapter path that writes to standard output.
const Stdout = "-"

// FileAdapter writes straight through to a file or device node such as
// /dev/usb/lp0.
type FileAdapter struct {
	w      io.Writer
	closer io.Closer
	path   string
	done   bool
	mu     sync.Mutex
}

// NewFileAdapter opens path for writing, truncating regular files.
func NewFileAdapter(path string) (*FileAdapter, error) {
	if path == Stdout {
		return NewWriterAdapter(os.Stdout), nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &FileAdapter{w: f, closer: f, path: path}, nil
}

// NewWriterAdapter wraps w. Finalize does not close it.
func NewWriterAdapter(w io.Writer) *FileAdapter {
	return &FileAdapter{w: w, path: Stdout}
}

// Path returns the path the adapter was opened with.
func (a *FileAdapter) Path() string {
	return a.path
}

// Write sends data to the file
func (a *FileAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return 0, ErrFinalized
	}

	n, err := a.w.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// Read is not supported for files.
func (a *FileAdapter) Read(buf []byte) (int, error) {
	return 0, ErrNotSupported
}

// Finalize closes the file
func (a *FileAdapter) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return ErrFinalized
	}
	a.done = true

	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", a.path, err)
		}
	}
	return nil
}
