package adapter

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// DefaultBaud is the rate most thermal label printers ship with.
const DefaultBaud = 9600

// SerialAdapter streams data to a printer on a serial port.
type SerialAdapter struct {
	port *serial.Port
	name string
	done bool
	mu   sync.Mutex
}

// NewSerialAdapter opens the serial port device at the given baud rate.
func NewSerialAdapter(device string, baud int) (*SerialAdapter, error) {
	if baud == 0 {
		baud = DefaultBaud
	}

	config := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}

	port, err := serial.OpenPort(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return &SerialAdapter{port: port, name: device}, nil
}

// Write sends data to the serial printer
func (a *SerialAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return 0, ErrFinalized
	}

	n, err := a.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// Read reads status bytes from the serial printer
func (a *SerialAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return 0, ErrFinalized
	}

	n, err := a.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read failed: %w", err)
	}
	return n, nil
}

// Finalize closes the serial port
func (a *SerialAdapter) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return ErrFinalized
	}
	a.done = true

	if err := a.port.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", a.name, err)
	}
	return nil
}
