package adapter

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// DefaultNetworkPort is the raw printing port used by most label printers.
const DefaultNetworkPort = 9100

// NetworkAdapter streams data to a printer over TCP.
type NetworkAdapter struct {
	conn net.Conn
	done bool
	mu   sync.Mutex
}

// NewNetworkAdapter dials address. A bare host gets DefaultNetworkPort.
func NewNetworkAdapter(address string, timeout time.Duration) (*NetworkAdapter, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, strconv.Itoa(DefaultNetworkPort))
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}
	return &NetworkAdapter{conn: conn}, nil
}

// Write sends data to the network printer
func (a *NetworkAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return 0, ErrFinalized
	}

	n, err := a.conn.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// Read reads the printer's reply, if it sends one. The lock is not held
// while waiting, so Finalize can close the connection and unblock it.
func (a *NetworkAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return 0, ErrFinalized
	}
	conn := a.conn
	a.mu.Unlock()

	n, err := conn.Read(buf)
	if errors.Is(err, net.ErrClosed) {
		return n, ErrFinalized
	}
	if err != nil {
		return n, fmt.Errorf("read failed: %w", err)
	}
	return n, nil
}

// Finalize closes the connection
func (a *NetworkAdapter) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return ErrFinalized
	}
	a.done = true
	return a.conn.Close()
}
