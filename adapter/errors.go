package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrFinalized is returned by Write, Finalize and Discard once an adapter has been finalized.
	ErrFinalized = errors.New("adapter already finalized")

	// ErrNotSupported is returned by Read on write-only adapters.
	ErrNotSupported = errors.New("operation not supported by this adapter")

	// ErrUnsupportedPlatform matches any *PlatformError.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInvalidPrinterName is returned when a destination name fails the name pattern.
	ErrInvalidPrinterName = errors.New("invalid printer name")

	// ErrDeviceNotFound matches any *DeviceNotFoundError.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrUnexpectedResponse matches any *UnexpectedResponseError.
	ErrUnexpectedResponse = errors.New("unexpected response from agent")
)

// PlatformError reports an adapter constructed on a host it cannot run on.
type PlatformError struct {
	Adapter  string
	Platform string
	Required string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s adapter can only be used on %s, not %s", e.Adapter, e.Required, e.Platform)
}

func (e *PlatformError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// DeviceNotFoundError reports a destination missing from the discovered devices.
type DeviceNotFoundError struct {
	Name string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("printer %q is not found in the list of devices", e.Name)
}

func (e *DeviceNotFoundError) Is(target error) bool {
	return target == ErrDeviceNotFound
}

// AgentError reports an agent that could not be started or exited non-zero.
type AgentError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *AgentError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("command %q failed to run: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %q failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError reports agent output that is not a status envelope.
type UnexpectedResponseError struct {
	Output string
	Err    error
}

func (e *UnexpectedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from agent: %v: %s", e.Err, e.Output)
	}
	return fmt.Sprintf("unexpected response from agent: %s", e.Output)
}

func (e *UnexpectedResponseError) Is(target error) bool {
	return target == ErrUnexpectedResponse
}

func (e *UnexpectedResponseError) Unwrap() error {
	return e.Err
}

// AgentStatusError carries a well-formed failure envelope. Its message is the
// agent's own.
type AgentStatusError struct {
	Status  string
	Message string
}

func (e *AgentStatusError) Error() string {
	return e.Message
}
