package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"runtime"
)

// BluetoothPlatform is the only host the Bluetooth agent runs on.
const BluetoothPlatform = "windows"

// printerNamePattern allows word characters and hyphens, with single spaces
// between words.
var printerNamePattern = regexp.MustCompile(`^[\w-]+( [\w-]+)*$`)

// BluetoothOptions configures a BluetoothAdapter.
type BluetoothOptions struct {
	// Agent performs discovery and job dispatch. Defaults to a ProcessAgent
	// running DefaultAgentPath.
	Agent Agent
	// Platform overrides runtime.GOOS.
	Platform string
	Logger   *log.Logger
}

// BluetoothAdapter buffers everything written to it and hands the whole job
// to the Bluetooth agent on Finalize. It is not safe for concurrent use.
type BluetoothAdapter struct {
	name        string
	agent       Agent
	devices     []Device
	buffer      [][]byte
	lastMessage string
	logger      *log.Logger
}

// NewBluetoothAdapter validates name, discovers devices through the agent and
// checks that name is among them. The platform check happens before any
// agent call.
func NewBluetoothAdapter(ctx context.Context, name string, opts BluetoothOptions) (*BluetoothAdapter, error) {
	platform := opts.Platform
	if platform == "" {
		platform = runtime.GOOS
	}
	if platform != BluetoothPlatform {
		return nil, &PlatformError{Adapter: "Bluetooth", Platform: platform, Required: BluetoothPlatform}
	}
	if !printerNamePattern.MatchString(name) {
		return nil, fmt.Errorf("printer %q is not a valid printer name: %w", name, ErrInvalidPrinterName)
	}

	agent := opts.Agent
	if agent == nil {
		agent = NewProcessAgent(DefaultAgentPath)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[BLUETOOTH] ", log.LstdFlags|log.Lmsgprefix)
	}

	devices, err := agent.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Bluetooth devices: %w", err)
	}

	a := &BluetoothAdapter{
		name:    name,
		agent:   agent,
		devices: devices,
		logger:  logger,
	}
	if _, ok := a.lookup(name); !ok {
		return nil, &DeviceNotFoundError{Name: name}
	}
	a.buffer = [][]byte{}

	return a, nil
}

// Name returns the destination printer name.
func (a *BluetoothAdapter) Name() string {
	return a.name
}

// Devices returns the devices discovered at construction.
func (a *BluetoothAdapter) Devices() []Device {
	return append([]Device(nil), a.devices...)
}

// LastMessage returns the agent's message from a successful Finalize.
func (a *BluetoothAdapter) LastMessage() string {
	return a.lastMessage
}

// Pending reports whether the adapter is still buffering, i.e. neither
// finalized nor discarded.
func (a *BluetoothAdapter) Pending() bool {
	return a.buffer != nil
}

// Write queues a copy of data. No I/O happens until Finalize.
func (a *BluetoothAdapter) Write(data []byte) (int, error) {
	if a.buffer == nil {
		return 0, ErrFinalized
	}
	a.buffer = append(a.buffer, append([]byte(nil), data...))
	return len(data), nil
}

// Read is not supported; the agent offers no return channel.
func (a *BluetoothAdapter) Read(buf []byte) (int, error) {
	return 0, ErrNotSupported
}

// Finalize sends the buffered job. The buffer is consumed before the agent is
// called, so a failed or repeated Finalize never resends data.
func (a *BluetoothAdapter) Finalize() error {
	return a.FinalizeContext(context.Background())
}

// FinalizeContext is Finalize with a context bounding the agent call.
func (a *BluetoothAdapter) FinalizeContext(ctx context.Context) error {
	if a.buffer == nil {
		return ErrFinalized
	}
	payload := bytes.Join(a.buffer, nil)
	a.buffer = nil

	msg, err := a.agent.DispatchJob(ctx, a.name, payload)
	if err != nil {
		return fmt.Errorf("failed to print to %q: %w", a.name, err)
	}
	a.lastMessage = msg
	a.logger.Printf("Sent %d bytes to %s: %s", len(payload), a.name, msg)
	return nil
}

// Discard drops the buffered job without sending it. Use logs the warning.
func (a *BluetoothAdapter) Discard() int {
	if a.buffer == nil {
		return 0
	}
	n := 0
	for _, chunk := range a.buffer {
		n += len(chunk)
	}
	a.buffer = nil
	return n
}

func (a *BluetoothAdapter) lookup(name string) (Device, bool) {
	for _, d := range a.devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
