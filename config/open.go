package config

import (
	"context"
	"fmt"
	"log"

	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
)

// NewAgent returns the Bluetooth agent described by the agent.* settings.
func (c *Config) NewAgent() *adapter.ProcessAgent {
	agent := adapter.NewProcessAgent(c.Agent.Path)
	agent.Timeout = c.Agent.Timeout
	agent.TempDir = c.Agent.TempDir
	return agent
}

// Open creates a ready-to-write adapter for the configured transport. Each
// call returns a new adapter that the caller must finalize.
func (c *Config) Open(ctx context.Context, logger *log.Logger) (adapter.Adapter, error) {
	var (
		a   adapter.Adapter
		err error
	)
	switch c.Transport {
	case TransportBluetooth:
		a, err = wrap(adapter.NewBluetoothAdapter(ctx, c.Device, adapter.BluetoothOptions{
			Agent:  c.NewAgent(),
			Logger: logger,
		}))
	case TransportFile:
		a, err = wrap(adapter.NewFileAdapter(c.Device))
	case TransportNetwork:
		a, err = wrap(adapter.NewNetworkAdapter(c.Address, c.DialTimeout))
	case TransportSerial:
		a, err = wrap(adapter.NewSerialAdapter(c.Device, c.Baud))
	case TransportUSB:
		a, err = c.openUSB()
	default:
		err = fmt.Errorf("unknown transport %q", c.Transport)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (c *Config) openUSB() (adapter.Adapter, error) {
	var (
		usb *adapter.USBAdapter
		err error
	)
	if c.USB.VID != 0 || c.USB.PID != 0 {
		usb, err = adapter.NewUSBAdapter(c.USB.VID, c.USB.PID)
	} else {
		usb, err = adapter.NewUSBAdapterAuto()
	}
	if err != nil {
		return nil, err
	}
	if err := usb.Open(); err != nil {
		usb.Finalize()
		return nil, fmt.Errorf("failed to open USB printer: %w", err)
	}
	return usb, nil
}

// wrap drops the typed nil a failed constructor returns.
func wrap[T adapter.Adapter](a T, err error) (adapter.Adapter, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Opener binds Open to ctx and logger for callers that open one adapter per job.
func (c *Config) Opener(ctx context.Context, logger *log.Logger) func() (adapter.Adapter, error) {
	return func() (adapter.Adapter, error) {
		return c.Open(ctx, logger)
	}
}
