// Package config loads printer and listener settings from an optional config
// file and TSPL_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
	"github.com/nixxel-company-limited/tspl-label-printer/tspl"
	"github.com/spf13/viper"
)

// Transports
const (
	TransportBluetooth = "bluetooth"
	TransportFile      = "file"
	TransportNetwork   = "network"
	TransportSerial    = "serial"
	TransportUSB       = "usb"
)

// EnvPrefix is prepended to every environment key, e.g. TSPL_SERVER_ADDRESS.
const EnvPrefix = "TSPL"

type Agent struct {
	Path    string
	Timeout time.Duration
	TempDir string
}

type USB struct {
	VID uint16
	PID uint16
}

// Config holds everything needed to open a transport and run the listeners.
type Config struct {
	Transport string
	// Device is the Bluetooth printer name, file path or serial port.
	Device string
	// Address is the network printer host[:port].
	Address       string
	Baud          int
	DialTimeout   time.Duration
	USB           USB
	Agent         Agent
	Label         tspl.Configuration
	ServerAddress string
	APIAddress    string
}

func setDefaults(v *viper.Viper) {
	label := tspl.DefaultConfiguration()

	v.SetDefault("transport", TransportUSB)
	v.SetDefault("device", "")
	v.SetDefault("address", "")
	v.SetDefault("baud", adapter.DefaultBaud)
	v.SetDefault("dial_timeout", "5s")
	v.SetDefault("usb.vid", 0)
	v.SetDefault("usb.pid", 0)
	v.SetDefault("agent.path", adapter.DefaultAgentPath)
	v.SetDefault("agent.timeout", "0s")
	v.SetDefault("agent.tempdir", "")
	v.SetDefault("label.unit", label.Unit.String())
	v.SetDefault("label.width", label.Width)
	v.SetDefault("label.height", label.Height)
	v.SetDefault("label.explicit_height", label.ExplicitHeight)
	v.SetDefault("label.gap_distance", label.GapDistance)
	v.SetDefault("label.gap_offset", label.GapOffset)
	v.SetDefault("label.speed", label.Speed)
	v.SetDefault("label.direction", label.Direction)
	v.SetDefault("label.reference_x", label.ReferenceX)
	v.SetDefault("label.reference_y", label.ReferenceY)
	v.SetDefault("server.address", "localhost:9100")
	v.SetDefault("api.address", "localhost:8080")
}

// New returns a viper instance with defaults and environment binding but no
// config file.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path when it is not empty and returns the decoded settings.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	unit, err := tspl.ParseUnit(v.GetString("label.unit"))
	if err != nil {
		return nil, fmt.Errorf("invalid label.unit: %w", err)
	}
	cfg := &Config{
		Transport:   strings.ToLower(v.GetString("transport")),
		Device:      v.GetString("device"),
		Address:     v.GetString("address"),
		Baud:        v.GetInt("baud"),
		DialTimeout: v.GetDuration("dial_timeout"),
		USB: USB{
			VID: uint16(v.GetUint("usb.vid")),
			PID: uint16(v.GetUint("usb.pid")),
		},
		Agent: Agent{
			Path:    v.GetString("agent.path"),
			Timeout: v.GetDuration("agent.timeout"),
			TempDir: v.GetString("agent.tempdir"),
		},
		Label: tspl.Configuration{
			Unit:           unit,
			Width:          v.GetFloat64("label.width"),
			Height:         v.GetFloat64("label.height"),
			ExplicitHeight: v.GetBool("label.explicit_height"),
			GapDistance:    v.GetFloat64("label.gap_distance"),
			GapOffset:      v.GetFloat64("label.gap_offset"),
			Speed:          v.GetFloat64("label.speed"),
			Direction:      v.GetInt("label.direction"),
			ReferenceX:     v.GetInt("label.reference_x"),
			ReferenceY:     v.GetInt("label.reference_y"),
		},
		ServerAddress: v.GetString("server.address"),
		APIAddress:    v.GetString("api.address"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected transport is known and has what it needs.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportBluetooth, TransportSerial:
		if c.Device == "" {
			return fmt.Errorf("transport %s requires device", c.Transport)
		}
	case TransportFile:
		if c.Device == "" {
			return fmt.Errorf("transport %s requires device (a path or %q)", c.Transport, adapter.Stdout)
		}
	case TransportNetwork:
		if c.Address == "" {
			return fmt.Errorf("transport %s requires address", c.Transport)
		}
	case TransportUSB:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", c.Baud)
	}
	return nil
}
