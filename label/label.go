// Package label describes a printable label as a document and renders it
// through a tspl.Printer.
package label

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/nixxel-company-limited/tspl-label-printer/tspl"
	"gopkg.in/yaml.v3"
)

// Element types
const (
	TypeText    = "text"
	TypeBarcode = "barcode"
	TypeQRCode  = "qrcode"
	TypeBitmap  = "bitmap"
	TypeBeep    = "beep"
)

var ErrNoElements = errors.New("label has no elements")

// Setup overrides fields of the printer's configuration. Zero values keep
// what the printer already has.
type Setup struct {
	Unit           *string  `yaml:"unit" json:"unit"`
	Width          float64  `yaml:"width" json:"width"`
	Height         float64  `yaml:"height" json:"height"`
	ExplicitHeight bool     `yaml:"explicit_height" json:"explicit_height"`
	GapDistance    *float64 `yaml:"gap_distance" json:"gap_distance"`
	GapOffset      *float64 `yaml:"gap_offset" json:"gap_offset"`
	Speed          float64  `yaml:"speed" json:"speed"`
	Direction      *int     `yaml:"direction" json:"direction"`
	ReferenceX     int      `yaml:"reference_x" json:"reference_x"`
	ReferenceY     int      `yaml:"reference_y" json:"reference_y"`
}

// Element is one drawing operation. Which fields apply depends on Type.
type Element struct {
	Type    string `yaml:"type" json:"type"`
	X       int    `yaml:"x" json:"x"`
	Y       int    `yaml:"y" json:"y"`
	Content string `yaml:"content" json:"content"`

	// text
	Font      string `yaml:"font" json:"font"`
	XMultiply int    `yaml:"x_multiply" json:"x_multiply"`
	YMultiply int    `yaml:"y_multiply" json:"y_multiply"`

	// shared by text, barcode and qrcode
	Rotation  int `yaml:"rotation" json:"rotation"`
	Alignment int `yaml:"alignment" json:"alignment"`

	// barcode
	Symbology     string `yaml:"symbology" json:"symbology"`
	Height        int    `yaml:"height" json:"height"`
	HumanReadable int    `yaml:"human_readable" json:"human_readable"`
	Narrow        int    `yaml:"narrow" json:"narrow"`
	Wide          int    `yaml:"wide" json:"wide"`

	// qrcode
	Correction string `yaml:"correction" json:"correction"`
	CellWidth  int    `yaml:"cell_width" json:"cell_width"`
	Mode       string `yaml:"mode" json:"mode"`

	// bitmap; Data is base64 encoded raster bytes
	WidthBytes int    `yaml:"width_bytes" json:"width_bytes"`
	Data       string `yaml:"data" json:"data"`
	Composite  int    `yaml:"composite" json:"composite"`

	// beep
	Level    int `yaml:"level" json:"level"`
	Interval int `yaml:"interval" json:"interval"`
}

// Label is a complete print job.
type Label struct {
	Setup    *Setup    `yaml:"setup" json:"setup"`
	Copies   int       `yaml:"copies" json:"copies"`
	Elements []Element `yaml:"elements" json:"elements"`
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*Label, error) {
	var l Label
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse label: %w", err)
	}
	return &l, nil
}

// Load reads and parses a label file.
func Load(path string) (*Label, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label: %w", err)
	}
	return Parse(data)
}

// Validate checks the document structure. Argument ranges are checked by
// the printer while rendering, before anything is written.
func (l *Label) Validate() error {
	if len(l.Elements) == 0 {
		return ErrNoElements
	}
	if l.Copies < 0 {
		return fmt.Errorf("copies must not be negative, got %d", l.Copies)
	}
	if l.Setup != nil && l.Setup.Unit != nil {
		if _, err := tspl.ParseUnit(*l.Setup.Unit); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	for i, e := range l.Elements {
		switch e.Type {
		case TypeText, TypeBarcode, TypeQRCode:
			if e.Content == "" {
				return fmt.Errorf("element %d: %s requires content", i, e.Type)
			}
		case TypeBitmap:
			if _, err := base64.StdEncoding.DecodeString(e.Data); err != nil {
				return fmt.Errorf("element %d: invalid bitmap data: %w", i, err)
			}
		case TypeBeep:
		default:
			return fmt.Errorf("element %d: unknown type %q", i, e.Type)
		}
	}
	return nil
}

// Configuration applies the setup overrides to tspl.DefaultConfiguration.
func (l *Label) Configuration() tspl.Configuration {
	return l.Apply(tspl.DefaultConfiguration())
}

// Apply returns base with the setup overrides applied.
func (l *Label) Apply(base tspl.Configuration) tspl.Configuration {
	return l.Setup.apply(base)
}

func (s *Setup) apply(cfg tspl.Configuration) tspl.Configuration {
	if s == nil {
		return cfg
	}
	if s.Unit != nil {
		// Validate rejects unknown names before rendering
		cfg.Unit, _ = tspl.ParseUnit(*s.Unit)
	}
	if s.Width != 0 {
		cfg.Width = s.Width
	}
	if s.Height != 0 {
		cfg.Height = s.Height
	}
	cfg.ExplicitHeight = cfg.ExplicitHeight || s.ExplicitHeight
	if s.GapDistance != nil {
		cfg.GapDistance = *s.GapDistance
	}
	if s.GapOffset != nil {
		cfg.GapOffset = *s.GapOffset
	}
	if s.Speed != 0 {
		cfg.Speed = s.Speed
	}
	if s.Direction != nil {
		cfg.Direction = *s.Direction
	}
	if s.ReferenceX != 0 {
		cfg.ReferenceX = s.ReferenceX
	}
	if s.ReferenceY != 0 {
		cfg.ReferenceY = s.ReferenceY
	}
	return cfg
}

// Render draws every element and prints. A setup block is applied on top of
// the printer's current configuration, and the printer is re-initialized
// only when that changes something. The adapter is finalized by the closing
// Print.
func (l *Label) Render(p *tspl.Printer) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if cfg := l.Apply(p.Configuration()); cfg != p.Configuration() {
		if err := p.Initialize(cfg); err != nil {
			return err
		}
	}
	for i, e := range l.Elements {
		if err := e.draw(p); err != nil {
			return fmt.Errorf("element %d (%s): %w", i, e.Type, err)
		}
	}
	copies := l.Copies
	if copies == 0 {
		copies = 1
	}
	return p.Print(true, copies)
}

func (e Element) draw(p *tspl.Printer) error {
	switch e.Type {
	case TypeText:
		s := tspl.DefaultTextStyle()
		if e.Font != "" {
			s.Font = e.Font
		}
		if e.XMultiply != 0 {
			s.XMultiply = e.XMultiply
		}
		if e.YMultiply != 0 {
			s.YMultiply = e.YMultiply
		}
		if e.Alignment != 0 {
			s.Alignment = tspl.Alignment(e.Alignment)
		}
		s.Rotation = e.Rotation
		return p.TextWith(e.Content, e.X, e.Y, s)

	case TypeBarcode:
		s := tspl.DefaultBarcodeStyle()
		if e.Symbology != "" {
			s.Type = tspl.BarcodeType(e.Symbology)
		}
		if e.Height != 0 {
			s.Height = e.Height
		}
		if e.Narrow != 0 {
			s.Narrow = e.Narrow
		}
		if e.Wide != 0 {
			s.Wide = e.Wide
		}
		if e.Alignment != 0 {
			s.Alignment = tspl.Alignment(e.Alignment)
		}
		s.HumanReadable = e.HumanReadable
		s.Rotation = e.Rotation
		return p.BarcodeWith(e.Content, e.X, e.Y, s)

	case TypeQRCode:
		s := tspl.DefaultQRStyle()
		if e.Correction != "" {
			s.Correction = tspl.QRCorrection(e.Correction)
		}
		if e.CellWidth != 0 {
			s.CellWidth = e.CellWidth
		}
		if e.Mode != "" {
			s.Mode = tspl.QRMode(e.Mode)
		}
		s.Rotation = e.Rotation
		return p.QRCodeWith(e.Content, e.X, e.Y, s)

	case TypeBitmap:
		raster, err := base64.StdEncoding.DecodeString(e.Data)
		if err != nil {
			return err
		}
		return p.Image(raster, e.X, e.Y, e.WidthBytes, e.Height, tspl.BitmapMode(e.Composite))

	case TypeBeep:
		level, interval := e.Level, e.Interval
		if level == 0 {
			level = tspl.DefaultBeepLevel
		}
		if interval == 0 {
			interval = tspl.DefaultBeepInterval
		}
		return p.Beep(level, interval)
	}
	return fmt.Errorf("unknown element type %q", e.Type)
}
