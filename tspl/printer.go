package tspl

import (
	"errors"
	"fmt"

	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
	"github.com/nixxel-company-limited/tspl-label-printer/validate"
)

// Configuration is the label setup sent by Initialize.
type Configuration struct {
	Unit   Unit
	Width  float64
	Height float64
	// ExplicitHeight appends the height clause to SIZE. Without it the
	// printer measures label height from the gap sensor.
	ExplicitHeight bool
	GapDistance    float64
	GapOffset      float64
	Speed          float64
	Direction      int
	ReferenceX     int
	ReferenceY     int
}

// DefaultConfiguration returns a 35x25 mm label with a 5 mm gap.
func DefaultConfiguration() Configuration {
	return Configuration{
		Unit:        Millimeter,
		Width:       35,
		Height:      25,
		GapDistance: 5,
		GapOffset:   0,
		Speed:       4,
		Direction:   1,
	}
}

// TextStyle controls TEXT rendering.
type TextStyle struct {
	Font      string
	Rotation  int
	XMultiply int
	YMultiply int
	Alignment Alignment
}

// DefaultTextStyle is font "1", upright, unscaled and left aligned.
func DefaultTextStyle() TextStyle {
	return TextStyle{Font: "1", XMultiply: 1, YMultiply: 1, Alignment: AlignLeft}
}

// BarcodeStyle controls BARCODE rendering.
type BarcodeStyle struct {
	Type          BarcodeType
	Height        int
	HumanReadable int
	Rotation      int
	Narrow        int
	Wide          int
	Alignment     Alignment
}

// DefaultBarcodeStyle is a 50 dot high Code 128 without human readable text.
func DefaultBarcodeStyle() BarcodeStyle {
	return BarcodeStyle{Type: Barcode128, Height: 50, Narrow: 1, Wide: 1, Alignment: AlignLeft}
}

// QRStyle controls QRCODE rendering.
type QRStyle struct {
	Correction QRCorrection
	CellWidth  int
	Mode       QRMode
	Rotation   int
}

// DefaultQRStyle uses the highest correction level and automatic encoding.
func DefaultQRStyle() QRStyle {
	return QRStyle{Correction: QRCorrectionH, CellWidth: 4, Mode: QRModeAuto}
}

const (
	DefaultBeepLevel    = 5
	DefaultBeepInterval = 100
)

// Printer encodes label commands and writes them to an adapter. A Printer is
// not safe for concurrent use.
type Printer struct {
	adapter     adapter.Adapter
	buffer      *Buffer
	config      Configuration
	atLineStart bool
	closed      bool
}

// New creates a printer on a and initializes it with DefaultConfiguration.
func New(a adapter.Adapter) (*Printer, error) {
	return NewWithConfiguration(a, DefaultConfiguration())
}

// NewWithConfiguration creates a printer on a and initializes it with cfg.
func NewWithConfiguration(a adapter.Adapter, cfg Configuration) (*Printer, error) {
	p := &Printer{
		adapter:     a,
		atLineStart: true,
	}
	if err := p.SetBuffer(NewBuffer()); err != nil {
		return nil, err
	}
	if err := p.Initialize(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Adapter returns the adapter commands are written to.
func (p *Printer) Adapter() adapter.Adapter {
	return p.adapter
}

// Buffer returns the attached print buffer, or nil once the printer is closed.
func (p *Printer) Buffer() *Buffer {
	return p.buffer
}

// Configuration returns the current label setup.
func (p *Printer) Configuration() Configuration {
	return p.config
}

// SetBuffer attaches b to this printer, releasing any previously attached
// buffer. It fails if b already belongs to another printer.
func (p *Printer) SetBuffer(b *Buffer) error {
	if b == nil {
		return errors.New("cannot attach a nil buffer")
	}
	if p.closed {
		return ErrPrinterClosed
	}
	if b == p.buffer {
		return nil
	}
	if err := b.bind(p); err != nil {
		return err
	}
	if p.buffer != nil {
		p.buffer.printer = nil
	}
	p.buffer = b
	return nil
}

// Initialize validates cfg as a whole and then emits SIZE, GAP, SPEED,
// DIRECTION, REFERENCE and CLS.
func (p *Printer) Initialize(cfg Configuration) error {
	const source = "Initialize"
	if err := validateSize(source, cfg.Width, cfg.Height, cfg.Unit); err != nil {
		return err
	}
	if err := validateGap(source, cfg.GapDistance, cfg.GapOffset, cfg.Unit); err != nil {
		return err
	}
	if err := validateSpeed(source, cfg.Speed); err != nil {
		return err
	}
	if err := validate.Enum(source, "direction", cfg.Direction, 0, 1); err != nil {
		return err
	}
	if err := validateReference(source, cfg.ReferenceX, cfg.ReferenceY); err != nil {
		return err
	}

	p.config = cfg
	if err := p.emitSize(); err != nil {
		return err
	}
	if err := p.emitGap(); err != nil {
		return err
	}
	if err := p.write(newLine(OpSpeed).decimal(cfg.Speed).bytes()); err != nil {
		return err
	}
	if err := p.write(newLine(OpDirection).integer(cfg.Direction).bytes()); err != nil {
		return err
	}
	if err := p.write(newLine(OpReference).integer(cfg.ReferenceX).integer(cfg.ReferenceY).bytes()); err != nil {
		return err
	}
	return p.ClearBuffer()
}

// SetExplicitHeight controls whether subsequent SIZE commands carry the
// label height.
func (p *Printer) SetExplicitHeight(on bool) {
	p.config.ExplicitHeight = on
}

// SetSize emits SIZE. Width and height are limited to 1-100 whatever the unit.
func (p *Printer) SetSize(width, height float64, unit Unit) error {
	if err := validateSize("SetSize", width, height, unit); err != nil {
		return err
	}
	p.config.Width, p.config.Height, p.config.Unit = width, height, unit
	return p.emitSize()
}

// SetGap emits GAP. Millimetre gaps may be 0-127, other units 0-5; the
// offset is always 0-255.
func (p *Printer) SetGap(distance, offset float64, unit Unit) error {
	if err := validateGap("SetGap", distance, offset, unit); err != nil {
		return err
	}
	p.config.GapDistance, p.config.GapOffset, p.config.Unit = distance, offset, unit
	return p.emitGap()
}

// SetSpeed emits SPEED in inches per second.
func (p *Printer) SetSpeed(speed float64) error {
	if err := validateSpeed("SetSpeed", speed); err != nil {
		return err
	}
	p.config.Speed = speed
	return p.write(newLine(OpSpeed).decimal(speed).bytes())
}

// SetDirection emits DIRECTION; 0 and 1 are the only printout orientations.
func (p *Printer) SetDirection(direction int) error {
	if err := validate.Enum("SetDirection", "direction", direction, 0, 1); err != nil {
		return err
	}
	p.config.Direction = direction
	return p.write(newLine(OpDirection).integer(direction).bytes())
}

// SetReference emits REFERENCE, moving the label origin.
func (p *Printer) SetReference(x, y int) error {
	if err := validateReference("SetReference", x, y); err != nil {
		return err
	}
	p.config.ReferenceX, p.config.ReferenceY = x, y
	return p.write(newLine(OpReference).integer(x).integer(y).bytes())
}

// SetOffset emits OFFSET, the extra feed after each label in peel or cut mode.
func (p *Printer) SetOffset(distance float64, unit Unit) error {
	if err := validate.Enum("SetOffset", "unit", unit, units...); err != nil {
		return err
	}
	return p.write(newLine(OpOffset).measure(distance, unit).bytes())
}

// Shift emits SHIFT, a vertical print position adjustment in dots.
func (p *Printer) Shift(dots int) error {
	if err := validate.Range("Shift", "dots", dots, -1000, 1000); err != nil {
		return err
	}
	return p.write(newLine(OpShift).integer(dots).bytes())
}

// SetTear emits SET TEAR ON or OFF.
func (p *Printer) SetTear(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return p.write(newLine(OpSetTear).token(state).bytes())
}

// ClearBuffer emits CLS, clearing the printer's image buffer.
func (p *Printer) ClearBuffer() error {
	return p.write(newLine(OpCLS).bytes())
}

// Home emits HOME, feeding to the start of the next label.
func (p *Printer) Home() error {
	return p.write(newLine(OpHome).bytes())
}

// Cut emits CUT.
func (p *Printer) Cut() error {
	return p.write(newLine(OpCut).bytes())
}

// Text draws content at (x, y) with DefaultTextStyle.
func (p *Printer) Text(content string, x, y int) error {
	return p.TextWith(content, x, y, DefaultTextStyle())
}

// TextWith draws content at (x, y) with the given style.
func (p *Printer) TextWith(content string, x, y int, s TextStyle) error {
	const source = "Text"
	if err := validate.Enum(source, "rotation", s.Rotation, rotations...); err != nil {
		return err
	}
	if err := validate.Range(source, "x-multiplication", s.XMultiply, 1, 10); err != nil {
		return err
	}
	if err := validate.Range(source, "y-multiplication", s.YMultiply, 1, 10); err != nil {
		return err
	}
	if err := validate.Enum(source, "alignment", s.Alignment, alignments...); err != nil {
		return err
	}

	l := newLine(OpText).
		integer(x).
		integer(y).
		quoted(s.Font).
		integer(s.Rotation).
		integer(s.XMultiply).
		integer(s.YMultiply).
		integer(int(s.Alignment)).
		quoted(content)
	return p.write(l.bytes())
}

// Barcode draws content as a barcode at (x, y) with DefaultBarcodeStyle.
func (p *Printer) Barcode(content string, x, y int) error {
	return p.BarcodeWith(content, x, y, DefaultBarcodeStyle())
}

// BarcodeWith draws content as a barcode at (x, y) with the given style.
func (p *Printer) BarcodeWith(content string, x, y int, s BarcodeStyle) error {
	const source = "Barcode"
	if err := validate.Range(source, "x", x, 1, 350); err != nil {
		return err
	}
	if err := validate.Range(source, "y", y, 1, 10000); err != nil {
		return err
	}
	if err := validate.Range(source, "height", s.Height, 1, 100); err != nil {
		return err
	}
	if err := validate.Enum(source, "rotation", s.Rotation, rotations...); err != nil {
		return err
	}
	if err := validate.Range(source, "narrow", s.Narrow, 1, 10); err != nil {
		return err
	}
	if err := validate.Range(source, "wide", s.Wide, 1, 10); err != nil {
		return err
	}
	if err := validate.Enum(source, "alignment", s.Alignment, alignments...); err != nil {
		return err
	}

	l := newLine(OpBarcode).
		integer(x).
		integer(y).
		quoted(string(s.Type)).
		integer(s.Height).
		integer(s.HumanReadable).
		integer(s.Rotation).
		integer(s.Narrow).
		integer(s.Wide).
		integer(int(s.Alignment)).
		quoted(content)
	return p.write(l.bytes())
}

// QRCode draws content as a QR code at (x, y) with DefaultQRStyle.
func (p *Printer) QRCode(content string, x, y int) error {
	return p.QRCodeWith(content, x, y, DefaultQRStyle())
}

// QRCodeWith draws content as a QR code at (x, y) with the given style.
func (p *Printer) QRCodeWith(content string, x, y int, s QRStyle) error {
	const source = "QRCode"
	if err := validate.Range(source, "cell width", s.CellWidth, 1, 10); err != nil {
		return err
	}
	if err := validate.Enum(source, "correction", s.Correction, qrCorrections...); err != nil {
		return err
	}
	if err := validate.Enum(source, "mode", s.Mode, qrModes...); err != nil {
		return err
	}
	if err := validate.Enum(source, "rotation", s.Rotation, rotations...); err != nil {
		return err
	}

	l := newLine(OpQRCode).
		integer(x).
		integer(y).
		token(string(s.Correction)).
		integer(s.CellWidth).
		token(string(s.Mode)).
		integer(s.Rotation).
		quoted(content)
	return p.write(l.bytes())
}

// Image draws pre-rasterized bitmap data. widthBytes is the row stride in
// bytes and heightDots the number of rows; the raster itself is sent as is.
func (p *Printer) Image(raster []byte, x, y, widthBytes, heightDots int, mode BitmapMode) error {
	if err := validate.Enum("Image", "mode", mode, bitmapModes...); err != nil {
		return err
	}

	l := newLine(OpBitmap).
		integer(x).
		integer(y).
		integer(widthBytes).
		integer(heightDots).
		integer(int(mode)).
		raw(raster)
	return p.write(l.bytes())
}

// Beep emits SOUND with a level of 1-9 and an interval of 1-4095.
func (p *Printer) Beep(level, interval int) error {
	if err := validate.Range("Beep", "level", level, 1, 9); err != nil {
		return err
	}
	if err := validate.Range("Beep", "interval", interval, 1, 4095); err != nil {
		return err
	}
	return p.write(newLine(OpSound).integer(level).integer(interval).bytes())
}

// Print emits PRINT for one set of copies followed by EOP. With autoClose the
// adapter is finalized and the printer can no longer be used.
func (p *Printer) Print(autoClose bool, copies int) error {
	if err := validate.Range("Print", "copies", copies, 1, 10); err != nil {
		return err
	}
	if err := p.write(newLine(OpPrint).integer(1).integer(copies).bytes()); err != nil {
		return err
	}
	if err := p.write(newLine(OpEOP).bytes()); err != nil {
		return err
	}
	if autoClose {
		return p.Close()
	}
	return nil
}

// Close finalizes the adapter without emitting anything. A second Close
// returns ErrPrinterClosed.
func (p *Printer) Close() error {
	if p.closed {
		return ErrPrinterClosed
	}
	p.closed = true
	if p.buffer != nil {
		p.buffer.Detach()
	}
	if err := p.adapter.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize adapter: %w", err)
	}
	return nil
}

func (p *Printer) emitSize() error {
	l := newLine(OpSize).measure(p.config.Width, p.config.Unit)
	if p.config.ExplicitHeight {
		l.measure(p.config.Height, p.config.Unit)
	}
	return p.write(l.bytes())
}

func (p *Printer) emitGap() error {
	l := newLine(OpGap).
		measure(p.config.GapDistance, p.config.Unit).
		measure(p.config.GapOffset, p.config.Unit)
	return p.write(l.bytes())
}

func (p *Printer) write(data []byte) error {
	if p.closed {
		return ErrPrinterClosed
	}
	if _, err := p.adapter.Write(data); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	if len(data) > 0 {
		p.atLineStart = data[len(data)-1] == '\n'
	}
	return nil
}

func validateSize(source string, width, height float64, unit Unit) error {
	if err := validate.Range(source, "width", width, 1, 100); err != nil {
		return err
	}
	if err := validate.Range(source, "height", height, 1, 100); err != nil {
		return err
	}
	return validate.Enum(source, "unit", unit, units...)
}

func validateGap(source string, distance, offset float64, unit Unit) error {
	if err := validate.Enum(source, "unit", unit, units...); err != nil {
		return err
	}
	maxDistance := 5.0
	if unit == Millimeter {
		maxDistance = 127
	}
	if err := validate.Range(source, "gap distance", distance, 0, maxDistance); err != nil {
		return err
	}
	return validate.Range(source, "gap offset", offset, 0, 255)
}

func validateReference(source string, x, y int) error {
	if err := validate.Range(source, "reference x", x, 0, 10000); err != nil {
		return err
	}
	return validate.Range(source, "reference y", y, 0, 10000)
}

func validateSpeed(source string, speed float64) error {
	return validate.Range(source, "speed", speed, 1, 18)
}
