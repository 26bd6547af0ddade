// Package tspl encodes label printing operations into TSPL command lines and
// writes them to an adapter.
package tspl

import (
	"strconv"
	"strings"

	"github.com/nixxel-company-limited/tspl-label-printer/validate"
)

// Opcode is a TSPL command keyword.
type Opcode string

const (
	OpSize      Opcode = "SIZE"
	OpGap       Opcode = "GAP"
	OpSpeed     Opcode = "SPEED"
	OpDirection Opcode = "DIRECTION"
	OpReference Opcode = "REFERENCE"
	OpOffset    Opcode = "OFFSET"
	OpShift     Opcode = "SHIFT"
	OpSetTear   Opcode = "SET TEAR"
	OpText      Opcode = "TEXT"
	OpBarcode   Opcode = "BARCODE"
	OpQRCode    Opcode = "QRCODE"
	OpBitmap    Opcode = "BITMAP"
	OpPrint     Opcode = "PRINT"
	OpSound     Opcode = "SOUND"
	OpCut       Opcode = "CUT"
	OpCLS       Opcode = "CLS"
	OpEOP       Opcode = "EOP"
	OpHome      Opcode = "HOME"
)

// Protocol punctuation.
const (
	LineBreak = "\r\n"
	Separator = ","
	Space     = " "
)

// Dots per millimetre for the common print head resolutions.
const (
	DPI200 = 8
	DPI300 = 12
)

// Unit is the measurement system used by SIZE, GAP and OFFSET.
type Unit string

const (
	Millimeter Unit = "mm"
	Dot        Unit = "dot"
	// Inch has no unit token on the wire.
	Inch Unit = ""
)

var units = []Unit{Millimeter, Dot, Inch}

// String names the unit. Inch, which is empty on the wire, reads "inch".
func (u Unit) String() string {
	if u == Inch {
		return "inch"
	}
	return string(u)
}

// ParseUnit accepts "mm", "dot" or "inch", ignoring case. The empty string
// is also Inch.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mm":
		return Millimeter, nil
	case "dot":
		return Dot, nil
	case "inch", "":
		return Inch, nil
	}
	return "", validate.Enum("ParseUnit", "unit", Unit(s), units...)
}

// Alignment of TEXT and BARCODE content.
type Alignment int

const (
	AlignLeft   Alignment = 1
	AlignCenter Alignment = 2
	AlignRight  Alignment = 3
)

var alignments = []Alignment{AlignLeft, AlignCenter, AlignRight}

// BarcodeType names a symbology understood by the printer.
type BarcodeType string

const (
	Barcode25  BarcodeType = "25"
	Barcode39  BarcodeType = "39"
	Barcode128 BarcodeType = "128"
)

// QRCorrection is the QR error correction level.
type QRCorrection string

const (
	QRCorrectionL QRCorrection = "L" // 7%
	QRCorrectionM QRCorrection = "M" // 15%
	QRCorrectionQ QRCorrection = "Q" // 25%
	QRCorrectionH QRCorrection = "H" // 30%
)

var qrCorrections = []QRCorrection{QRCorrectionL, QRCorrectionM, QRCorrectionQ, QRCorrectionH}

// QRMode selects automatic or manual QR encoding.
type QRMode string

const (
	QRModeAuto   QRMode = "A"
	QRModeManual QRMode = "M"
)

var qrModes = []QRMode{QRModeAuto, QRModeManual}

// BitmapMode is how BITMAP data is composited onto the image buffer.
type BitmapMode int

const (
	BitmapOverwrite BitmapMode = 0
	BitmapOR        BitmapMode = 1
	BitmapXOR       BitmapMode = 2
)

var bitmapModes = []BitmapMode{BitmapOverwrite, BitmapOR, BitmapXOR}

var rotations = []int{0, 90, 180, 270}

// line builds a single command line. Arguments are appended in order: the
// first follows the opcode after a space, the rest are comma separated.
type line struct {
	buf []byte
	n   int
}

func newLine(op Opcode) *line {
	return &line{buf: append(make([]byte, 0, 64), string(op)...)}
}

func (l *line) sep() {
	if l.n == 0 {
		l.buf = append(l.buf, Space...)
	} else {
		l.buf = append(l.buf, Separator...)
	}
	l.n++
}

func (l *line) integer(v int) *line {
	l.sep()
	l.buf = strconv.AppendInt(l.buf, int64(v), 10)
	return l
}

func (l *line) decimal(v float64) *line {
	l.sep()
	l.buf = strconv.AppendFloat(l.buf, v, 'f', -1, 64)
	return l
}

// measure appends a value followed by its unit token, e.g. "35 mm".
func (l *line) measure(v float64, u Unit) *line {
	l.decimal(v)
	if u != Inch {
		l.buf = append(l.buf, Space...)
		l.buf = append(l.buf, string(u)...)
	}
	return l
}

func (l *line) token(s string) *line {
	l.sep()
	l.buf = append(l.buf, s...)
	return l
}

func (l *line) quoted(s string) *line {
	l.sep()
	l.buf = append(l.buf, '"')
	l.buf = append(l.buf, escape(s)...)
	l.buf = append(l.buf, '"')
	return l
}

func (l *line) raw(b []byte) *line {
	l.sep()
	l.buf = append(l.buf, b...)
	return l
}

func (l *line) bytes() []byte {
	return append(l.buf, LineBreak...)
}

// escape backslash-escapes quotes and backslashes so content cannot close
// the surrounding string literal.
func escape(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			if out == nil {
				out = append(make([]byte, 0, len(s)+4), s[:i]...)
			}
			out = append(out, '\\')
		}
		if out != nil {
			out = append(out, c)
		}
	}
	if out == nil {
		return s
	}
	return string(out)
}
