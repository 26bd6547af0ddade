package tspl

import (
	"errors"
	"strings"
	"testing"

	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
	"github.com/nixxel-company-limited/tspl-label-printer/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAdapter records everything written to it
type MockAdapter struct {
	writeData   []byte
	finalized   int
	writeErr    error
	finalizeErr error
}

func (m *MockAdapter) Write(data []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if m.finalized > 0 {
		return 0, adapter.ErrFinalized
	}
	m.writeData = append(m.writeData, data...)
	return len(data), nil
}

func (m *MockAdapter) Read(buf []byte) (int, error) {
	return 0, adapter.ErrNotSupported
}

func (m *MockAdapter) Finalize() error {
	m.finalized++
	if m.finalized > 1 {
		return adapter.ErrFinalized
	}
	return m.finalizeErr
}

func (m *MockAdapter) reset() {
	m.writeData = nil
}

func (m *MockAdapter) String() string {
	return string(m.writeData)
}

func newTestPrinter(t *testing.T) (*Printer, *MockAdapter) {
	t.Helper()
	mock := &MockAdapter{}
	p, err := New(mock)
	require.NoError(t, err)
	mock.reset()
	return p, mock
}

func TestNewInitializesPrinter(t *testing.T) {
	mock := &MockAdapter{}

	p, err := New(mock)
	require.NoError(t, err)

	expected := "SIZE 35 mm\r\n" +
		"GAP 5 mm,0 mm\r\n" +
		"SPEED 4\r\n" +
		"DIRECTION 1\r\n" +
		"REFERENCE 0,0\r\n" +
		"CLS\r\n"
	assert.Equal(t, expected, mock.String())
	assert.Equal(t, DefaultConfiguration(), p.Configuration())
	assert.Equal(t, mock, p.Adapter())
	require.NotNil(t, p.Buffer())
	assert.Equal(t, p, p.Buffer().Printer())
}

func TestInitializeWithExplicitHeight(t *testing.T) {
	mock := &MockAdapter{}
	cfg := Configuration{
		Unit:           Dot,
		Width:          80,
		Height:         40,
		ExplicitHeight: true,
		GapDistance:    2,
		GapOffset:      1,
		Speed:          2.5,
		Direction:      0,
		ReferenceX:     8,
		ReferenceY:     16,
	}

	_, err := NewWithConfiguration(mock, cfg)
	require.NoError(t, err)

	expected := "SIZE 80 dot,40 dot\r\n" +
		"GAP 2 dot,1 dot\r\n" +
		"SPEED 2.5\r\n" +
		"DIRECTION 0\r\n" +
		"REFERENCE 8,16\r\n" +
		"CLS\r\n"
	assert.Equal(t, expected, mock.String())
}

func TestInitializeValidatesBeforeWriting(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Configuration)
	}{
		{"width", func(c *Configuration) { c.Width = 0 }},
		{"height", func(c *Configuration) { c.Height = 101 }},
		{"unit", func(c *Configuration) { c.Unit = "cm" }},
		{"gap", func(c *Configuration) { c.GapDistance = 128 }},
		{"offset", func(c *Configuration) { c.GapOffset = 256 }},
		{"speed", func(c *Configuration) { c.Speed = 0 }},
		{"direction", func(c *Configuration) { c.Direction = 2 }},
		{"reference", func(c *Configuration) { c.ReferenceX = -1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, mock := newTestPrinter(t)
			cfg := DefaultConfiguration()
			tc.mutate(&cfg)

			err := p.Initialize(cfg)

			var verr *validate.Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "Initialize", verr.Source)
			assert.Empty(t, mock.writeData)
			assert.Equal(t, DefaultConfiguration(), p.Configuration())
		})
	}
}

func TestSetSize(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.SetSize(50, 30, Millimeter))
	assert.Equal(t, "SIZE 50 mm\r\n", mock.String())

	mock.reset()
	p.SetExplicitHeight(true)
	require.NoError(t, p.SetSize(4, 2.5, Inch))
	assert.Equal(t, "SIZE 4,2.5\r\n", mock.String())

	mock.reset()
	assert.Error(t, p.SetSize(101, 30, Millimeter))
	assert.Error(t, p.SetSize(50, 0, Millimeter))
	assert.Error(t, p.SetSize(50, 30, "px"))
	assert.Empty(t, mock.writeData)
}

func TestSetGapBoundaries(t *testing.T) {
	testCases := []struct {
		distance float64
		unit     Unit
		valid    bool
	}{
		{0, Millimeter, true},
		{127, Millimeter, true},
		{128, Millimeter, false},
		{-1, Millimeter, false},
		{0, Dot, true},
		{5, Dot, true},
		{6, Dot, false},
		{5, Inch, true},
		{5.5, Inch, false},
	}

	for _, tc := range testCases {
		p, mock := newTestPrinter(t)
		err := p.SetGap(tc.distance, 0, tc.unit)
		if tc.valid {
			assert.NoError(t, err, "%v %q", tc.distance, tc.unit)
			assert.True(t, strings.HasPrefix(mock.String(), "GAP "))
		} else {
			assert.Error(t, err, "%v %q", tc.distance, tc.unit)
			assert.Empty(t, mock.writeData)
		}
	}
}

func TestSetGapOffset(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.SetGap(3, 255, Millimeter))
	assert.Equal(t, "GAP 3 mm,255 mm\r\n", mock.String())

	err := p.SetGap(3, 256, Millimeter)
	assert.EqualError(t, err, "gap offset given to SetGap must be in range 0-255, but 256 was given.")
}

func TestSetupCommands(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.SetSpeed(6))
	require.NoError(t, p.SetDirection(0))
	require.NoError(t, p.SetReference(10, 20))
	require.NoError(t, p.SetOffset(2.5, Millimeter))
	require.NoError(t, p.Shift(-12))
	require.NoError(t, p.SetTear(true))
	require.NoError(t, p.SetTear(false))
	require.NoError(t, p.ClearBuffer())
	require.NoError(t, p.Home())
	require.NoError(t, p.Cut())

	expected := "SPEED 6\r\n" +
		"DIRECTION 0\r\n" +
		"REFERENCE 10,20\r\n" +
		"OFFSET 2.5 mm\r\n" +
		"SHIFT -12\r\n" +
		"SET TEAR ON\r\n" +
		"SET TEAR OFF\r\n" +
		"CLS\r\n" +
		"HOME\r\n" +
		"CUT\r\n"
	assert.Equal(t, expected, mock.String())

	cfg := p.Configuration()
	assert.Equal(t, 6.0, cfg.Speed)
	assert.Equal(t, 0, cfg.Direction)
	assert.Equal(t, 10, cfg.ReferenceX)
	assert.Equal(t, 20, cfg.ReferenceY)
}

func TestSetupCommandsValidation(t *testing.T) {
	p, mock := newTestPrinter(t)

	assert.Error(t, p.SetSpeed(19))
	assert.Error(t, p.SetDirection(2))
	assert.Error(t, p.SetReference(0, 10001))
	assert.Error(t, p.SetOffset(1, "cm"))
	assert.Error(t, p.Shift(1001))
	assert.Empty(t, mock.writeData)
}

func TestText(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.Text("Hello", 10, 20))
	assert.Equal(t, "TEXT 10,20,\"1\",0,1,1,1,\"Hello\"\r\n", mock.String())
}

func TestTextWithStyle(t *testing.T) {
	p, mock := newTestPrinter(t)

	style := TextStyle{Font: "TSS24.BF2", Rotation: 90, XMultiply: 2, YMultiply: 3, Alignment: AlignRight}
	require.NoError(t, p.TextWith("Price", 5, 6, style))
	assert.Equal(t, "TEXT 5,6,\"TSS24.BF2\",90,2,3,3,\"Price\"\r\n", mock.String())
}

func TestTextEscapesContent(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.Text(`Say "hi" C:\tmp`, 10, 10))
	assert.Equal(t, "TEXT 10,10,\"1\",0,1,1,1,\"Say \\\"hi\\\" C:\\\\tmp\"\r\n", mock.String())
}

func TestInvalidRotationWritesNothing(t *testing.T) {
	for _, rotation := range []int{-90, 1, 45, 91, 360} {
		p, mock := newTestPrinter(t)

		text := DefaultTextStyle()
		text.Rotation = rotation
		assert.Error(t, p.TextWith("x", 10, 10, text))

		barcode := DefaultBarcodeStyle()
		barcode.Rotation = rotation
		assert.Error(t, p.BarcodeWith("x", 10, 10, barcode))

		qr := DefaultQRStyle()
		qr.Rotation = rotation
		assert.Error(t, p.QRCodeWith("x", 10, 10, qr))

		assert.Empty(t, mock.writeData, "rotation %d", rotation)
	}
}

func TestTextValidationMessage(t *testing.T) {
	p, _ := newTestPrinter(t)

	style := DefaultTextStyle()
	style.Rotation = 45
	err := p.TextWith("x", 10, 10, style)
	assert.EqualError(t, err, "rotation given to Text must be one of [0, 90, 180, 270], but '45' was given.")

	style = DefaultTextStyle()
	style.XMultiply = 11
	assert.Error(t, p.TextWith("x", 10, 10, style))

	style = DefaultTextStyle()
	style.Alignment = 4
	assert.Error(t, p.TextWith("x", 10, 10, style))
}

func TestBarcode(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.Barcode("12345", 10, 60))
	assert.Equal(t, "BARCODE 10,60,\"128\",50,0,0,1,1,1,\"12345\"\r\n", mock.String())

	mock.reset()
	style := BarcodeStyle{Type: Barcode39, Height: 100, HumanReadable: 1, Rotation: 180, Narrow: 2, Wide: 4, Alignment: AlignCenter}
	require.NoError(t, p.BarcodeWith(`A"1`, 350, 10000, style))
	assert.Equal(t, "BARCODE 350,10000,\"39\",100,1,180,2,4,2,\"A\\\"1\"\r\n", mock.String())
}

func TestBarcodeValidation(t *testing.T) {
	p, mock := newTestPrinter(t)

	assert.Error(t, p.Barcode("1", 0, 10))
	assert.Error(t, p.Barcode("1", 351, 10))
	assert.Error(t, p.Barcode("1", 10, 0))
	assert.Error(t, p.Barcode("1", 10, 10001))

	style := DefaultBarcodeStyle()
	style.Height = 101
	assert.Error(t, p.BarcodeWith("1", 10, 10, style))

	style = DefaultBarcodeStyle()
	style.Narrow = 0
	assert.Error(t, p.BarcodeWith("1", 10, 10, style))

	style = DefaultBarcodeStyle()
	style.Wide = 11
	assert.Error(t, p.BarcodeWith("1", 10, 10, style))

	assert.Empty(t, mock.writeData)
}

func TestQRCode(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.QRCode("https://example.com", 200, 20))
	assert.Equal(t, "QRCODE 200,20,H,4,A,0,\"https://example.com\"\r\n", mock.String())

	mock.reset()
	style := QRStyle{Correction: QRCorrectionL, CellWidth: 10, Mode: QRModeManual, Rotation: 270}
	require.NoError(t, p.QRCodeWith("x", 1, 2, style))
	assert.Equal(t, "QRCODE 1,2,L,10,M,270,\"x\"\r\n", mock.String())
}

func TestQRCodeValidation(t *testing.T) {
	p, mock := newTestPrinter(t)

	style := DefaultQRStyle()
	style.CellWidth = 11
	assert.Error(t, p.QRCodeWith("x", 1, 1, style))

	style = DefaultQRStyle()
	style.Correction = "X"
	assert.Error(t, p.QRCodeWith("x", 1, 1, style))

	style = DefaultQRStyle()
	style.Mode = "a"
	assert.Error(t, p.QRCodeWith("x", 1, 1, style))

	assert.Empty(t, mock.writeData)
}

func TestImage(t *testing.T) {
	p, mock := newTestPrinter(t)

	raster := []byte{0xFF, 0x00, 0x0F, 0xF0}
	require.NoError(t, p.Image(raster, 0, 8, 2, 2, BitmapXOR))

	expected := append([]byte("BITMAP 0,8,2,2,2,"), raster...)
	expected = append(expected, "\r\n"...)
	assert.Equal(t, expected, mock.writeData)

	mock.reset()
	assert.Error(t, p.Image(raster, 0, 0, 2, 2, 3))
	assert.Empty(t, mock.writeData)
}

func TestBeep(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.Beep(DefaultBeepLevel, DefaultBeepInterval))
	assert.Equal(t, "SOUND 5,100\r\n", mock.String())

	mock.reset()
	assert.Error(t, p.Beep(0, 100))
	assert.Error(t, p.Beep(10, 100))
	assert.Error(t, p.Beep(5, 0))
	assert.Error(t, p.Beep(5, 4096))
	assert.Empty(t, mock.writeData)
}

func TestPrintWithoutClose(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.Print(false, 3))
	assert.Equal(t, "PRINT 1,3\r\nEOP\r\n", mock.String())
	assert.Equal(t, 0, mock.finalized)

	require.NoError(t, p.Text("again", 10, 10))
}

func TestPrintAutoClose(t *testing.T) {
	p, mock := newTestPrinter(t)
	buffer := p.Buffer()

	require.NoError(t, p.Print(true, 1))
	assert.Equal(t, "PRINT 1,1\r\nEOP\r\n", mock.String())
	assert.Equal(t, 1, mock.finalized)

	assert.Nil(t, p.Buffer())
	assert.Nil(t, buffer.Printer())
	assert.ErrorIs(t, buffer.WriteText("late"), ErrNotAttached)
	assert.ErrorIs(t, p.Text("late", 10, 10), ErrPrinterClosed)
	assert.ErrorIs(t, p.Print(true, 1), ErrPrinterClosed)
	assert.Equal(t, 1, mock.finalized)
}

func TestPrintValidatesCopies(t *testing.T) {
	p, mock := newTestPrinter(t)

	assert.Error(t, p.Print(true, 0))
	assert.Error(t, p.Print(true, 11))
	assert.Empty(t, mock.writeData)
	assert.Equal(t, 0, mock.finalized)
}

func TestCloseTwice(t *testing.T) {
	p, mock := newTestPrinter(t)

	require.NoError(t, p.Close())
	assert.Empty(t, mock.writeData)

	assert.ErrorIs(t, p.Close(), ErrPrinterClosed)
	assert.Equal(t, 1, mock.finalized)
}

func TestCloseReportsAdapterError(t *testing.T) {
	p, mock := newTestPrinter(t)
	mock.finalizeErr = errors.New("device is not reachable")

	err := p.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device is not reachable")
	assert.ErrorIs(t, p.Close(), ErrPrinterClosed)
}

func TestWriteErrorIsWrapped(t *testing.T) {
	p, mock := newTestPrinter(t)
	mock.writeErr = adapter.ErrFinalized

	err := p.Home()
	assert.ErrorIs(t, err, adapter.ErrFinalized)
}

func TestSetBufferAfterClose(t *testing.T) {
	p, _ := newTestPrinter(t)
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.SetBuffer(NewBuffer()), ErrPrinterClosed)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "plain", escape("plain"))
	assert.Equal(t, `a\"b`, escape(`a"b`))
	assert.Equal(t, `a\\b`, escape(`a\b`))
	assert.Equal(t, `\\\"`, escape(`\"`))
	assert.Equal(t, "", escape(""))
}

func TestUnitNames(t *testing.T) {
	for _, name := range []string{"inch", "INCH", "", " inch "} {
		u, err := ParseUnit(name)
		require.NoError(t, err, name)
		assert.Equal(t, Inch, u)
	}
	u, err := ParseUnit("Dot")
	require.NoError(t, err)
	assert.Equal(t, Dot, u)

	_, err = ParseUnit("cm")
	assert.EqualError(t, err, "unit given to ParseUnit must be one of [mm, dot, inch], but 'cm' was given.")

	assert.Equal(t, "inch", Inch.String())
	assert.Equal(t, "mm", Millimeter.String())
}

func TestUnitEnumMessageNamesInch(t *testing.T) {
	p, mock := newTestPrinter(t)

	err := p.SetGap(1, 0, Unit("cm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of [mm, dot, inch]")
	assert.Empty(t, mock.writeData)

	// Inch still carries no unit token on the wire
	require.NoError(t, p.SetGap(1, 0, Inch))
	assert.Equal(t, "GAP 1,0\r\n", mock.String())
}
