package tspl

import "errors"

// Buffer mediates free text written to a printer. A buffer belongs to at most
// one printer at a time; it keeps a back-reference for writing only.
type Buffer struct {
	printer *Printer
}

// NewBuffer returns an unattached buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Printer returns the owning printer, or nil when unattached.
func (b *Buffer) Printer() *Printer {
	return b.printer
}

// Attach binds the buffer to p through p.SetBuffer, so p releases any buffer
// it held before. Attaching to the current owner is a no-op; attaching while
// owned by a different printer returns ErrAlreadyAttached and attaching to a
// closed printer returns ErrPrinterClosed.
func (b *Buffer) Attach(p *Printer) error {
	if p == nil {
		return errors.New("cannot attach buffer to a nil printer")
	}
	return p.SetBuffer(b)
}

// bind records p as the owner. Only Printer.SetBuffer calls it.
func (b *Buffer) bind(p *Printer) error {
	if b.printer == p {
		return nil
	}
	if b.printer != nil {
		return ErrAlreadyAttached
	}
	b.printer = p
	return nil
}

// Detach releases the buffer from its printer. The printer is left without
// a buffer.
func (b *Buffer) Detach() {
	if b.printer != nil && b.printer.buffer == b {
		b.printer.buffer = nil
	}
	b.printer = nil
}

// Flush ends a partially written line. If the printer is already at the start
// of a line nothing is written.
func (b *Buffer) Flush() error {
	if b.printer == nil {
		return ErrNotAttached
	}
	if b.printer.atLineStart {
		return nil
	}
	return b.printer.write([]byte(LineBreak))
}

// WriteText passes text through to the printer's adapter unchanged.
func (b *Buffer) WriteText(text string) error {
	if b.printer == nil {
		return ErrNotAttached
	}
	if text == "" {
		return nil
	}
	return b.printer.write([]byte(text))
}
