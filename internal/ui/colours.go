package ui

import (
	"fmt"
	"io"
)

const (
	// Standard colors
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	// Inverse video colors
	GreenInverse   = "\033[7;32m"
	MagentaInverse = "\033[7;35m"

	ResetColor = "\033[0m" // Reset to default color
)

// MethodColors colours HTTP methods in request logs.
var MethodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// Method pads an HTTP method to a fixed width and colours it.
func Method(method string, colour bool) string {
	padded := fmt.Sprintf(" %-7s", method)
	if !colour {
		return padded
	}
	if c, ok := MethodColors[method]; ok {
		return c + padded + ResetColor
	}
	return Gray + padded + ResetColor
}

// Printer writes optionally coloured lines.
type Printer struct {
	out    io.Writer
	colour bool
}

// NewPrinter writes to out, colouring only when colour is set.
func NewPrinter(out io.Writer, colour bool) *Printer {
	return &Printer{out: out, colour: colour}
}

// Writer is the underlying destination.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Paint wraps s in colour when colouring is enabled.
func (p *Printer) Paint(colour, s string) string {
	if !p.colour || colour == "" {
		return s
	}
	return colour + s + ResetColor
}

// Println writes one line in colour.
func (p *Printer) Println(colour string, a ...any) {
	fmt.Fprintln(p.out, p.Paint(colour, fmt.Sprint(a...)))
}

// Printf writes formatted text in colour.
func (p *Printer) Printf(colour, format string, a ...any) {
	fmt.Fprint(p.out, p.Paint(colour, fmt.Sprintf(format, a...)))
}

// Error writes msg as an error line.
func (p *Printer) Error(msg string) {
	p.Println(Red, msg)
}

// Success writes msg as a success line.
func (p *Printer) Success(msg string) {
	p.Println(Green, msg)
}
