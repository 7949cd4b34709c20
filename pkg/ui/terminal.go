package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ASCII banner for the application
const Banner = `
  ┌───────────────────────────────────────────────┐
  │  casecorpus · court case crawler and corpus   │
  └───────────────────────────────────────────────┘
`

const (
	cyan    = "\033[36m%s\033[0m"
	yellow  = "\033[33m%s\033[0m"
	red     = "\033[31m%s\033[0m"
	green   = "\033[32m%s\033[0m"
	magenta = "\033[35m%s\033[0m"
	dim     = "\033[2m%s\033[0m"
)

// Printer writes human facing CLI output. Colors are used only when the
// destination is a terminal and NO_COLOR is unset.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer for out
func NewPrinter(out io.Writer, noColor bool) *Printer {
	color := false
	if f, ok := out.(*os.File); ok && !noColor && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, color: color}
}

func (p *Printer) paint(format, text string) string {
	if !p.color {
		return text
	}
	return fmt.Sprintf(format, text)
}

// Banner prints the application banner
func (p *Printer) Banner() {
	fmt.Fprint(p.out, p.paint(cyan, Banner))
}

// Error prints an error message in red
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(p.out, p.paint(red, msg))
}

// Success prints a success message in green
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.paint(green, msg))
}

// Info prints a label and value
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.paint(cyan, label), p.paint(yellow, value))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.out, p.paint(yellow, msg))
}

// Highlight prints a highlighted message in magenta
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.out, p.paint(magenta, msg))
}

// Plain prints msg as is
func (p *Printer) Plain(msg string) {
	fmt.Fprint(p.out, msg)
}

// Dim prints a de-emphasised line
func (p *Printer) Dim(msg string) {
	fmt.Fprintln(p.out, p.paint(dim, msg))
}
