package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// Row is one labelled line of a summary block
type Row struct {
	Label string
	Value string
}

// Summary prints a titled block of aligned label/value rows
func (p *Printer) Summary(title string, rows []Row) {
	p.Highlight(title)
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", r.Label, r.Value)
	}
	tw.Flush()
}

// Bar renders done out of total as a fixed width bar
func Bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		done, total)
}
