package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterWithoutTerminalHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Error("Crawl failed", errors.New("boom"))
	p.Info("Windows", "6")
	p.Success("done")

	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "Crawl failed: boom\n")
	assert.Contains(t, out, "Windows: 6\n")
	assert.Contains(t, out, "done\n")
}

func TestSummaryAlignsRows(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Summary("Crawl summary", []Row{
		{Label: "Windows", Value: "6"},
		{Label: "Fetched", Value: "12"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "Crawl summary", lines[0])
	assert.Equal(t, "  Windows  6", lines[1])
	assert.Equal(t, "  Fetched  12", lines[2])
}

func TestBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(ProgressEmpty, 20)+"] 0/0", Bar(0, 0))
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 10)+strings.Repeat(ProgressEmpty, 10)+"] 5/10", Bar(5, 10))
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 20)+"] 3/3", Bar(3, 3))
}
