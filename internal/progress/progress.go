// Package progress renders a terminal progress bar for the sequential
// snapshot build.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Bar struct {
	total      int64
	current    int64
	width      int
	writer     io.Writer
	currentDir string
	lastUpdate time.Time
}

func New(total int64) *Bar {
	return &Bar{
		total:      total,
		width:      50,
		writer:     os.Stdout,
		lastUpdate: time.Now(),
	}
}

// SetDirectory records the directory currently being hashed.
func (b *Bar) SetDirectory(dir string) {
	b.currentDir = filepath.Base(dir)
}

// Add advances the bar by n units.
func (b *Bar) Add(n int64) {
	b.current += n

	// Update at most every 100ms to reduce flickering
	now := time.Now()
	if now.Sub(b.lastUpdate) > 100*time.Millisecond || b.current >= b.total {
		b.lastUpdate = now
		b.render()
	}
}

func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	percent := float64(b.current) / float64(b.total) * 100
	filledWidth := int(float64(b.width) * float64(b.current) / float64(b.total))
	if filledWidth > b.width {
		filledWidth = b.width
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", b.width-filledWidth)

	var dirDisplay string
	if b.currentDir != "" {
		dirDisplay = " | " + b.currentDir
	}

	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% (%d/%d)%s",
		bar, int(percent), b.current, b.total, dirDisplay)
}

func (b *Bar) Finish() {
	if b.total == 0 {
		return
	}
	b.current = b.total
	b.render()
	fmt.Fprintf(b.writer, "\n")
}
