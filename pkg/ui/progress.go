package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

// redrawInterval limits how often a live bar is repainted
const redrawInterval = 100 * time.Millisecond

// ByteProgress shows how much of one file has been written. It is an
// io.Writer so it can sit behind an io.TeeReader or io.MultiWriter.
//
// On a terminal the bar is redrawn in place; otherwise only the final line
// is printed.
type ByteProgress struct {
	mu       sync.Mutex
	name     string
	total    int64
	written  int64
	bar      progress.Model
	out      io.Writer
	live     bool
	lastDraw time.Time
	start    time.Time
	finished bool
}

// NewByteProgress creates a bar for a file of total bytes
func NewByteProgress(name string, total int64) *ByteProgress {
	return newByteProgress(name, total, Out, IsTerminal(Out) && !IsQuietMode())
}

func newByteProgress(name string, total int64, out io.Writer, live bool) *ByteProgress {
	return &ByteProgress{
		name:  name,
		total: total,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		out:   out,
		live:  live,
		start: time.Now(),
	}
}

// Write counts p toward the total
func (b *ByteProgress) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.written += int64(len(p))
	if b.live && time.Since(b.lastDraw) >= redrawInterval {
		b.draw()
		b.lastDraw = time.Now()
	}
	return len(p), nil
}

// Written returns the number of bytes counted so far
func (b *ByteProgress) Written() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// Percent returns completion in [0, 1]
func (b *ByteProgress) Percent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.percent()
}

func (b *ByteProgress) percent() float64 {
	if b.total <= 0 {
		return 0
	}
	p := float64(b.written) / float64(b.total)
	if p > 1 {
		p = 1
	}
	return p
}

// Finish prints the final state of the bar and ends the line
func (b *ByteProgress) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished || IsQuietMode() {
		return
	}
	b.finished = true
	b.draw()
	fmt.Fprintln(b.out)
}

func (b *ByteProgress) draw() {
	prefix := ""
	if b.live {
		prefix = "\r"
	}
	fmt.Fprintf(b.out, "%s%s %s %3.0f%% %s/%s %s",
		prefix,
		truncateName(b.name, 24),
		b.bar.ViewAs(b.percent()),
		b.percent()*100,
		formatBytes(b.written),
		formatBytes(b.total),
		Dim(formatRate(b.written, time.Since(b.start))),
	)
}

func truncateName(name string, max int) string {
	r := []rune(name)
	if len(r) <= max {
		return name + strings.Repeat(" ", max-len(r))
	}
	return string(r[:max-1]) + "…"
}

// formatBytes renders n with a binary unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatRate(n int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return ""
	}
	return formatBytes(int64(float64(n)/elapsed.Seconds())) + "/s"
}
