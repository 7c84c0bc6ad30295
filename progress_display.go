package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	dexy "github.com/evijayan2/dexy/src"
	"github.com/fatih/color"
)

const (
	// maxStatusLines caps how many worker statuses are drawn under the
	// summary line.
	maxStatusLines = 8
	// statusWidth keeps each drawn line short enough not to wrap, so the
	// display always knows how many terminal lines it occupies.
	statusWidth = 78
)

var spinner = []string{"|", "/", "-", "\\"}

// progressDisplay owns the terminal while a scan runs. The console logger
// writes through it, so every log record is printed above the status block
// instead of being appended to a half-drawn line.
type progressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	progress *dexy.Progress
	lines    int
	frame    int

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// newProgressDisplay wraps out. When enabled is false it only passes writes
// through.
func newProgressDisplay(out io.Writer, enabled bool) *progressDisplay {
	return &progressDisplay{out: out, enabled: enabled}
}

// Write prints p above the status block and redraws the block below it.
func (d *progressDisplay) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clear()
	n, err := d.out.Write(p)
	d.draw()
	return n, err
}

// Start redraws the status of progress every 100ms until Stop is called.
func (d *progressDisplay) Start(progress *dexy.Progress) {
	if !d.enabled {
		return
	}
	d.attach(progress)

	d.stopChan = make(chan struct{})
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-d.stopChan:
				return
			case <-ticker.C:
				d.redraw()
			}
		}
	}()
}

// Stop ends the display and erases the status block. It is safe to call
// more than once, and without Start.
func (d *progressDisplay) Stop() {
	d.mu.Lock()
	stopChan := d.stopChan
	d.stopChan = nil
	d.mu.Unlock()

	if stopChan != nil {
		close(stopChan)
		d.wg.Wait()
	}

	d.mu.Lock()
	d.clear()
	d.progress = nil
	d.mu.Unlock()
}

func (d *progressDisplay) attach(progress *dexy.Progress) {
	d.mu.Lock()
	d.progress = progress
	d.draw()
	d.mu.Unlock()
}

func (d *progressDisplay) redraw() {
	d.mu.Lock()
	d.clear()
	d.frame++
	d.draw()
	d.mu.Unlock()
}

// clear erases the drawn block and leaves the cursor at the start of its
// first line. Callers hold d.mu.
func (d *progressDisplay) clear() {
	if d.lines == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("\r\033[K")
	for i := 1; i < d.lines; i++ {
		b.WriteString("\033[1A\033[K")
	}
	fmt.Fprint(d.out, b.String())
	d.lines = 0
}

// draw prints the block without a trailing newline. Callers hold d.mu.
func (d *progressDisplay) draw() {
	if d.progress == nil {
		return
	}
	lines := renderProgress(d.frame, d.progress.Snapshot())
	lines[0] = color.New(color.FgCyan).Sprint(lines[0])
	fmt.Fprint(d.out, strings.Join(lines, "\n"))
	d.lines = len(lines)
}

// renderProgress lays out the summary line followed by one line per busy
// worker.
func renderProgress(frame int, snap dexy.ProgressSnapshot) []string {
	lines := []string{truncate(fmt.Sprintf("%s %s", spinner[frame%len(spinner)], snap), statusWidth)}

	busy := 0
	for i, status := range snap.Statuses {
		if status == dexy.StatusIdle || status == dexy.StatusClosing || status == dexy.StatusStarted {
			continue
		}
		busy++
		if busy > maxStatusLines {
			continue
		}
		lines = append(lines, truncate(fmt.Sprintf("  [%d] %s", i+1, status), statusWidth))
	}
	if busy > maxStatusLines {
		lines = append(lines, fmt.Sprintf("  ... and %d more workers", busy-maxStatusLines))
	}
	return lines
}

// truncate shortens s to width runes, cutting from the middle so both the
// status prefix and the file name stay visible.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	head := (width - 3) / 2
	tail := width - 3 - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
