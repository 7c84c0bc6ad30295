package dexy

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	StatusStarted = "started"
	StatusIdle    = "waiting for new tasks"
	StatusClosing = "closing..."
)

// Progress is the live status of a scan. Workers write to it, the CLI reads
// Snapshot from another goroutine. It plays no part in deciding when the
// scan ends.
type Progress struct {
	mu       sync.Mutex
	statuses []string

	processed  atomic.Int64
	discovered atomic.Int64
	files      atomic.Int64
	bytes      atomic.Int64
	skipped    atomic.Int64
	errors     atomic.Int64
	startTime  time.Time
}

func NewProgress(workers int) *Progress {
	if workers < 1 {
		workers = 1
	}
	statuses := make([]string, workers)
	for i := range statuses {
		statuses[i] = StatusStarted
	}
	return &Progress{statuses: statuses, startTime: time.Now()}
}

func (p *Progress) SetStatus(worker int, status string) {
	p.mu.Lock()
	if worker >= 0 && worker < len(p.statuses) {
		p.statuses[worker] = status
	}
	p.mu.Unlock()
}

// Discovered grows the known total by n queued directories.
func (p *Progress) Discovered(n int) {
	p.discovered.Add(int64(n))
}

func (p *Progress) DirectoryDone() {
	p.processed.Add(1)
}

func (p *Progress) FileHashed(size int64) {
	p.files.Add(1)
	p.bytes.Add(size)
}

func (p *Progress) Skipped() {
	p.skipped.Add(1)
}

func (p *Progress) Failed() {
	p.errors.Add(1)
}

// ProgressSnapshot is a point-in-time copy of Progress. Counters are read
// one by one, so they may be a few updates apart.
type ProgressSnapshot struct {
	Statuses  []string
	Processed int64
	Total     int64
	Files     int64
	Bytes     int64
	Skipped   int64
	Errors    int64
	Elapsed   time.Duration
}

func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	statuses := make([]string, len(p.statuses))
	copy(statuses, p.statuses)
	p.mu.Unlock()

	return ProgressSnapshot{
		Statuses:  statuses,
		Processed: p.processed.Load(),
		Total:     p.discovered.Load(),
		Files:     p.files.Load(),
		Bytes:     p.bytes.Load(),
		Skipped:   p.skipped.Load(),
		Errors:    p.errors.Load(),
		Elapsed:   time.Since(p.startTime),
	}
}

func (s ProgressSnapshot) String() string {
	return fmt.Sprintf("%d/%d dirs, %s files (%s), %d skipped, %d errors in %.1fs",
		s.Processed, s.Total,
		humanize.Comma(s.Files), humanize.IBytes(uint64(s.Bytes)),
		s.Skipped, s.Errors, s.Elapsed.Seconds())
}
