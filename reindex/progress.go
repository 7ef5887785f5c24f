package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports re-embedding progress to a writer, typically
// os.Stderr. Safe for concurrent use.
type ProgressTracker struct {
	mu           sync.Mutex
	writer       io.Writer
	total        int
	current      int
	interval     int
	lastReported int
	startTime    time.Time
}

// NewProgressTracker creates a tracker that reports every interval chunks.
func NewProgressTracker(writer io.Writer, total, interval int) *ProgressTracker {
	if interval <= 0 {
		interval = DefaultBatchSize
	}
	return &ProgressTracker{
		writer:    writer,
		total:     total,
		interval:  interval,
		startTime: time.Now(),
	}
}

// Add advances progress by delta chunks, reporting when an interval
// boundary is crossed.
func (p *ProgressTracker) Add(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}
	if p.current-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed reports time since the tracker was created.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.startTime)
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed
	}
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.writer, "\rReindexed %d/%d chunks (%.1f%%) - %.1f chunks/s",
		p.current, p.total, percentage, rate)
}
