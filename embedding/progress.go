package embedding

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports bulk-generation progress to a writer, typically
// os.Stderr. Its Update method has the ProgressFunc shape so it can be
// passed straight to BulkGenerate.
type ProgressTracker struct {
	writer         io.Writer
	reportInterval int
	lastReported   int
	startTime      time.Time
	mu             sync.Mutex
}

// NewProgressTracker creates a progress tracker that reports every
// reportInterval documents.
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
		startTime:      time.Now(),
	}
}

// Update records an attempt and reports when a report interval boundary is
// crossed or the batch is complete.
func (p *ProgressTracker) Update(completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if completed-p.lastReported < p.reportInterval && completed != total {
		return
	}
	p.lastReported = completed

	elapsed := time.Since(p.startTime)
	rate := float64(completed) / elapsed.Seconds()
	percentage := 0.0
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rEmbedding: %d/%d (%.1f%%) - %.1f documents/s",
		completed, total, percentage, rate)
	if completed == total {
		fmt.Fprintln(p.writer)
	}
}

// Elapsed returns the time since the tracker was created.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.startTime)
}
