package downloader

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	deepRed = "\x1b[38;5;196m"
	green   = "\x1b[38;5;106m"
	blue    = "\x1b[38;5;67m"
	grey    = "\x1b[38;5;243m"
	white   = "\x1b[38;5;251m"
	reset   = "\x1b[0m"
)

// Progress holds the run's counters. All methods are safe for
// concurrent use by the download workers.
type Progress struct {
	start time.Time

	accepted   atomic.Uint64
	downloaded atomic.Uint64
	skipped    atomic.Uint64
	failed     atomic.Uint64
	bytes      atomic.Uint64
}

func NewProgress() *Progress {
	return &Progress{start: time.Now()}
}

func (p *Progress) Accept()        { p.accepted.Add(1) }
func (p *Progress) Download(n int) { p.downloaded.Add(1); p.bytes.Add(uint64(n)) }
func (p *Progress) Skip()          { p.skipped.Add(1) }
func (p *Progress) Fail()          { p.failed.Add(1) }

// Snapshot is a consistent-enough copy of the counters for display.
type Snapshot struct {
	Accepted   uint64
	Downloaded uint64
	Skipped    uint64
	Failed     uint64
	Bytes      uint64
	Elapsed    time.Duration
}

func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Accepted:   p.accepted.Load(),
		Downloaded: p.downloaded.Load(),
		Skipped:    p.skipped.Load(),
		Failed:     p.failed.Load(),
		Bytes:      p.bytes.Load(),
		Elapsed:    time.Since(p.start),
	}
}

// Report renders the final colored summary line.
func (s Snapshot) Report(color bool) string {
	if !color {
		return fmt.Sprintf("downloaded %d, skipped %d, failed %d (%s in %s)",
			s.Downloaded, s.Skipped, s.Failed, formatSize(s.Bytes), s.Elapsed.Round(time.Second))
	}
	return fmt.Sprintf("%sdownloaded %d%s, %sskipped %d%s, %sfailed %d%s %s(%s in %s)%s",
		green, s.Downloaded, reset,
		grey, s.Skipped, reset,
		deepRed, s.Failed, reset,
		white, formatSize(s.Bytes), s.Elapsed.Round(time.Second), reset)
}

func formatSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
