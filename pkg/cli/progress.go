package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress through a batch of traces.
type ProgressReporter interface {
	// Start resets the reporter for total traces.
	Start(total int)
	// Observe counts one finished trace under outcome, usually its final
	// decision.
	Observe(outcome string)
	Finish()
	Error(err error)
}

// DecisionProgress renders a single status line with a running tally of
// outcomes.
type DecisionProgress struct {
	mu      sync.Mutex
	total   int
	done    int
	tally   map[string]int
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &DecisionProgress{
		writer: w,
		tally:  make(map[string]int),
	}
}

// Start implements ProgressReporter.
func (p *DecisionProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.tally = make(map[string]int)
	p.started = time.Now()

	p.render()
}

// Observe implements ProgressReporter. Observations past the announced total
// grow the total.
func (p *DecisionProgress) Observe(outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.done > p.total {
		p.total = p.done
	}
	p.tally[outcome]++
	p.render()
}

// Tally returns a copy of the outcome counts seen since Start.
func (p *DecisionProgress) Tally() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.tally))
	for k, v := range p.tally {
		out[k] = v
	}
	return out
}

// Finish implements ProgressReporter.
func (p *DecisionProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render()
	fmt.Fprintln(p.writer)
}

// Error implements ProgressReporter.
func (p *DecisionProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *DecisionProgress) render() {
	if p.total == 0 {
		return
	}

	const barWidth = 30
	filled := barWidth * p.done / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}

	fmt.Fprintf(p.writer, "\rSimulating: [%s] %d/%d %.1f traces/s", bar, p.done, p.total, rate)
	if len(p.tally) > 0 {
		fmt.Fprintf(p.writer, " | %s", formatTally(p.tally))
	}
}

func formatTally(tally map[string]int) string {
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, tally[k])
	}
	return strings.Join(parts, " ")
}
