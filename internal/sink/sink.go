// Package sink aggregates probe outcomes from all workers and renders the
// output record stream.
package sink

import (
	"fmt"
	"io"
	"sync"

	"proxyvet/internal/shared/types"
)

// Collector is a thread-safe, append-only outcome store. Record tolerates
// concurrent calls from every worker; entries are never lost or mutated.
type Collector struct {
	mu       sync.Mutex
	outcomes []types.Outcome
}

func NewCollector() *Collector {
	return &Collector{}
}

// Record appends one outcome. The collector owns it from here on.
func (c *Collector) Record(o types.Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
}

// Outcomes returns a snapshot copy in arrival order.
func (c *Collector) Outcomes() []types.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

// Counts tallies outcomes per status.
func (c *Collector) Counts() map[types.Status]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[types.Status]int)
	for _, o := range c.outcomes {
		counts[o.Status]++
	}
	return counts
}

// Len returns the number of recorded outcomes.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

// Writer renders outcomes as comma separated lines.
//
// Output policy: by default only successful outcomes are written, one line
// each, as "proxy_type,response_time_seconds,proxy_ip:port" (the classic
// checker format). With emitAll set, every outcome is written and a fourth
// column carries the explicit status, so failures, timeouts and exclusions
// are distinguishable instead of silently omitted.
type Writer struct {
	w       io.Writer
	emitAll bool
}

func NewWriter(w io.Writer, emitAll bool) *Writer {
	return &Writer{w: w, emitAll: emitAll}
}

// WriteOutcome writes one outcome according to the output policy.
// Returns whether a line was emitted.
func (w *Writer) WriteOutcome(o types.Outcome) (bool, error) {
	if !w.emitAll && o.Status != types.StatusSuccess {
		return false, nil
	}
	line := FormatLine(o, w.emitAll)
	if _, err := io.WriteString(w.w, line+"\n"); err != nil {
		return false, err
	}
	return true, nil
}

// WriteAll writes a batch of outcomes, returning how many lines were emitted.
func (w *Writer) WriteAll(outcomes []types.Outcome) (int, error) {
	written := 0
	for _, o := range outcomes {
		ok, err := w.WriteOutcome(o)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}
	return written, nil
}

// FormatLine renders one outcome. Response time is in seconds with two
// decimals, matching the classic output format.
func FormatLine(o types.Outcome, withStatus bool) string {
	line := fmt.Sprintf("%s,%.2f,%s", o.Candidate.Kind, o.Latency.Seconds(), o.Candidate.Addr())
	if withStatus {
		line += "," + string(o.Status)
	}
	return line
}
