// Package monitor watches the board's serial heartbeat: it counts intact
// greetings in the byte stream and flags everything else as garbled.
package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Stats summarize the stream so far.
type Stats struct {
	Bytes     uint64
	Greetings uint64
	Garbled   uint64
	Last      time.Time // arrival of the last complete greeting
}

// Monitor matches a fixed greeting in a byte stream. Stats and Healthy may
// be called while another goroutine feeds it.
type Monitor struct {
	mu       sync.Mutex
	greeting []byte
	fallback []int
	match    int
	stats    Stats

	// Follow keeps reading after io.EOF. Serial ports report EOF on a read
	// timeout.
	Follow bool

	// OnGreeting is called after each complete greeting.
	OnGreeting func(Stats)

	now func() time.Time
}

// New creates a monitor for greeting.
func New(greeting string) *Monitor {
	g := []byte(greeting)
	return &Monitor{greeting: g, fallback: prefixTable(g), now: time.Now}
}

// prefixTable returns, for each prefix of g, the length of its longest
// proper prefix that is also a suffix. The matcher falls back through it on
// a mismatch so greetings that overlap themselves are still found.
func prefixTable(g []byte) []int {
	t := make([]int, len(g))
	k := 0
	for i := 1; i < len(g); i++ {
		for k > 0 && g[i] != g[k] {
			k = t[k-1]
		}
		if g[i] == g[k] {
			k++
		}
		t[i] = k
	}
	return t
}

// Write feeds p to the matcher. It never fails, so a Monitor can sit at the
// end of an io.Copy or an io.MultiWriter.
func (m *Monitor) Write(p []byte) (int, error) {
	var greeted []Stats
	m.mu.Lock()
	for _, b := range p {
		if m.feed(b) {
			greeted = append(greeted, m.stats)
		}
	}
	m.mu.Unlock()

	for _, s := range greeted {
		if glog.V(1) {
			glog.Infof("heartbeat #%d", s.Greetings)
		}
		if m.OnGreeting != nil {
			m.OnGreeting(s)
		}
	}
	return len(p), nil
}

// feed advances the matcher by one byte and reports a completed greeting.
func (m *Monitor) feed(b byte) bool {
	m.stats.Bytes++
	if len(m.greeting) == 0 {
		m.stats.Garbled++
		return false
	}
	for m.match > 0 && b != m.greeting[m.match] {
		next := m.fallback[m.match-1]
		m.stats.Garbled += uint64(m.match - next)
		m.match = next
	}
	if b != m.greeting[m.match] {
		m.stats.Garbled++
		return false
	}
	m.match++
	if m.match < len(m.greeting) {
		return false
	}
	m.match = 0
	m.stats.Greetings++
	m.stats.Last = m.now()
	return true
}

// Stats returns the counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Healthy reports whether a greeting arrived within two periods of now.
func (m *Monitor) Healthy(now time.Time, period time.Duration) bool {
	last := m.Stats().Last
	return !last.IsZero() && now.Sub(last) <= 2*period
}

// Run reads r until ctx is done, r fails or, unless Follow is set, r reaches
// EOF. ctx is only checked between reads.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := r.Read(buf)
		if n > 0 {
			m.Write(buf[:n])
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && m.Follow:
		case errors.Is(err, io.EOF):
			return nil
		default:
			glog.Warningf("monitor: read: %v", err)
			return err
		}
	}
}
