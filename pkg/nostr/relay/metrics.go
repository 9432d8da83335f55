package relay

import (
	"time"

	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/atomic"
)

// metrics are per-relay sampled counters. Increments on the hot path are
// sampled at the configured rate to keep contention negligible; totals are
// therefore approximate multiples of the sample rate.
type metrics struct {
	disabled   bool
	sampleRate int64
	started    time.Time
	tick       atomic.Int64

	framesIn         *xsync.Counter
	framesOut        *xsync.Counter
	eventsDispatched *xsync.Counter
	eventsDropped    *xsync.Counter
	verifyOK         *xsync.Counter
	verifyFailed     *xsync.Counter
	bans             *xsync.Counter
}

func newMetrics(t Tunables) *metrics {
	return &metrics{
		disabled:         t.MetricsDisabled,
		sampleRate:       int64(t.MetricsSampleRate),
		started:          time.Now(),
		framesIn:         xsync.NewCounter(),
		framesOut:        xsync.NewCounter(),
		eventsDispatched: xsync.NewCounter(),
		eventsDropped:    xsync.NewCounter(),
		verifyOK:         xsync.NewCounter(),
		verifyFailed:     xsync.NewCounter(),
		bans:             xsync.NewCounter(),
	}
}

// sample reports whether this increment is recorded.
func (m *metrics) sample() bool {
	if m.disabled {
		return false
	}
	if m.sampleRate <= 1 {
		return true
	}
	return m.tick.Inc()%m.sampleRate == 0
}

func (m *metrics) inc(c *xsync.Counter) {
	if m.sample() {
		c.Inc()
	}
}

// dump logs the counter values, multiplied back up by the sample rate.
func (m *metrics) dump(url string) {
	if m.disabled {
		return
	}
	r := m.sampleRate
	if r < 1 {
		r = 1
	}
	log.D.F("{%s} up %v: frames in %d out %d, events dispatched %d "+
		"dropped %d, verify ok %d failed %d, bans %d (sample rate %d)",
		url, time.Since(m.started).Round(time.Second),
		m.framesIn.Value()*r, m.framesOut.Value()*r,
		m.eventsDispatched.Value()*r, m.eventsDropped.Value()*r,
		m.verifyOK.Value()*r, m.verifyFailed.Value()*r,
		m.bans.Value()*r, r)
}
