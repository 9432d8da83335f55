package relay

import (
	"os"
	"strconv"
	"time"
)

// Tunables are the runtime knobs of a relay connection, read from the
// environment once at construction so a fleet can be tuned without code
// changes. All values are clamped to their documented ranges.
type Tunables struct {
	// WorkerPoolSize is the number of event workers parsing and dispatching
	// inbound EVENT frames.
	WorkerPoolSize int
	// VerifyPoolSize is the number of signature verification workers.
	VerifyPoolSize int
	// BatchSize is the maximum number of EVENT frames handed to a worker at
	// once.
	BatchSize int
	// BatchWindow is how long the collector waits for a batch to fill before
	// flushing what it has.
	BatchWindow time.Duration
	// ControlChanSize bounds the control frame channel.
	ControlChanSize int
	// EventChanSize bounds the raw EVENT frame channel; utilization above 95%
	// sheds low priority kinds at ingress.
	EventChanSize int
	// MetricsSampleRate counts one in every N events into the sampled
	// counters; 1 records everything.
	MetricsSampleRate int
	// MetricsDisabled turns the counters off entirely.
	MetricsDisabled bool
	// SyncVerify verifies signatures inline in the event workers instead of
	// handing off to the verification pool.
	SyncVerify bool
	// TestMode makes the message loop exit immediately, leaving the write
	// path usable for protocol-free lifecycle tests.
	TestMode bool
}

const (
	envWorkerPoolSize    = "NOSTR_WORKER_POOL_SIZE"
	envVerifyPoolSize    = "NOSTR_VERIFY_POOL_SIZE"
	envBatchSize         = "NOSTR_BATCH_SIZE"
	envBatchWindowMs     = "NOSTR_BATCH_WINDOW_MS"
	envControlChanSize   = "NOSTR_CONTROL_CHAN_SIZE"
	envEventChanSize     = "NOSTR_EVENT_CHAN_SIZE"
	envMetricsSampleRate = "NOSTR_METRICS_SAMPLE_RATE"
	envMetricsDisabled   = "NOSTR_METRICS_DISABLED"
	envSyncVerify        = "NOSTR_SYNC_VERIFY"
	envTestMode          = "NOSTR_TEST_MODE"
)

// LoadTunables reads the environment and returns the clamped tunables.
func LoadTunables() (t Tunables) {
	t.WorkerPoolSize = envInt(envWorkerPoolSize, 4, 1, 16)
	t.VerifyPoolSize = envInt(envVerifyPoolSize, 2, 1, 8)
	t.BatchSize = envInt(envBatchSize, 16, 1, 128)
	t.BatchWindow = time.Duration(envInt(envBatchWindowMs, 5, 1, 100)) *
		time.Millisecond
	t.ControlChanSize = envInt(envControlChanSize, 64, 1, 4096)
	t.EventChanSize = envInt(envEventChanSize, 256, 8, 65536)
	t.MetricsSampleRate = envInt(envMetricsSampleRate, 1, 1, 1<<20)
	t.MetricsDisabled = envBool(envMetricsDisabled)
	t.SyncVerify = envBool(envSyncVerify)
	t.TestMode = envBool(envTestMode)
	return
}

func envInt(name string, def, min, max int) (v int) {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	var err error
	if v, err = strconv.Atoi(s); err != nil {
		log.W.F("ignoring %s=%s: %v", name, s, err)
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func envBool(name string) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "on", "yes":
		return true
	}
	return false
}
