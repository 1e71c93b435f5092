package bacsim

import (
	"sync/atomic"
	"time"
)

// Counter is a thread-safe counter
type Counter struct {
	value int64
}

// Add adds a delta to the counter
func (c *Counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	c.Add(1)
}

// Value returns the current counter value
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Reset resets the counter to 0
func (c *Counter) Reset() {
	atomic.StoreInt64(&c.value, 0)
}

// Gauge is a thread-safe gauge that can go up and down
type Gauge struct {
	value int64
}

// Set sets the gauge value
func (g *Gauge) Set(value int64) {
	atomic.StoreInt64(&g.value, value)
}

// Add adds a delta to the gauge
func (g *Gauge) Add(delta int64) {
	atomic.AddInt64(&g.value, delta)
}

// Inc increments the gauge by 1
func (g *Gauge) Inc() {
	g.Add(1)
}

// Dec decrements the gauge by 1
func (g *Gauge) Dec() {
	g.Add(-1)
}

// Value returns the current gauge value
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}

// Metrics holds harness metrics: simulation tick activity plus the traffic
// served to the external engine through the facade.
type Metrics struct {
	// Simulation metrics
	TicksApplied Counter
	TickFailures Counter

	// Facade metrics
	ReadsServed    Counter
	ReadsFailed    Counter
	WritesApplied  Counter
	WritesRejected Counter

	// Current state
	ActiveTasks Gauge

	// Timestamps
	startTime    time.Time
	lastActivity atomic.Int64
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordActivity records the last activity time
func (m *Metrics) RecordActivity() {
	m.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the last activity time
func (m *Metrics) LastActivity() time.Time {
	ns := m.lastActivity.Load()
	if ns == 0 {
		return m.startTime
	}
	return time.Unix(0, ns)
}

// Uptime returns the time since metrics started
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.TicksApplied.Reset()
	m.TickFailures.Reset()
	m.ReadsServed.Reset()
	m.ReadsFailed.Reset()
	m.WritesApplied.Reset()
	m.WritesRejected.Reset()
	m.ActiveTasks.Set(0)
	m.startTime = time.Now()
	m.lastActivity.Store(0)
}

// Snapshot returns a snapshot of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Uptime: m.Uptime(),

		TicksApplied: m.TicksApplied.Value(),
		TickFailures: m.TickFailures.Value(),

		ReadsServed:    m.ReadsServed.Value(),
		ReadsFailed:    m.ReadsFailed.Value(),
		WritesApplied:  m.WritesApplied.Value(),
		WritesRejected: m.WritesRejected.Value(),

		ActiveTasks: m.ActiveTasks.Value(),

		LastActivity: m.LastActivity(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Uptime time.Duration

	TicksApplied int64
	TickFailures int64

	ReadsServed    int64
	ReadsFailed    int64
	WritesApplied  int64
	WritesRejected int64

	ActiveTasks int64

	LastActivity time.Time
}
