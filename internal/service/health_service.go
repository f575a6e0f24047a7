package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cinewave/watchparty/internal/domain"
)

// DisconnectFunc tears down a connection's state. The monitor calls it for
// stale connections, so a reaped connection goes through exactly the same
// cascade as a natural disconnect.
type DisconnectFunc func(connID string)

// Monitor tracks per-connection liveness. It probes every tracked
// connection on a fixed interval and reaps those whose last acknowledgment
// is older than the staleness threshold.
type Monitor struct {
	mu      sync.Mutex
	lastAck map[string]time.Time

	probeEvery time.Duration
	sweepEvery time.Duration
	staleAfter time.Duration

	sender  Sender
	onStale DisconnectFunc
	log     *slog.Logger
}

func NewMonitor(sender Sender, probeEvery, sweepEvery, staleAfter time.Duration, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		lastAck:    make(map[string]time.Time),
		probeEvery: probeEvery,
		sweepEvery: sweepEvery,
		staleAfter: staleAfter,
		sender:     sender,
		log:        log,
	}
}

// SetDisconnectFunc wires the reap path to the disconnect cascade. Must be
// set before Run.
func (m *Monitor) SetDisconnectFunc(fn DisconnectFunc) {
	m.onStale = fn
}

func (m *Monitor) Track(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAck[connID] = time.Now()
}

// Ack refreshes the liveness timestamp for a tracked connection. Unknown
// connections are ignored; a reaped connection cannot resurrect itself.
func (m *Monitor) Ack(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lastAck[connID]; ok {
		m.lastAck[connID] = time.Now()
	}
}

func (m *Monitor) Forget(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lastAck, connID)
}

func (m *Monitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastAck)
}

// Run drives the probe and sweep timers until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	probe := time.NewTicker(m.probeEvery)
	sweep := time.NewTicker(m.sweepEvery)
	defer probe.Stop()
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-probe.C:
			m.probe()
		case <-sweep.C:
			m.Sweep()
		}
	}
}

func (m *Monitor) probe() {
	event := domain.NewEvent(domain.EventPing, domain.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	})

	for _, connID := range m.tracked() {
		m.sender.ToConnection(connID, event)
	}
}

// Sweep reaps every connection whose last acknowledgment is too old.
func (m *Monitor) Sweep() {
	now := time.Now()

	m.mu.Lock()
	stale := make([]string, 0)
	for connID, last := range m.lastAck {
		if now.Sub(last) > m.staleAfter {
			stale = append(stale, connID)
			delete(m.lastAck, connID)
		}
	}
	m.mu.Unlock()

	for _, connID := range stale {
		m.log.Info("reaping stale connection", slog.String("conn", connID))
		if m.onStale != nil {
			m.onStale(connID)
		}
	}
}

func (m *Monitor) tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.lastAck))
	for connID := range m.lastAck {
		ids = append(ids, connID)
	}
	return ids
}
