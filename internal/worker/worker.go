// Package worker moves map summaries off the hook thread. Submit only queues;
// a single goroutine drains the queue into a storage backend.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/queue"
	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
)

// DefaultQueueLimit bounds the pending summaries; the oldest is dropped beyond it.
const DefaultQueueLimit = 256

// Stats is a snapshot of the writer counters.
type Stats struct {
	Queued    int
	Written   uint64
	Failed    uint64
	Dropped   uint64
	LastWrite time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithQueueLimit overrides DefaultQueueLimit.
func WithQueueLimit(n int) Option {
	return func(m *Manager) {
		m.limit = n
	}
}

// Manager is the background summary writer.
type Manager struct {
	backend storage.Backend
	logger  diag.Logger
	limit   int

	queue *queue.Queue[core.MapSummary]
	wake  chan struct{}
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	written   atomic.Uint64
	failed    atomic.Uint64
	lastWrite atomic.Int64

	metrics *metrics
}

// NewManager creates a writer for backend. Metrics come from the global
// OTel meter.
func NewManager(backend storage.Backend, logger diag.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		backend: backend,
		logger:  diag.OrNop(logger),
		limit:   DefaultQueueLimit,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = queue.NewLimited[core.MapSummary](m.limit)

	met, err := newMetrics(m)
	if err != nil {
		return nil, err
	}
	m.metrics = met
	return m, nil
}

// Start launches the drain goroutine. Calling it twice is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	m.wg.Add(1)
	go m.loop()
}

// Submit queues s for writing. It never blocks and returns false once the
// writer has been stopped.
func (m *Manager) Submit(s core.MapSummary) bool {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return false
	}

	if over := m.queue.Push(s); over > 0 {
		m.metrics.dropped.Add(context.Background(), int64(over))
		m.logger.Warn("summary queue full, oldest dropped", "dropped", over, "limit", m.limit)
	}
	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// Stop drains what is queued and waits for the goroutine, or for ctx.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	started := m.started
	close(m.done)
	m.mu.Unlock()

	if !started {
		m.drain()
		return nil
	}

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping summary writer: %w", ctx.Err())
	}
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Queued:    m.queue.Len(),
		Written:   m.written.Load(),
		Failed:    m.failed.Load(),
		Dropped:   m.queue.Dropped(),
		LastWrite: time.Duration(m.lastWrite.Load()),
	}
}

// LastWriteDuration returns how long the last backend write took.
func (m *Manager) LastWriteDuration() time.Duration {
	return time.Duration(m.lastWrite.Load())
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.wake:
			m.drain()
		case <-m.done:
			m.drain()
			return
		}
	}
}

func (m *Manager) drain() {
	for _, s := range m.queue.GetAndEmpty() {
		m.write(s)
	}
}

func (m *Manager) write(s core.MapSummary) {
	start := time.Now()
	err := m.backend.RecordMapSummary(&s)
	m.lastWrite.Store(int64(time.Since(start)))

	if err != nil {
		m.failed.Add(1)
		m.metrics.failed.Add(context.Background(), 1)
		m.logger.Error("map summary write failed", "generation", s.Generation, "error", err)
		return
	}
	m.written.Add(1)
	m.metrics.written.Add(context.Background(), 1)
	m.logger.Debug("map summary written", "generation", s.Generation, "duration", time.Since(start))
}

type metrics struct {
	written metric.Int64Counter
	failed  metric.Int64Counter
	dropped metric.Int64Counter
}

func newMetrics(m *Manager) (*metrics, error) {
	mt := meter()
	out := &metrics{}
	var err error

	queued, err := mt.Int64ObservableGauge(
		"worker.queue.size",
		metric.WithDescription("Map summaries waiting to be written"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(queued, int64(m.queue.Len()))
		return nil
	}, queued)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if out.written, err = mt.Int64Counter("worker.summaries.written",
		metric.WithDescription("Map summaries written to storage")); err != nil {
		return nil, fmt.Errorf("creating written counter: %w", err)
	}
	if out.failed, err = mt.Int64Counter("worker.summaries.failed",
		metric.WithDescription("Map summaries the backend rejected")); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	if out.dropped, err = mt.Int64Counter("worker.summaries.dropped",
		metric.WithDescription("Map summaries dropped due to full queue")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return out, nil
}
