package authclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digitalchief/clientauth/internal/logging"
)

// statusFunc is the slice of Client the monitor needs; tests drive the
// loop with a scripted one.
type statusFunc func(ctx context.Context) error

// MonitorConfig carries the knobs for a Monitor. Zero values fall back
// to safe defaults.
type MonitorConfig struct {
	Interval    time.Duration
	RetryDelay  time.Duration
	MaxFailures int

	// OnRevoked is called exactly once with a human-readable message
	// when the session is authoritatively no longer valid. Nil means
	// log and stop.
	OnRevoked func(message string)

	// OnWarning is called each time MaxFailures consecutive network
	// failures accumulate. Nil means log a warning.
	OnWarning func(message string)

	Logger logging.Logger
}

// Monitor periodically re-validates the session in a single background
// goroutine. Checks are strictly sequential: a new check never starts
// while a previous one is outstanding.
//
// Network failures are counted and retried; an authoritative revocation
// (or any non-network authorization error, which is treated the same to
// fail closed) stops the loop permanently. A stopped monitor cannot be
// restarted; create a fresh one.
type Monitor struct {
	check       statusFunc
	interval    time.Duration
	retryDelay  time.Duration
	maxFailures int
	onRevoked   func(string)
	onWarning   func(string)
	log         logging.Logger

	started   atomic.Bool
	stopOnce  sync.Once
	startOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewMonitor builds a monitor bound to the given client. It does not
// start the loop; call Start.
func NewMonitor(client *Client, cfg MonitorConfig) *Monitor {
	return newMonitor(func(ctx context.Context) error {
		_, err := client.CheckStatus(ctx)
		return err
	}, cfg)
}

func newMonitor(check statusFunc, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Monitor{
		check:       check,
		interval:    cfg.Interval,
		retryDelay:  cfg.RetryDelay,
		maxFailures: cfg.MaxFailures,
		onRevoked:   cfg.OnRevoked,
		onWarning:   cfg.OnWarning,
		log:         cfg.Logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the background loop. Subsequent calls are no-ops.
// Cancelling ctx stops the loop the same way Stop does.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.started.Store(true)
		go m.run(ctx)
	})
}

// Stop signals the loop to exit and waits for it with a bounded timeout,
// so callers never hang on shutdown. Safe to call multiple times and
// after the loop already stopped itself.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	if !m.started.Load() {
		return
	}
	select {
	case <-m.doneCh:
	case <-time.After(m.retryDelay + time.Second):
	}
}

// Done is closed when the loop has exited, whether via Stop, context
// cancellation or revocation.
func (m *Monitor) Done() <-chan struct{} { return m.doneCh }

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)

	failures := 0
	for {
		if !m.wait(ctx, m.interval) {
			return
		}

		err := m.check(ctx)
		switch {
		case err == nil:
			failures = 0

		case IsNetworkError(err):
			failures++
			m.log.Warn(ctx, "status check failed",
				"error", err, "consecutive_failures", failures)
			if failures >= m.maxFailures {
				m.warn(ctx, err.Error())
				failures = 0
			}
			if !m.wait(ctx, m.retryDelay) {
				return
			}

		default:
			// Revocation, or an ambiguous protocol error: fail
			// closed either way.
			m.revoke(ctx, revocationMessage(err))
			return
		}
	}
}

// wait sleeps for d, returning false when interrupted by Stop or ctx.
func (m *Monitor) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-m.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (m *Monitor) warn(ctx context.Context, message string) {
	if m.onWarning != nil {
		m.onWarning(message)
		return
	}
	m.log.Warn(ctx, "授权状态检查连续失败", "message", message)
}

func (m *Monitor) revoke(ctx context.Context, message string) {
	if m.onRevoked != nil {
		m.onRevoked(message)
		return
	}
	m.log.Error(ctx, "授权已失效", "message", message)
}
