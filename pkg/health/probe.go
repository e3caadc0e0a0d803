package health

import (
	"context"
	"log/slog"
	"time"
)

// PingFunc checks upstream reachability, typically upstream.Client.Health.
type PingFunc func(ctx context.Context) error

// Probe drives the Checker from periodic upstream health checks.
type Probe struct {
	checker  *Checker
	ping     PingFunc
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProbe creates a probe over checker using ping.
func NewProbe(checker *Checker, ping PingFunc, interval time.Duration, log *slog.Logger) *Probe {
	if log == nil {
		log = slog.Default()
	}
	return &Probe{checker: checker, ping: ping, interval: interval, log: log}
}

// Start pings immediately, then at the configured interval until Close.
// Each successful ping marks the console ready; each failure marks the
// upstream unreachable. Draining is terminal and never overwritten.
func (p *Probe) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		p.check(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.check(ctx)
			}
		}
	}()
}

func (p *Probe) check(ctx context.Context) {
	if p.checker.State() == "draining" {
		return
	}
	if err := p.ping(ctx); err != nil {
		if ctx.Err() == nil {
			p.log.Warn("upstream health check failed", "error", err)
			p.checker.SetUnreachable()
		}
		return
	}
	p.checker.SetReady()
}

// Close stops the probe goroutine and waits for it to exit.
func (p *Probe) Close() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}
