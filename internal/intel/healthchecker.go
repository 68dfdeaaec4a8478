package intel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/health"
)

// DelegateHealthChecker monitors the text-understanding delegate.
type DelegateHealthChecker struct {
	delegate     Delegate
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewDelegateHealthChecker(d Delegate, log zerolog.Logger, probeTimeout time.Duration) *DelegateHealthChecker {
	hc := &DelegateHealthChecker{delegate: d, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0) // start unhealthy until first successful probe
	return hc
}

func (c *DelegateHealthChecker) Name() string    { return "delegate" }
func (c *DelegateHealthChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

func (c *DelegateHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := c.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()
		// Delegates without a specialized probe are assumed reachable;
		// running a real completion per probe would burn tokens.
		p, ok := any(c.delegate).(health.HealthPinger)
		if !ok {
			c.healthy.Store(1)
			return
		}
		if err := p.HealthPing(checkCtx); err != nil {
			c.healthy.Store(0)
			c.log.Error().Str("checker", c.Name()).Err(err).Msg("delegate health check failed")
			return
		}
		c.healthy.Store(1)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
