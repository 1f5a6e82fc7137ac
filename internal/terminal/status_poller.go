package terminal

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const DefaultPollInterval = 30 * time.Second

// StatusSource reports whether a terminal is still allowed to trade.
type StatusSource interface {
	TerminalStatus(ctx context.Context, terminalID int64) (bool, error)
}

// StatusPoller checks every live terminal on a fixed interval and forces a
// logout on terminals the backend reports inactive. It never touches carts.
type StatusPoller struct {
	source   StatusSource
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewStatusPoller(source StatusSource, registry *Registry, interval time.Duration, log *zap.Logger) *StatusPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusPoller{
		source:   source,
		registry: registry,
		interval: interval,
		timeout:  interval,
		log:      log,
	}
}

func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.PollOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// PollOnce checks all sessions once. A failed status call keeps the session
// as it is.
func (p *StatusPoller) PollOnce(ctx context.Context) {
	for _, s := range p.registry.Sessions() {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		active, err := p.source.TerminalStatus(callCtx, s.ID())
		cancel()
		if err != nil {
			p.log.Warn("terminal status check failed", zap.Int64("terminal_id", s.ID()), zap.Error(err))
			continue
		}
		if !active && s.Deactivate() {
			p.log.Warn("terminal deactivated, forcing logout", zap.Int64("terminal_id", s.ID()))
		}
		if active && s.Reactivate() {
			p.log.Info("terminal reactivated", zap.Int64("terminal_id", s.ID()))
		}
	}
}
