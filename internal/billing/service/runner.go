package service

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/ledgerly/internal/billing/domain"
	"go.uber.org/zap"
)

// RunForever ticks the billing batch on the configured interval until the
// context is canceled. The cron endpoint can still trigger runs in between;
// the run lock and the period gates keep the two from double invoicing.
func (e *Engine) RunForever(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := e.RunBilling(ctx); err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				e.log.Debug("billing run already in progress, skipping tick")
			} else {
				e.log.Warn("billing run failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
