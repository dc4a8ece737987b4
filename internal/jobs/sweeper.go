package jobs

import (
	"context"
	"time"

	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/services"
)

// Sweeper drives the periodic expiry sweep. It is the only background actor
// in the system; each tick is idempotent, so overlapping deployments running
// their own sweepers do no harm.
type Sweeper struct {
	log      *logger.Logger
	sessions services.SessionService
	interval time.Duration
}

func NewSweeper(log *logger.Logger, sessions services.SessionService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		log:      log.With("job", "Sweeper"),
		sessions: sessions,
		interval: interval,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.log.Info("Expiry sweeper started", "interval", s.interval)
		for {
			select {
			case <-ctx.Done():
				s.log.Info("Expiry sweeper stopped")
				return
			case <-ticker.C:
				if _, err := s.sessions.ExpireSweep(ctx); err != nil {
					s.log.Warn("Expiry sweep failed", "error", err)
				}
			}
		}
	}()
}
