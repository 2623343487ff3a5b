package sharegrants

import (
	"context"
	"time"

	"family-health-records/internal/platform/logger"
)

// StartRetentionJob purga periódicamente grants vencidos hace más de maxAge.
// Corre hasta que ctx se cancela. interval <= 0 no arranca nada.
func (s *Service) StartRetentionJob(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.PurgeExpired(ctx, maxAge); err != nil {
					s.log.Warn("retention job failed", logger.Err(err))
				}
			}
		}
	}()
}
