package jobs

import (
	"context"
	"log"
	"time"

	"classline/academy/internal/config"
	"classline/academy/internal/repository"
)

// StartGroupCloseJob periodically marks ACTIVE groups whose end date has
// passed as COMPLETED.
func StartGroupCloseJob(ctx context.Context, cfg config.Config, store *repository.Store) {
	if !cfg.GroupCloseJobEnabled {
		return
	}
	interval := cfg.GroupCloseJobInterval
	if interval <= 0 {
		interval = time.Hour
	}
	timeout := cfg.GroupCloseJobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				closed, err := store.CompleteExpiredGroups(tickCtx, time.Now().UTC())
				cancel()
				if err != nil {
					log.Printf("group close job error: %v", err)
					continue
				}
				if closed > 0 {
					log.Printf("group close job completed %d groups", closed)
				}
			}
		}
	}()
}
