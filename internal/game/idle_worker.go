package game

import (
	"context"
	"log"
	"time"

	"github.com/playmatatu/carom/internal/config"
)

// StartIdleWorker starts a background worker that stops tables nobody has
// used for cfg.TableIdleMinutes. inUse reports tables that must be kept
// regardless, such as those with connected clients.
func StartIdleWorker(ctx context.Context, m *TableManager, cfg *config.Config, inUse func(id string) bool) {
	if m == nil || cfg == nil || cfg.TableIdleMinutes <= 0 {
		log.Println("[IDLE] Table idle timeout disabled; idle worker not started")
		return
	}

	poll := time.Duration(cfg.IdleWorkerPollSeconds) * time.Second
	if poll <= 0 {
		poll = time.Minute
	}
	idleFor := time.Duration(cfg.TableIdleMinutes) * time.Minute

	log.Printf("[IDLE] Idle worker started (idle after %v, poll every %v)", idleFor, poll)
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case now := <-ticker.C:
				for _, id := range m.ReapIdle(now, idleFor, inUse) {
					log.Printf("[IDLE] table %s stopped after %v idle", id, idleFor)
				}
			}
		}
	}()
}
