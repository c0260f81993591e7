package worker

import (
	"context"
	"log"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/internal/service"
)

// tokenRetention is how long ledger rows outlive their token's expiry
// before the sweep removes them
const tokenRetention = 24 * time.Hour

// MaintenanceWorker periodically deactivates fitness goals whose deadline
// has passed and purges long-expired refresh token ledger rows. Goal
// deactivation also bumps the affected users' cache versions so stale
// recommendation pages become unreachable.
type MaintenanceWorker struct {
	goalRepo     *repository.GoalRepository
	tokenService *service.TokenService
	store        cache.Store
	interval     time.Duration
	stopChan     chan struct{}
}

// NewMaintenanceWorker creates a new MaintenanceWorker
func NewMaintenanceWorker(
	goalRepo *repository.GoalRepository,
	tokenService *service.TokenService,
	store cache.Store,
	interval time.Duration,
) *MaintenanceWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &MaintenanceWorker{
		goalRepo:     goalRepo,
		tokenService: tokenService,
		store:        store,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the maintenance loop
func (w *MaintenanceWorker) Start() {
	log.Printf("Maintenance worker started with interval: %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			log.Println("Maintenance worker stopped")
			return
		}
	}
}

// Stop stops the maintenance loop
func (w *MaintenanceWorker) Stop() {
	close(w.stopChan)
}

// sweep runs one maintenance pass. Each pass gets its own deadline so a
// stuck database cannot wedge the loop.
func (w *MaintenanceWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now().UTC()

	userIDs, err := w.goalRepo.DeactivateAllExpired(ctx, now)
	if err != nil {
		log.Printf("Maintenance worker: failed to deactivate expired goals: %v", err)
	} else if len(userIDs) > 0 {
		log.Printf("Maintenance worker: deactivated expired goals for %d users", len(userIDs))
		for _, userID := range userIDs {
			if _, err := w.store.Incr(ctx, cache.UserVersionKey(userID)); err != nil {
				log.Printf("Maintenance worker: failed to bump cache version for user %d: %v", userID, err)
			}
		}
	}

	purged, err := w.tokenService.PurgeExpired(ctx, tokenRetention)
	if err != nil {
		log.Printf("Maintenance worker: failed to purge expired refresh tokens: %v", err)
	} else if purged > 0 {
		log.Printf("Maintenance worker: purged %d expired refresh tokens", purged)
	}
}
