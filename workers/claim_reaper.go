package workers

import (
	"context"
	"log"
	"time"

	"event-reward-system/store"

	"github.com/go-co-op/gocron/v2"
)

// StartClaimReaper schedules periodic removal of PENDING claims older than the
// TTL. A PENDING row in storage means a submission was interrupted mid-flight
// (or a future manual-review flow parked it); without the reaper those users
// would be told "in progress" forever. Terminal claims are never touched.
func StartClaimReaper(ctx context.Context, claims store.ClaimStore, ttl time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-ttl)
			removed, err := claims.DeleteStalePending(ctx, cutoff)
			if err != nil {
				log.Printf("[REAPER] failed to delete stale pending claims: %v", err)
				return
			}
			if removed > 0 {
				log.Printf("✅ [REAPER] removed %d stale pending claim(s)", removed)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
