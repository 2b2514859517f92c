package worker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cramingo-backend/internal/services"
)

// Pool drains the like-aggregate reconciliation queue. Jobs are user IDs
// whose total_likes may have drifted from the per-set counters; the sync
// recomputes from ground truth and is idempotent, so retries and duplicate
// enqueues are harmless.
type Pool struct {
	redis       *redis.Client
	likes       likeSyncer
	workerCount int
	stopChan    chan struct{}
}

type likeSyncer interface {
	SyncUserTotalLikes(ctx context.Context, userID uuid.UUID) (int, error)
}

var _ likeSyncer = (*services.LikeService)(nil)

func NewPool(redisClient *redis.Client, likes likeSyncer, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		likes:       likes,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.SyncLikesQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		userID, err := uuid.Parse(result[1])
		if err != nil {
			log.Printf("Worker %d: malformed sync job %q: %v", id, result[1], err)
			continue
		}

		// SetNX dedup lock; a burst of likes for one user collapses to one sync
		lockKey := "sync_likes_lock:" + userID.String()
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 30*time.Second).Result()
		if err != nil || !locked {
			continue // Another worker has this user
		}

		total, err := p.likes.SyncUserTotalLikes(ctx, userID)
		if err != nil {
			// Requeue once the lock expires; the next attempt recomputes fresh
			log.Printf("Worker %d: likes sync failed for user %s: %v", id, userID, err)
			p.redis.LPush(ctx, services.SyncLikesQueue, userID.String())
		} else {
			log.Printf("Worker %d: synced total_likes=%d for user %s", id, total, userID)
		}

		p.redis.Del(ctx, lockKey)
	}
}
