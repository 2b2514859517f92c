package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"cramingo-backend/internal/models"
	"cramingo-backend/internal/repository"
)

// SyncLikesQueue carries user IDs whose total_likes aggregate needs
// recomputation. The worker pool drains it.
const SyncLikesQueue = "queue:sync-user-likes"

type setStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FlashcardSet, error)
}

type likeStore interface {
	InsertWithCount(ctx context.Context, setID, userID, creatorID uuid.UUID) (int, error)
	DeleteWithCount(ctx context.Context, setID, userID uuid.UUID) (int, bool, error)
	Exists(ctx context.Context, setID, userID uuid.UUID) (bool, error)
}

type userLikesStore interface {
	AdjustTotalLikes(ctx context.Context, userID uuid.UUID, delta int) error
	SyncTotalLikes(ctx context.Context, userID uuid.UUID) (int, error)
}

// LikeService keeps the three denormalized pieces of like state consistent:
// the set_likes edge, flashcard_sets.likes, and users.total_likes.
//
// The edge and the set counter move together in one transaction. The owner
// aggregate is a best-effort follow-up write outside that transaction; when
// it fails, the user lands on the sync queue and SyncUserTotalLikes repairs
// the drift. That boundary is deliberate — see DESIGN.md.
type LikeService struct {
	sets  setStore
	likes likeStore
	users userLikesStore
	redis *redis.Client
}

func NewLikeService(sets setStore, likes likeStore, users userLikesStore, redisClient *redis.Client) *LikeService {
	return &LikeService{
		sets:  sets,
		likes: likes,
		users: users,
		redis: redisClient,
	}
}

// Like records userID liking setID and returns the new like count.
func (s *LikeService) Like(ctx context.Context, setID, userID uuid.UUID) (int, error) {
	if setID == uuid.Nil || userID == uuid.Nil {
		return 0, &ValidationError{Fields: map[string]string{"set_id": "set_id and user_id are required"}}
	}

	set, err := s.sets.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Message: "Set not found"}
		}
		return 0, err
	}

	likes, err := s.likes.InsertWithCount(ctx, setID, userID, set.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return 0, &ConflictError{Message: "Set already liked"}
		}
		return 0, err
	}

	// Best-effort aggregate bump. The like itself has committed; a failure
	// here is repaired later by the sync path, never surfaced to the caller.
	if err := s.users.AdjustTotalLikes(ctx, set.UserID, 1); err != nil {
		log.Printf("like: total_likes increment failed for user %s: %v", set.UserID, err)
		s.enqueueSync(ctx, set.UserID)
	}

	s.publishLikeNotification(ctx, set, userID, likes)

	return likes, nil
}

// Unlike removes userID's like of setID and returns the new like count,
// floored at zero.
func (s *LikeService) Unlike(ctx context.Context, setID, userID uuid.UUID) (int, error) {
	if setID == uuid.Nil || userID == uuid.Nil {
		return 0, &ValidationError{Fields: map[string]string{"set_id": "set_id and user_id are required"}}
	}

	set, err := s.sets.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Message: "Set not found"}
		}
		return 0, err
	}

	likes, decremented, err := s.likes.DeleteWithCount(ctx, setID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotLiked) {
			return 0, &NotFoundError{Message: "Like not found"}
		}
		return 0, err
	}

	// Only reverse the owner aggregate when the set counter actually moved.
	if decremented {
		if err := s.users.AdjustTotalLikes(ctx, set.UserID, -1); err != nil {
			log.Printf("unlike: total_likes decrement failed for user %s: %v", set.UserID, err)
			s.enqueueSync(ctx, set.UserID)
		}
	}

	return likes, nil
}

// HasLiked reports whether a like edge exists for the pair. Pure read.
func (s *LikeService) HasLiked(ctx context.Context, setID, userID uuid.UUID) (bool, error) {
	if setID == uuid.Nil || userID == uuid.Nil {
		return false, &ValidationError{Fields: map[string]string{"set_id": "set_id and user_id are required"}}
	}
	return s.likes.Exists(ctx, setID, userID)
}

// SetLikeCount returns the denormalized counter on the set. Pure read.
func (s *LikeService) SetLikeCount(ctx context.Context, setID uuid.UUID) (int, error) {
	set, err := s.sets.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Message: "Set not found"}
		}
		return 0, err
	}
	return set.Likes, nil
}

// SyncUserTotalLikes recomputes the user's aggregate from the sets they own.
// Idempotent and safe to call concurrently with in-flight likes.
func (s *LikeService) SyncUserTotalLikes(ctx context.Context, userID uuid.UUID) (int, error) {
	total, err := s.users.SyncTotalLikes(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Message: "User not found"}
		}
		return 0, err
	}
	return total, nil
}

// EnqueueSync schedules an asynchronous aggregate recomputation for userID.
func (s *LikeService) EnqueueSync(ctx context.Context, userID uuid.UUID) {
	s.enqueueSync(ctx, userID)
}

func (s *LikeService) enqueueSync(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.LPush(ctx, SyncLikesQueue, userID.String()).Err(); err != nil {
		log.Printf("failed to enqueue likes sync for user %s: %v", userID, err)
	}
}

func (s *LikeService) publishLikeNotification(ctx context.Context, set *models.FlashcardSet, likedBy uuid.UUID, likes int) {
	if s.redis == nil || set.UserID == likedBy {
		return
	}

	data, _ := json.Marshal(models.WSMessage{
		Type: "set_liked",
		Payload: models.LikeNotification{
			SetID:      set.ID,
			SetTitle:   set.Title,
			LikedBy:    likedBy,
			LikesCount: likes,
		},
	})
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", set.UserID.String()), string(data))
}
