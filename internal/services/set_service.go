package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"cramingo-backend/internal/models"
)

type setFullStore interface {
	Create(ctx context.Context, s *models.FlashcardSet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FlashcardSet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardSet, error)
	SearchPublic(ctx context.Context, search string, limit, offset int) ([]*models.FlashcardSet, error)
	Update(ctx context.Context, s *models.FlashcardSet) error
	DeleteWithCascade(ctx context.Context, setID uuid.UUID) (uuid.UUID, int, error)
}

// SetService owns flashcard-set CRUD, card validation, derived copies, and
// the delete cascade that reverses the owner's like aggregate.
type SetService struct {
	sets  setFullStore
	users userLikesStore
	redis *redis.Client
}

func NewSetService(sets setFullStore, users userLikesStore, redisClient *redis.Client) *SetService {
	return &SetService{sets: sets, users: users, redis: redisClient}
}

// validateCards enforces the both-sides rule: every card needs text or an
// image on the question side and on the answer side.
func validateCards(cards []models.Flashcard) map[string]string {
	fieldErrors := make(map[string]string)
	if len(cards) == 0 {
		fieldErrors["cards"] = "At least one flashcard is required"
		return fieldErrors
	}
	for i, card := range cards {
		if !card.HasQuestionContent() {
			fieldErrors[fmt.Sprintf("cards[%d].question", i)] = "Question needs text or an image"
		}
		if !card.HasAnswerContent() {
			fieldErrors[fmt.Sprintf("cards[%d].answer", i)] = "Answer needs text or an image"
		}
	}
	return fieldErrors
}

func (s *SetService) Create(ctx context.Context, userID uuid.UUID, req models.CreateSetRequest) (*models.FlashcardSet, error) {
	fieldErrors := validateCards(req.Cards)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	set := &models.FlashcardSet{
		UserID:      userID,
		Title:       req.Title,
		ClassCode:   req.ClassCode,
		Description: req.Description,
		Cards:       req.Cards,
		IsPublic:    req.IsPublic,
	}
	if err := s.sets.Create(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// Get returns the set if it is public or owned by requesterID. Private sets
// are indistinguishable from missing ones for strangers.
func (s *SetService) Get(ctx context.Context, id, requesterID uuid.UUID) (*models.FlashcardSet, error) {
	set, err := s.sets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Set not found"}
		}
		return nil, err
	}
	if !set.IsPublic && set.UserID != requesterID {
		return nil, &NotFoundError{Message: "Set not found"}
	}
	return set, nil
}

func (s *SetService) ListMine(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardSet, error) {
	return s.sets.ListByUser(ctx, userID)
}

func (s *SetService) SearchPublic(ctx context.Context, search string, limit, offset int) ([]*models.FlashcardSet, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.sets.SearchPublic(ctx, search, limit, offset)
}

func (s *SetService) Update(ctx context.Context, id, requesterID uuid.UUID, req models.UpdateSetRequest) (*models.FlashcardSet, error) {
	set, err := s.sets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Set not found"}
		}
		return nil, err
	}
	if set.UserID != requesterID {
		return nil, &ForbiddenError{Message: "Only the owner can update a set"}
	}

	fieldErrors := validateCards(req.Cards)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	set.Title = req.Title
	set.ClassCode = req.ClassCode
	set.Description = req.Description
	set.Cards = req.Cards
	set.IsPublic = req.IsPublic

	if err := s.sets.Update(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// Delete removes the set and its like edges, then best-effort reverses the
// owner aggregate by the set's like count at deletion. Aggregate failure is
// logged and queued for sync, never returned.
func (s *SetService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	set, err := s.sets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Set not found"}
		}
		return err
	}
	if set.UserID != requesterID {
		return &ForbiddenError{Message: "Only the owner can delete a set"}
	}

	ownerID, likeCount, err := s.sets.DeleteWithCascade(ctx, id)
	if err != nil {
		return err
	}

	if likeCount > 0 {
		if err := s.users.AdjustTotalLikes(ctx, ownerID, -likeCount); err != nil {
			log.Printf("delete set: total_likes reversal failed for user %s: %v", ownerID, err)
			if s.redis != nil {
				if qerr := s.redis.LPush(ctx, SyncLikesQueue, ownerID.String()).Err(); qerr != nil {
					log.Printf("failed to enqueue likes sync for user %s: %v", ownerID, qerr)
				}
			}
		}
	}
	return nil
}

// SaveCopy creates a derived copy of a public set under requesterID, with
// likes reset and provenance recorded.
func (s *SetService) SaveCopy(ctx context.Context, id, requesterID uuid.UUID) (*models.FlashcardSet, error) {
	set, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if set.UserID == requesterID {
		return nil, &ConflictError{Message: "You already own this set"}
	}

	originalID := set.ID
	originalCreator := set.UserID
	copySet := &models.FlashcardSet{
		UserID:            requesterID,
		Title:             set.Title,
		ClassCode:         set.ClassCode,
		Description:       set.Description,
		Cards:             set.Cards,
		IsPublic:          false,
		IsDerived:         true,
		OriginalSetID:     &originalID,
		OriginalCreatorID: &originalCreator,
	}
	if err := s.sets.Create(ctx, copySet); err != nil {
		return nil, err
	}
	return copySet, nil
}
