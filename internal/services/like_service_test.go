package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"cramingo-backend/internal/models"
	"cramingo-backend/internal/repository"
)

type stubSetStore struct {
	sets map[uuid.UUID]*models.FlashcardSet
}

func (s *stubSetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.FlashcardSet, error) {
	set, ok := s.sets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copySet := *set
	return &copySet, nil
}

type stubLikeStore struct {
	insertCount   int
	insertErr     error
	deleteCount   int
	decremented   bool
	deleteErr     error
	exists        bool
	insertCalls   int
	deleteCalls   int
}

func (s *stubLikeStore) InsertWithCount(ctx context.Context, setID, userID, creatorID uuid.UUID) (int, error) {
	s.insertCalls++
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	return s.insertCount, nil
}

func (s *stubLikeStore) DeleteWithCount(ctx context.Context, setID, userID uuid.UUID) (int, bool, error) {
	s.deleteCalls++
	if s.deleteErr != nil {
		return 0, false, s.deleteErr
	}
	return s.deleteCount, s.decremented, nil
}

func (s *stubLikeStore) Exists(ctx context.Context, setID, userID uuid.UUID) (bool, error) {
	return s.exists, nil
}

type stubUserStore struct {
	adjustments []int
	adjustErr   error
	syncTotal   int
	syncErr     error
	syncCalls   int
}

func (s *stubUserStore) AdjustTotalLikes(ctx context.Context, userID uuid.UUID, delta int) error {
	if s.adjustErr != nil {
		return s.adjustErr
	}
	s.adjustments = append(s.adjustments, delta)
	return nil
}

func (s *stubUserStore) SyncTotalLikes(ctx context.Context, userID uuid.UUID) (int, error) {
	s.syncCalls++
	if s.syncErr != nil {
		return 0, s.syncErr
	}
	return s.syncTotal, nil
}

func likeFixture() (uuid.UUID, uuid.UUID, uuid.UUID, *stubSetStore) {
	setID := uuid.New()
	creatorID := uuid.New()
	likerID := uuid.New()
	sets := &stubSetStore{sets: map[uuid.UUID]*models.FlashcardSet{
		setID: {ID: setID, UserID: creatorID, Title: "Organic Chemistry", Likes: 4, IsPublic: true},
	}}
	return setID, creatorID, likerID, sets
}

func TestLike_IncrementsCounterAndAggregate(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	likes := &stubLikeStore{insertCount: 5}
	users := &stubUserStore{}
	svc := NewLikeService(sets, likes, users, nil)

	count, err := svc.Like(context.Background(), setID, likerID)
	if err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected like count 5, got %d", count)
	}
	if len(users.adjustments) != 1 || users.adjustments[0] != 1 {
		t.Errorf("Expected one +1 aggregate adjustment, got %v", users.adjustments)
	}
}

func TestLike_DuplicateIsConflictAndLeavesAggregateAlone(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	likes := &stubLikeStore{insertErr: repository.ErrAlreadyLiked}
	users := &stubUserStore{}
	svc := NewLikeService(sets, likes, users, nil)

	_, err := svc.Like(context.Background(), setID, likerID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
	if len(users.adjustments) != 0 {
		t.Errorf("Expected no aggregate adjustment on conflict, got %v", users.adjustments)
	}
}

func TestLike_MissingSetIsNotFound(t *testing.T) {
	_, _, likerID, sets := likeFixture()
	svc := NewLikeService(sets, &stubLikeStore{}, &stubUserStore{}, nil)

	_, err := svc.Like(context.Background(), uuid.New(), likerID)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestLike_NilIDsAreValidationErrors(t *testing.T) {
	_, _, likerID, sets := likeFixture()
	svc := NewLikeService(sets, &stubLikeStore{}, &stubUserStore{}, nil)

	_, err := svc.Like(context.Background(), uuid.Nil, likerID)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestLike_AggregateFailureIsSwallowed(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	likes := &stubLikeStore{insertCount: 5}
	users := &stubUserStore{adjustErr: errors.New("connection reset")}
	svc := NewLikeService(sets, likes, users, nil)

	// The like has committed; aggregate drift is repaired later, never
	// surfaced to the caller.
	count, err := svc.Like(context.Background(), setID, likerID)
	if err != nil {
		t.Fatalf("Expected like to succeed despite aggregate failure, got %v", err)
	}
	if count != 5 {
		t.Errorf("Expected like count 5, got %d", count)
	}
}

func TestUnlike_DecrementsCounterAndAggregate(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	likes := &stubLikeStore{deleteCount: 3, decremented: true}
	users := &stubUserStore{}
	svc := NewLikeService(sets, likes, users, nil)

	count, err := svc.Unlike(context.Background(), setID, likerID)
	if err != nil {
		t.Fatalf("Unlike failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected like count 3, got %d", count)
	}
	if len(users.adjustments) != 1 || users.adjustments[0] != -1 {
		t.Errorf("Expected one -1 aggregate adjustment, got %v", users.adjustments)
	}
}

func TestUnlike_AbsentEdgeIsNotFound(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	likes := &stubLikeStore{deleteErr: repository.ErrNotLiked}
	svc := NewLikeService(sets, likes, &stubUserStore{}, nil)

	_, err := svc.Unlike(context.Background(), setID, likerID)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestUnlike_ClampedCounterSkipsAggregate(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	// Edge existed but the counter was already at zero: no decrement happened,
	// so the owner aggregate must not move either.
	likes := &stubLikeStore{deleteCount: 0, decremented: false}
	users := &stubUserStore{}
	svc := NewLikeService(sets, likes, users, nil)

	count, err := svc.Unlike(context.Background(), setID, likerID)
	if err != nil {
		t.Fatalf("Unlike failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected clamped count 0, got %d", count)
	}
	if len(users.adjustments) != 0 {
		t.Errorf("Expected no aggregate adjustment when counter clamped, got %v", users.adjustments)
	}
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	likes := &stubLikeStore{insertCount: 5, deleteCount: 4, decremented: true}
	users := &stubUserStore{}
	svc := NewLikeService(sets, likes, users, nil)

	if _, err := svc.Like(context.Background(), setID, likerID); err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	if _, err := svc.Unlike(context.Background(), setID, likerID); err != nil {
		t.Fatalf("Unlike failed: %v", err)
	}

	net := 0
	for _, d := range users.adjustments {
		net += d
	}
	if net != 0 {
		t.Errorf("Expected net zero aggregate movement after round trip, got %d (%v)", net, users.adjustments)
	}
}

func TestHasLiked(t *testing.T) {
	setID, _, likerID, sets := likeFixture()
	svc := NewLikeService(sets, &stubLikeStore{exists: true}, &stubUserStore{}, nil)

	liked, err := svc.HasLiked(context.Background(), setID, likerID)
	if err != nil {
		t.Fatalf("HasLiked failed: %v", err)
	}
	if !liked {
		t.Error("Expected has_liked true")
	}
}

func TestSetLikeCount(t *testing.T) {
	setID, _, _, sets := likeFixture()
	svc := NewLikeService(sets, &stubLikeStore{}, &stubUserStore{}, nil)

	count, err := svc.SetLikeCount(context.Background(), setID)
	if err != nil {
		t.Fatalf("SetLikeCount failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected counter value 4, got %d", count)
	}

	_, err = svc.SetLikeCount(context.Background(), uuid.New())
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for missing set, got %v", err)
	}
}

func TestSyncUserTotalLikes(t *testing.T) {
	_, creatorID, _, sets := likeFixture()
	users := &stubUserStore{syncTotal: 12}
	svc := NewLikeService(sets, &stubLikeStore{}, users, nil)

	total, err := svc.SyncUserTotalLikes(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("SyncUserTotalLikes failed: %v", err)
	}
	if total != 12 {
		t.Errorf("Expected recomputed total 12, got %d", total)
	}

	// Idempotent: running it again lands on the same value
	again, err := svc.SyncUserTotalLikes(context.Background(), creatorID)
	if err != nil || again != total {
		t.Errorf("Expected repeat sync to return %d, got %d (%v)", total, again, err)
	}

	users.syncErr = pgx.ErrNoRows
	_, err = svc.SyncUserTotalLikes(context.Background(), creatorID)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for missing user, got %v", err)
	}
}
