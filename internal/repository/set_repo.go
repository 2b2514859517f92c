package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cramingo-backend/internal/models"
)

type SetRepo struct {
	pool *pgxpool.Pool
}

func NewSetRepo(pool *pgxpool.Pool) *SetRepo {
	return &SetRepo{pool: pool}
}

const setColumns = `id, user_id, title, class_code, description, cards_json, num_cards,
	is_public, likes, is_derived, original_set_id, original_creator_id, created_at`

func scanSet(row interface{ Scan(...any) error }) (*models.FlashcardSet, error) {
	s := &models.FlashcardSet{}
	var cardsBytes []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.Title, &s.ClassCode, &s.Description, &cardsBytes,
		&s.NumCards, &s.IsPublic, &s.Likes, &s.IsDerived,
		&s.OriginalSetID, &s.OriginalCreatorID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cardsBytes, &s.Cards); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SetRepo) Create(ctx context.Context, s *models.FlashcardSet) error {
	s.ID = uuid.New()
	s.NumCards = len(s.Cards)
	cardsBytes, err := json.Marshal(s.Cards)
	if err != nil {
		return err
	}

	query := `INSERT INTO flashcard_sets
		(id, user_id, title, class_code, description, cards_json, num_cards,
		 is_public, is_derived, original_set_id, original_creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING likes, created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.Title, s.ClassCode, s.Description, cardsBytes, s.NumCards,
		s.IsPublic, s.IsDerived, s.OriginalSetID, s.OriginalCreatorID,
	).Scan(&s.Likes, &s.CreatedAt)
}

func (r *SetRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FlashcardSet, error) {
	query := `SELECT ` + setColumns + ` FROM flashcard_sets WHERE id = $1`
	return scanSet(r.pool.QueryRow(ctx, query, id))
}

func (r *SetRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardSet, error) {
	query := `SELECT ` + setColumns + ` FROM flashcard_sets
		WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*models.FlashcardSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// SearchPublic matches title or class code, most-liked first.
func (r *SetRepo) SearchPublic(ctx context.Context, search string, limit, offset int) ([]*models.FlashcardSet, error) {
	query := `SELECT ` + setColumns + ` FROM flashcard_sets
		WHERE is_public = TRUE
		  AND ($1 = '' OR title ILIKE '%' || $1 || '%' OR class_code ILIKE '%' || $1 || '%')
		ORDER BY likes DESC, created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*models.FlashcardSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (r *SetRepo) Update(ctx context.Context, s *models.FlashcardSet) error {
	s.NumCards = len(s.Cards)
	cardsBytes, err := json.Marshal(s.Cards)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE flashcard_sets
		 SET title = $1, class_code = $2, description = $3, cards_json = $4,
		     num_cards = $5, is_public = $6
		 WHERE id = $7`,
		s.Title, s.ClassCode, s.Description, cardsBytes, s.NumCards, s.IsPublic, s.ID,
	)
	return err
}

// DeleteWithCascade removes the set and all of its like edges in one
// transaction and reports the owner and the like count at deletion so the
// caller can reverse the owner aggregate.
func (r *SetRepo) DeleteWithCascade(ctx context.Context, setID uuid.UUID) (ownerID uuid.UUID, likeCount int, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, 0, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		"SELECT user_id, likes FROM flashcard_sets WHERE id = $1", setID,
	).Scan(&ownerID, &likeCount)
	if err != nil {
		return uuid.Nil, 0, err
	}

	if _, err = tx.Exec(ctx, "DELETE FROM set_likes WHERE set_id = $1", setID); err != nil {
		return uuid.Nil, 0, err
	}
	if _, err = tx.Exec(ctx, "DELETE FROM flashcard_sets WHERE id = $1", setID); err != nil {
		return uuid.Nil, 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, 0, err
	}
	return ownerID, likeCount, nil
}
