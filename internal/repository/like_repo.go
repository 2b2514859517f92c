package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAlreadyLiked is returned when the (set, user) like edge already exists.
	ErrAlreadyLiked = errors.New("set already liked by user")
	// ErrNotLiked is returned when no like edge exists for the (set, user) pair.
	ErrNotLiked = errors.New("set not liked by user")
)

const uniqueViolation = "23505"

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// InsertWithCount creates the like edge and increments the set counter in one
// transaction. The unique constraint on (set_id, user_id) is the duplicate
// guard; a 23505 from the insert maps to ErrAlreadyLiked with no counter
// change. Returns the new like count.
func (r *LikeRepo) InsertWithCount(ctx context.Context, setID, userID, creatorID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO set_likes (id, set_id, user_id, creator_id)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), setID, userID, creatorID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrAlreadyLiked
		}
		return 0, err
	}

	var likes int
	err = tx.QueryRow(ctx,
		"UPDATE flashcard_sets SET likes = likes + 1 WHERE id = $1 RETURNING likes",
		setID,
	).Scan(&likes)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return likes, nil
}

// DeleteWithCount removes the like edge and decrements the set counter,
// guarded so the counter never goes below zero. decremented reports whether
// the counter actually moved, which drives the owner-aggregate reversal.
func (r *LikeRepo) DeleteWithCount(ctx context.Context, setID, userID uuid.UUID) (likes int, decremented bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"DELETE FROM set_likes WHERE set_id = $1 AND user_id = $2",
		setID, userID,
	)
	if err != nil {
		return 0, false, err
	}
	if tag.RowsAffected() == 0 {
		return 0, false, ErrNotLiked
	}

	// Conditional decrement: rows-affected tells us whether the counter
	// moved, instead of a read-then-write that could race to below zero.
	tag, err = tx.Exec(ctx,
		"UPDATE flashcard_sets SET likes = likes - 1 WHERE id = $1 AND likes > 0",
		setID,
	)
	if err != nil {
		return 0, false, err
	}
	decremented = tag.RowsAffected() > 0

	err = tx.QueryRow(ctx,
		"SELECT likes FROM flashcard_sets WHERE id = $1", setID,
	).Scan(&likes)
	if err != nil {
		return 0, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return likes, decremented, nil
}

func (r *LikeRepo) Exists(ctx context.Context, setID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM set_likes WHERE set_id = $1 AND user_id = $2)",
		setID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *LikeRepo) CountForSet(ctx context.Context, setID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM set_likes WHERE set_id = $1", setID,
	).Scan(&count)
	return count, err
}
