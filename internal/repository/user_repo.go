package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cramingo-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	query := `INSERT INTO users (id, email, username, university, field_of_study)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Username, user.University, user.FieldOfStudy,
	).Scan(&user.CreatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, username, university, field_of_study, total_likes, created_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Username, &user.University,
		&user.FieldOfStudy, &user.TotalLikes, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET username = $1, university = $2, field_of_study = $3 WHERE id = $4",
		user.Username, user.University, user.FieldOfStudy, user.ID,
	)
	return err
}

// AdjustTotalLikes applies a delta to the denormalized per-user aggregate,
// clamped at zero. This is the best-effort half of the cross-entity update;
// SyncTotalLikes is the authoritative repair.
func (r *UserRepo) AdjustTotalLikes(ctx context.Context, userID uuid.UUID, delta int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET total_likes = GREATEST(0, total_likes + $1) WHERE id = $2",
		delta, userID,
	)
	return err
}

// SyncTotalLikes recomputes total_likes from the sets the user owns and
// overwrites the stored aggregate. Single statement, so concurrent calls are
// last-write-wins and the operation is idempotent.
func (r *UserRepo) SyncTotalLikes(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET total_likes = COALESCE((
			SELECT SUM(likes) FROM flashcard_sets WHERE user_id = $1
		), 0)
		WHERE id = $1
		RETURNING total_likes
	`, userID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
