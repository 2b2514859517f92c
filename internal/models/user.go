package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	University   string    `json:"university"`
	FieldOfStudy string    `json:"field_of_study"`
	TotalLikes   int       `json:"total_likes"`
	CreatedAt    time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	Username     string `json:"username"`
	University   string `json:"university"`
	FieldOfStudy string `json:"field_of_study"`
}
