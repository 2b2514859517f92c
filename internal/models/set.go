package models

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is one question/answer pair inside a set. Either side may be
// image-only, but each side must carry text or an image.
type Flashcard struct {
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	QuestionImage *string `json:"question_image,omitempty"`
	AnswerImage   *string `json:"answer_image,omitempty"`
}

func (f Flashcard) HasQuestionContent() bool {
	return f.Question != "" || (f.QuestionImage != nil && *f.QuestionImage != "")
}

func (f Flashcard) HasAnswerContent() bool {
	return f.Answer != "" || (f.AnswerImage != nil && *f.AnswerImage != "")
}

type FlashcardSet struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Title       string      `json:"title"`
	ClassCode   string      `json:"class_code"`
	Description string      `json:"description"`
	Cards       []Flashcard `json:"cards"`
	NumCards    int         `json:"num_cards"`
	IsPublic    bool        `json:"is_public"`
	Likes       int         `json:"likes"`
	IsDerived   bool        `json:"is_derived"`
	// Set when this record is a saved copy of another user's set.
	OriginalSetID     *uuid.UUID `json:"original_set_id,omitempty"`
	OriginalCreatorID *uuid.UUID `json:"original_creator_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type CreateSetRequest struct {
	Title       string      `json:"title"`
	ClassCode   string      `json:"class_code"`
	Description string      `json:"description"`
	Cards       []Flashcard `json:"cards"`
	IsPublic    bool        `json:"is_public"`
}

type UpdateSetRequest struct {
	Title       string      `json:"title"`
	ClassCode   string      `json:"class_code"`
	Description string      `json:"description"`
	Cards       []Flashcard `json:"cards"`
	IsPublic    bool        `json:"is_public"`
}
