package model

import (
	"time"

	"github.com/google/uuid"
)

// UserAnswer is one submitted answer, unique per (session, question).
// Later submissions for the same question overwrite SelectedOptions in place.
type UserAnswer struct {
	ID              int64        `json:"id"`
	UserID          int          `json:"user_id"`
	ExamID          uuid.UUID    `json:"exam_id"`
	QuestionID      uuid.UUID    `json:"question_id"`
	SessionID       uuid.UUID    `json:"session_id"`
	QuestionIndex   int          `json:"question_index"`
	SelectedOptions OptionIDList `json:"selected_options"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// SubmitAnswerRequest is the payload for submitting an answer.
type SubmitAnswerRequest struct {
	QuestionGUID    uuid.UUID    `json:"question_guid" binding:"required"`
	SelectedOptions OptionIDList `json:"selected_options" binding:"required"`
	// Review flags the question for later review; anything but "add"
	// falls back to remove.
	Review ReviewAction `json:"review" binding:"omitempty"`
}
