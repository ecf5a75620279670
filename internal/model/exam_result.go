package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionResult is the frozen per-question breakdown stored with a result.
// CorrectOptionIDs are sorted for single/multiple/true-false and kept in
// required sequence for ranking questions.
type QuestionResult struct {
	QuestionID       uuid.UUID    `json:"question_id"`
	QuestionGUID     uuid.UUID    `json:"question_guid"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	SelectedOptions  []int64      `json:"selected_options"`
	CorrectOptionIDs []int64      `json:"correct_option_ids"`
	Correct          bool         `json:"correct"`
}

// ExamResult is the scored outcome of one session. At most one row exists
// per session; evaluation is idempotent and returns the stored row verbatim
// on repeat calls.
type ExamResult struct {
	ID              uuid.UUID        `json:"id"`
	ExamID          uuid.UUID        `json:"exam_id"`
	SessionID       uuid.UUID        `json:"session_id"`
	UserID          int              `json:"user_id"`
	TotalQuestions  int              `json:"total_questions"`
	CorrectAnswers  int              `json:"correct_answers"`
	ScorePercentage float64          `json:"score_percentage"`
	Passed          bool             `json:"passed"`
	QuestionResults []QuestionResult `json:"question_results"`
	CreatedAt       time.Time        `json:"created_at"`
}
