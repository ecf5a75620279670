package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents an exam entity. Content is immutable once a session has
// been started against it; authoring operations are restricted to DRAFT.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	PassingScore    float64    `json:"passing_score"`
	TotalQuestions  int        `json:"total_questions"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string     `json:"title" binding:"required,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=4000"`
	CategoryID      *uuid.UUID `json:"category_id" binding:"omitempty"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingScore    float64    `json:"passing_score" binding:"required,min=0,max=100"`
	TotalQuestions  int        `json:"total_questions" binding:"required,min=1"`
}

// UpdateExamRequest is the payload for updating a draft exam.
type UpdateExamRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	Description     *string    `json:"description" binding:"omitempty,max=4000"`
	CategoryID      *uuid.UUID `json:"category_id" binding:"omitempty"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassingScore    *float64   `json:"passing_score" binding:"omitempty,min=0,max=100"`
	TotalQuestions  int        `json:"total_questions" binding:"omitempty,min=1"`
}

// ExamPayload is the Redis-cached exam content sent to exam takers
// (stripped of correct answers).
type ExamPayload struct {
	ExamID          uuid.UUID         `json:"exam_id"`
	Title           string            `json:"title"`
	DurationMinutes int               `json:"duration_minutes"`
	TotalQuestions  int               `json:"total_questions"`
	Questions       []QuestionForUser `json:"questions"`
}
