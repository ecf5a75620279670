package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// NavDirection moves the session cursor through the drawn question order.
type NavDirection string

const (
	NavNext NavDirection = "next"
	NavPrev NavDirection = "prev"
)

// ReviewAction flags or unflags a question for later review.
// Any value other than "add" is treated as remove.
type ReviewAction string

const (
	ReviewActionAdd    ReviewAction = "add"
	ReviewActionRemove ReviewAction = "remove"
)

// ExamSession tracks one user's attempt at an exam.
//
// ACTIVE -> PAUSED -> ACTIVE -> ... -> COMPLETED. COMPLETED is terminal.
// An ACTIVE session whose EndTime has passed is flipped to COMPLETED
// lazily the next time it is loaded, never by a background timer.
// The persisted row is the only source of truth for session state.
type ExamSession struct {
	ID            uuid.UUID     `json:"id"`
	ExamID        uuid.UUID     `json:"exam_id"`
	UserID        int           `json:"user_id"`
	Status        SessionStatus `json:"status"`
	CurrentIndex  int           `json:"current_index"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	PausedAt      *time.Time    `json:"paused_at,omitempty"`
	TotalPausedMS int64         `json:"total_paused_ms"`
	QuestionOrder []uuid.UUID   `json:"question_order"`
	// Answered maps question GUIDs to the selected option ids.
	Answered   map[string]OptionIDList `json:"answered_questions"`
	ReviewList []uuid.UUID             `json:"review_list"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// RemainingTime computes the wall-clock time left in the attempt, clamped
// at zero. Past pauses are already credited to EndTime by ApplyResume, so
// they must not be subtracted again here; TotalPausedMS is bookkeeping.
// While paused the in-flight pause is added back, freezing the result at
// its value as of PausedAt.
func (s *ExamSession) RemainingTime(now time.Time) time.Duration {
	remaining := s.EndTime.Sub(now)
	if s.Status == SessionStatusPaused && s.PausedAt != nil {
		remaining += now.Sub(*s.PausedAt)
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// IsExpired reports whether an ACTIVE session's end time has passed.
// PAUSED sessions never expire; the clock is stopped.
func (s *ExamSession) IsExpired(now time.Time) bool {
	return s.Status == SessionStatusActive && now.After(s.EndTime)
}

// Navigate moves the cursor one step, clamped at both ends.
// Returns true if the index changed.
func (s *ExamSession) Navigate(dir NavDirection) bool {
	switch dir {
	case NavNext:
		if s.CurrentIndex < len(s.QuestionOrder)-1 {
			s.CurrentIndex++
			return true
		}
	case NavPrev:
		if s.CurrentIndex > 0 {
			s.CurrentIndex--
			return true
		}
	}
	return false
}

// ApplyPause records the pause timestamp. State validation is the caller's job.
func (s *ExamSession) ApplyPause(now time.Time) {
	s.Status = SessionStatusPaused
	s.PausedAt = &now
}

// ApplyResume accumulates the elapsed pause into TotalPausedMS and extends
// EndTime by the same amount, then reactivates the session.
func (s *ExamSession) ApplyResume(now time.Time) {
	if s.PausedAt != nil {
		paused := now.Sub(*s.PausedAt)
		s.TotalPausedMS += paused.Milliseconds()
		s.EndTime = s.EndTime.Add(paused)
	}
	s.Status = SessionStatusActive
	s.PausedAt = nil
}

// HasQuestion reports whether the question id is part of this attempt's draw.
func (s *ExamSession) HasQuestion(questionID uuid.UUID) bool {
	return s.QuestionIndex(questionID) >= 0
}

// QuestionIndex returns the question's position within the drawn order, or -1.
func (s *ExamSession) QuestionIndex(questionID uuid.UUID) int {
	for i, id := range s.QuestionOrder {
		if id == questionID {
			return i
		}
	}
	return -1
}

// InReview reports whether the question is flagged for review.
func (s *ExamSession) InReview(questionID uuid.UUID) bool {
	for _, id := range s.ReviewList {
		if id == questionID {
			return true
		}
	}
	return false
}

// AddToReview flags a question, keeping the review list duplicate-free.
func (s *ExamSession) AddToReview(questionID uuid.UUID) {
	if !s.InReview(questionID) {
		s.ReviewList = append(s.ReviewList, questionID)
	}
}

// RemoveFromReview unflags a question. Removing an absent id is a no-op.
func (s *ExamSession) RemoveFromReview(questionID uuid.UUID) {
	for i, id := range s.ReviewList {
		if id == questionID {
			s.ReviewList = append(s.ReviewList[:i], s.ReviewList[i+1:]...)
			return
		}
	}
}
