package service

import "errors"

// Session engine error taxonomy. Handlers translate these with errors.Is;
// nothing is retried or swallowed below the handler layer.
var (
	// Not found.
	ErrExamNotFound     = errors.New("exam not found")
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrResultNotFound   = errors.New("exam result not found")
	ErrNotInReviewList  = errors.New("question is not in the review list")
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")

	// Invalid state.
	ErrSessionPaused    = errors.New("exam session is paused")
	ErrSessionNotPaused = errors.New("exam session is not paused")

	// Expired. Raised after the session has been flipped to COMPLETED.
	ErrSessionExpired = errors.New("exam session has expired")

	// Constraint violation.
	ErrQuestionNotInSession = errors.New("question is not part of this session's question order")

	// Authoring.
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
	ErrNoQuestions      = errors.New("exam has no questions")
	ErrInvalidQuestion  = errors.New("invalid question definition")
	ErrEmailTaken       = errors.New("email is already registered")
)
