package service

import (
	"context"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/repository"
	"github.com/google/uuid"
)

// Store interfaces consumed by the session engine. The pgx repositories
// satisfy them; tests substitute in-memory fakes. Absence of a row is
// reported as pgx.ErrNoRows in either case.

type SessionStore interface {
	CreateExclusive(ctx context.Context, s *model.ExamSession) error
	GetLiveByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) (*model.ExamSession, error)
	GetByID(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*model.ExamSession, error)
	Update(ctx context.Context, s *model.ExamSession) error
}

type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

type QuestionStore interface {
	ListActiveByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	// ListByExam includes soft-deleted questions; a session that drew a
	// question before it was retired must still resolve it.
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

type AnswerStore interface {
	Upsert(ctx context.Context, a *model.UserAnswer) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error)
}

type ResultStore interface {
	CreateExclusive(ctx context.Context, res *model.ExamResult) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error)
	ListByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) ([]model.ExamResult, error)
	ListByUser(ctx context.Context, userID int) ([]repository.UserExamResult, error)
}
