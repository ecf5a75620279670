package service

import (
	"context"
	"time"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// In-memory stand-ins for the pgx repositories. Absence of a row is
// reported as pgx.ErrNoRows, matching the real stores, so the services'
// errors.Is checks exercise the same paths either way.

type fakeSessionStore struct {
	sessions map[uuid.UUID]*model.ExamSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uuid.UUID]*model.ExamSession{}}
}

func copySession(s *model.ExamSession) *model.ExamSession {
	c := *s
	c.QuestionOrder = append([]uuid.UUID(nil), s.QuestionOrder...)
	c.ReviewList = append([]uuid.UUID(nil), s.ReviewList...)
	c.Answered = map[string]model.OptionIDList{}
	for k, v := range s.Answered {
		c.Answered[k] = append(model.OptionIDList(nil), v...)
	}
	return &c
}

func (f *fakeSessionStore) CreateExclusive(_ context.Context, s *model.ExamSession) error {
	for _, existing := range f.sessions {
		if existing.ExamID == s.ExamID && existing.UserID == s.UserID &&
			existing.Status != model.SessionStatusCompleted {
			// The partial unique index rejects the insert silently.
			return pgx.ErrNoRows
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.sessions[s.ID] = copySession(s)
	return nil
}

func (f *fakeSessionStore) GetLiveByExamAndUser(_ context.Context, examID uuid.UUID, userID int) (*model.ExamSession, error) {
	for _, s := range f.sessions {
		if s.ExamID == examID && s.UserID == userID && s.Status != model.SessionStatusCompleted {
			return copySession(s), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessionStore) GetByID(_ context.Context, sessionID, examID uuid.UUID, userID int) (*model.ExamSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.ExamID != examID || s.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return copySession(s), nil
}

func (f *fakeSessionStore) Update(_ context.Context, s *model.ExamSession) error {
	if _, ok := f.sessions[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.UpdatedAt = time.Now()
	f.sessions[s.ID] = copySession(s)
	return nil
}

type fakeExamStore struct {
	exams map[uuid.UUID]*model.Exam
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{exams: map[uuid.UUID]*model.Exam{}}
}

func (f *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *e
	return &c, nil
}

type fakeQuestionStore struct {
	byExam map[uuid.UUID][]model.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{byExam: map[uuid.UUID][]model.Question{}}
}

func (f *fakeQuestionStore) ListActiveByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	var live []model.Question
	for _, q := range f.byExam[examID] {
		if !q.Deleted {
			live = append(live, q)
		}
	}
	return live, nil
}

func (f *fakeQuestionStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	return append([]model.Question(nil), f.byExam[examID]...), nil
}

type fakeAnswerStore struct {
	answers map[uuid.UUID]map[uuid.UUID]*model.UserAnswer // session -> question
	nextID  int64
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: map[uuid.UUID]map[uuid.UUID]*model.UserAnswer{}}
}

func (f *fakeAnswerStore) Upsert(_ context.Context, a *model.UserAnswer) error {
	bySession, ok := f.answers[a.SessionID]
	if !ok {
		bySession = map[uuid.UUID]*model.UserAnswer{}
		f.answers[a.SessionID] = bySession
	}
	if existing, ok := bySession[a.QuestionID]; ok {
		existing.SelectedOptions = append(model.OptionIDList(nil), a.SelectedOptions...)
		existing.UpdatedAt = time.Now()
		return nil
	}
	f.nextID++
	c := *a
	c.ID = f.nextID
	c.SelectedOptions = append(model.OptionIDList(nil), a.SelectedOptions...)
	bySession[a.QuestionID] = &c
	return nil
}

func (f *fakeAnswerStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	var out []model.UserAnswer
	for _, a := range f.answers[sessionID] {
		out = append(out, *a)
	}
	return out, nil
}

type fakeResultStore struct {
	bySession map[uuid.UUID]*model.ExamResult
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{bySession: map[uuid.UUID]*model.ExamResult{}}
}

func (f *fakeResultStore) CreateExclusive(_ context.Context, res *model.ExamResult) error {
	if _, ok := f.bySession[res.SessionID]; ok {
		return pgx.ErrNoRows
	}
	res.ID = uuid.New()
	res.CreatedAt = time.Now()
	c := *res
	f.bySession[res.SessionID] = &c
	return nil
}

func (f *fakeResultStore) GetBySession(_ context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	res, ok := f.bySession[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *res
	return &c, nil
}

func (f *fakeResultStore) ListByExamAndUser(_ context.Context, examID uuid.UUID, userID int) ([]model.ExamResult, error) {
	var out []model.ExamResult
	for _, res := range f.bySession {
		if res.ExamID == examID && res.UserID == userID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeResultStore) ListByUser(_ context.Context, userID int) ([]repository.UserExamResult, error) {
	var out []repository.UserExamResult
	for _, res := range f.bySession {
		if res.UserID == userID {
			out = append(out, repository.UserExamResult{ExamResult: *res})
		}
	}
	return out, nil
}

type fakeStatsQueue struct {
	enqueued []uuid.UUID
}

func (f *fakeStatsQueue) EnqueueStats(_ context.Context, examID uuid.UUID) error {
	f.enqueued = append(f.enqueued, examID)
	return nil
}
