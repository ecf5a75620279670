package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ExamSessionService drives a user's attempt through one exam: starting,
// navigation, pause/resume timing, answer submission and review flags.
type ExamSessionService struct {
	sessions  SessionStore
	exams     ExamStore
	questions QuestionStore
	answers   AnswerStore
	log       zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	sessions SessionStore,
	exams ExamStore,
	questions QuestionStore,
	answers AnswerStore,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		sessions:  sessions,
		exams:     exams,
		questions: questions,
		answers:   answers,
		log:       log.With().Str("component", "exam_session_service").Logger(),
	}
}

// SessionView is the session state returned to the caller.
type SessionView struct {
	model.ExamSession
	TotalQuestions   int     `json:"total_questions"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// CurrentQuestionView is one question as presented mid-attempt, stripped of
// its answer key and enriched with the user's stored selection.
type CurrentQuestionView struct {
	SessionID        uuid.UUID             `json:"session_id"`
	Question         model.QuestionForUser `json:"question"`
	Index            int                   `json:"index"`
	TotalQuestions   int                   `json:"total_questions"`
	SelectedOptions  model.OptionIDList    `json:"selected_options,omitempty"`
	InReview         bool                  `json:"in_review"`
	RemainingSeconds float64               `json:"remaining_seconds"`
}

func newSessionView(s *model.ExamSession, now time.Time) *SessionView {
	return &SessionView{
		ExamSession:      *s,
		TotalQuestions:   len(s.QuestionOrder),
		RemainingSeconds: s.RemainingTime(now).Seconds(),
	}
}

// Start begins (or resumes knowledge of) a user's attempt at an exam.
//
// Idempotent: if a non-completed session already exists for (user, exam) it
// is returned unchanged. Otherwise the exam's live questions are drawn with
// a uniform shuffle, trimmed to the exam's question count, and a fresh
// ACTIVE session is persisted. The partial unique index on
// (exam_id, user_id) closes the race between two concurrent starts: the
// loser's insert affects no rows and the winner's session is returned.
func (s *ExamSessionService) Start(ctx context.Context, examID uuid.UUID, userID int) (*SessionView, error) {
	now := time.Now()

	existing, err := s.sessions.GetLiveByExamAndUser(ctx, examID, userID)
	if err == nil {
		return newSessionView(existing, now), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	questions, err := s.questions.ListActiveByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	order := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		order[i] = q.ID
	}
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	// Draw at most the configured count; fewer available is not an error.
	if exam.TotalQuestions > 0 && exam.TotalQuestions < len(order) {
		order = order[:exam.TotalQuestions]
	}

	session := &model.ExamSession{
		ExamID:        examID,
		UserID:        userID,
		Status:        model.SessionStatusActive,
		CurrentIndex:  0,
		StartTime:     now,
		EndTime:       now.Add(time.Duration(exam.DurationMinutes) * time.Minute),
		QuestionOrder: order,
		Answered:      map[string]model.OptionIDList{},
		ReviewList:    []uuid.UUID{},
	}

	if err := s.sessions.CreateExclusive(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race against a concurrent start; serve the winner.
			winner, fetchErr := s.sessions.GetLiveByExamAndUser(ctx, examID, userID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, fetch failed: %w", fetchErr)
			}
			return newSessionView(winner, now), nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_id", examID.String()).
		Int("user_id", userID).
		Int("drawn", len(order)).
		Msg("Exam session started")

	return newSessionView(session, now), nil
}

// loadLive fetches a non-completed session scoped to (session, exam, user).
// An ACTIVE session past its end time is flipped to COMPLETED here — the
// only place expiry happens — and the triggering call fails with
// ErrSessionExpired.
func (s *ExamSessionService) loadLive(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*model.ExamSession, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Status == model.SessionStatusCompleted {
		return nil, ErrSessionNotFound
	}

	if sess.IsExpired(time.Now()) {
		sess.Status = model.SessionStatusCompleted
		if err := s.sessions.Update(ctx, sess); err != nil {
			return nil, fmt.Errorf("complete expired session: %w", err)
		}
		s.log.Info().Str("session_id", sess.ID.String()).Msg("Session expired, marked completed")
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// State returns the current session view without mutating anything beyond
// the lazy expiry check.
func (s *ExamSessionService) State(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*SessionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}
	return newSessionView(sess, time.Now()), nil
}

// GetCurrentQuestion optionally moves the cursor (next/prev, clamped) and
// returns the question at the cursor with the user's prior selection.
func (s *ExamSessionService) GetCurrentQuestion(ctx context.Context, sessionID, examID uuid.UUID, userID int, dir model.NavDirection) (*CurrentQuestionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}

	if sess.Navigate(dir) {
		if err := s.sessions.Update(ctx, sess); err != nil {
			return nil, fmt.Errorf("persist navigation: %w", err)
		}
	}

	if len(sess.QuestionOrder) == 0 || sess.CurrentIndex >= len(sess.QuestionOrder) {
		return nil, ErrQuestionNotFound
	}

	question, err := s.questionByID(ctx, examID, sess.QuestionOrder[sess.CurrentIndex])
	if err != nil {
		return nil, err
	}

	return &CurrentQuestionView{
		SessionID:        sess.ID,
		Question:         question.ForUser(),
		Index:            sess.CurrentIndex,
		TotalQuestions:   len(sess.QuestionOrder),
		SelectedOptions:  sess.Answered[question.GUID.String()],
		InReview:         sess.InReview(question.ID),
		RemainingSeconds: sess.RemainingTime(time.Now()).Seconds(),
	}, nil
}

// Pause suspends the attempt clock.
func (s *ExamSessionService) Pause(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*SessionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionStatusPaused {
		return nil, ErrSessionPaused
	}

	sess.ApplyPause(time.Now())
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist pause: %w", err)
	}
	return newSessionView(sess, time.Now()), nil
}

// Resume reactivates a paused attempt, crediting the full pause duration
// back to the end time and onto the accumulated pause total.
func (s *ExamSessionService) Resume(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*SessionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusPaused {
		return nil, ErrSessionNotPaused
	}

	sess.ApplyResume(time.Now())
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist resume: %w", err)
	}
	return newSessionView(sess, time.Now()), nil
}

// SubmitAnswer records a selection for one question of a live, unpaused
// session. The question must be part of this attempt's drawn order;
// submissions against foreign questions are rejected before anything is
// written. The session's answer map and the user_answers row are both
// upserted, last write wins.
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, sessionID, examID uuid.UUID, userID int, req *model.SubmitAnswerRequest) (*SessionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionStatusPaused {
		return nil, ErrSessionPaused
	}

	question, err := s.questionByGUID(ctx, examID, req.QuestionGUID)
	if err != nil {
		return nil, err
	}
	if !sess.HasQuestion(question.ID) {
		return nil, ErrQuestionNotInSession
	}

	sess.Answered[question.GUID.String()] = req.SelectedOptions
	if req.Review == model.ReviewActionAdd {
		sess.AddToReview(question.ID)
	} else {
		sess.RemoveFromReview(question.ID)
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	answer := &model.UserAnswer{
		UserID:          userID,
		ExamID:          examID,
		QuestionID:      question.ID,
		SessionID:       sess.ID,
		QuestionIndex:   sess.QuestionIndex(question.ID),
		SelectedOptions: req.SelectedOptions,
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}

	return newSessionView(sess, time.Now()), nil
}

// AddToReviewList flags a question for later review, independent of the
// answer path. The review list behaves as a set.
func (s *ExamSessionService) AddToReviewList(ctx context.Context, sessionID, examID uuid.UUID, userID int, questionID uuid.UUID) (*SessionView, error) {
	return s.mutateReview(ctx, sessionID, examID, userID, questionID, model.ReviewActionAdd)
}

// RemoveFromReviewList unflags a question. Removing an absent id is a no-op.
func (s *ExamSessionService) RemoveFromReviewList(ctx context.Context, sessionID, examID uuid.UUID, userID int, questionID uuid.UUID) (*SessionView, error) {
	return s.mutateReview(ctx, sessionID, examID, userID, questionID, model.ReviewActionRemove)
}

func (s *ExamSessionService) mutateReview(ctx context.Context, sessionID, examID uuid.UUID, userID int, questionID uuid.UUID, action model.ReviewAction) (*SessionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}

	if action == model.ReviewActionAdd {
		sess.AddToReview(questionID)
	} else {
		sess.RemoveFromReview(questionID)
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist review list: %w", err)
	}
	return newSessionView(sess, time.Now()), nil
}

// ReviewQuestionView is a flagged question with the user's stored answer
// and its position within the drawn order.
type ReviewQuestionView struct {
	Question         model.QuestionForUser `json:"question"`
	Position         int                   `json:"position"`
	SelectedOptions  model.OptionIDList    `json:"selected_options,omitempty"`
	RemainingSeconds float64               `json:"remaining_seconds"`
}

// GetReviewList projects every flagged question, ordered by position in the
// drawn question order.
func (s *ExamSessionService) GetReviewList(ctx context.Context, sessionID, examID uuid.UUID, userID int) ([]ReviewQuestionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	now := time.Now()
	remaining := sess.RemainingTime(now).Seconds()

	views := make([]ReviewQuestionView, 0, len(sess.ReviewList))
	for pos, id := range sess.QuestionOrder {
		if !sess.InReview(id) {
			continue
		}
		for i := range questions {
			if questions[i].ID != id {
				continue
			}
			views = append(views, ReviewQuestionView{
				Question:         questions[i].ForUser(),
				Position:         pos,
				SelectedOptions:  sess.Answered[questions[i].GUID.String()],
				RemainingSeconds: remaining,
			})
			break
		}
	}
	return views, nil
}

// GetReviewQuestion returns a single flagged question, or ErrNotInReviewList
// if the question was never flagged (or has been unflagged since).
func (s *ExamSessionService) GetReviewQuestion(ctx context.Context, sessionID, examID uuid.UUID, userID int, questionID uuid.UUID) (*ReviewQuestionView, error) {
	sess, err := s.loadLive(ctx, sessionID, examID, userID)
	if err != nil {
		return nil, err
	}
	if !sess.InReview(questionID) {
		return nil, ErrNotInReviewList
	}

	question, err := s.questionByID(ctx, examID, questionID)
	if err != nil {
		return nil, err
	}

	return &ReviewQuestionView{
		Question:         question.ForUser(),
		Position:         sess.QuestionIndex(questionID),
		SelectedOptions:  sess.Answered[question.GUID.String()],
		RemainingSeconds: sess.RemainingTime(time.Now()).Seconds(),
	}, nil
}

// questionByID resolves a drawn question. Soft-deleted questions stay
// resolvable here: sessions that drew one keep navigating it even though
// it no longer counts toward evaluation.
func (s *ExamSessionService) questionByID(ctx context.Context, examID, questionID uuid.UUID) (*model.Question, error) {
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, ErrQuestionNotFound
}

func (s *ExamSessionService) questionByGUID(ctx context.Context, examID uuid.UUID, guid uuid.UUID) (*model.Question, error) {
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	for i := range questions {
		if questions[i].GUID == guid {
			return &questions[i], nil
		}
	}
	return nil, ErrQuestionNotFound
}
