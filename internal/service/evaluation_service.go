package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/examgate/examgate-backend/internal/config"
	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StatsQueue accepts exam ids whose aggregate stats need recomputation.
type StatsQueue interface {
	EnqueueStats(ctx context.Context, examID uuid.UUID) error
}

// RedisStatsQueue pushes exam ids onto the shared worker queue.
type RedisStatsQueue struct {
	rdb *redis.Client
}

func NewRedisStatsQueue(rdb *redis.Client) *RedisStatsQueue {
	return &RedisStatsQueue{rdb: rdb}
}

func (q *RedisStatsQueue) EnqueueStats(ctx context.Context, examID uuid.UUID) error {
	return q.rdb.LPush(ctx, config.WorkerKey.StatsQueue(), examID.String()).Err()
}

// EvaluationService closes a session out: it scores every live question of
// the exam against the user's stored answers and persists a single
// immutable result per session.
type EvaluationService struct {
	sessions  SessionStore
	exams     ExamStore
	questions QuestionStore
	answers   AnswerStore
	results   ResultStore
	stats     StatsQueue
	log       zerolog.Logger
}

// NewEvaluationService creates a new EvaluationService. stats may be nil
// when no stats rollup is wired (tests, one-off tools).
func NewEvaluationService(
	sessions SessionStore,
	exams ExamStore,
	questions QuestionStore,
	answers AnswerStore,
	results ResultStore,
	stats StatsQueue,
	log zerolog.Logger,
) *EvaluationService {
	return &EvaluationService{
		sessions:  sessions,
		exams:     exams,
		questions: questions,
		answers:   answers,
		results:   results,
		stats:     stats,
		log:       log.With().Str("component", "evaluation_service").Logger(),
	}
}

// EvaluateExam finalizes the session and returns its result.
//
// Every non-deleted question of the exam is scored, answered or not, so an
// attempt that skipped questions is penalized rather than truncated.
// Finalizing twice is idempotent: the unique constraint on session_id makes
// the second insert a no-op and the stored result is returned.
func (s *EvaluationService) EvaluateExam(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*model.ExamResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Status == model.SessionStatusCompleted {
		res, err := s.results.GetBySession(ctx, sessionID)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get stored result: %w", err)
		}
		// Completed by expiry but never scored; fall through and score now.
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	// Finalize before scoring so a failure after this point can never leave
	// a scored session still accepting answers.
	if sess.Status != model.SessionStatusCompleted {
		sess.Status = model.SessionStatusCompleted
		sess.PausedAt = nil
		if err := s.sessions.Update(ctx, sess); err != nil {
			return nil, fmt.Errorf("complete session: %w", err)
		}
	}

	questions, err := s.questions.ListActiveByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	byQuestion := make(map[uuid.UUID]model.OptionIDList, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.SelectedOptions
	}

	correct := 0
	questionResults := make([]model.QuestionResult, 0, len(questions))
	for i := range questions {
		qr := scoreQuestion(&questions[i], byQuestion[questions[i].ID])
		if qr.Correct {
			correct++
		}
		questionResults = append(questionResults, qr)
	}

	score := math.Round(float64(correct)/float64(len(questions))*100*100) / 100

	result := &model.ExamResult{
		ExamID:          examID,
		SessionID:       sessionID,
		UserID:          userID,
		TotalQuestions:  len(questions),
		CorrectAnswers:  correct,
		ScorePercentage: score,
		Passed:          score >= exam.PassingScore,
		QuestionResults: questionResults,
	}

	if err := s.results.CreateExclusive(ctx, result); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent (or earlier) evaluation won; its result stands.
			stored, fetchErr := s.results.GetBySession(ctx, sessionID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent evaluation detected, fetch failed: %w", fetchErr)
			}
			return stored, nil
		}
		return nil, fmt.Errorf("create result: %w", err)
	}

	if s.stats != nil {
		if err := s.stats.EnqueueStats(ctx, examID); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to enqueue stats rollup")
		}
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("exam_id", examID.String()).
		Int("user_id", userID).
		Float64("score", score).
		Bool("passed", result.Passed).
		Msg("Exam evaluated")

	return result, nil
}

// Paper returns the graded answer sheet for a finished session: per-question
// verdicts with the user's selection next to the answer key.
func (s *EvaluationService) Paper(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*model.ExamResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Status != model.SessionStatusCompleted {
		return nil, ErrResultNotFound
	}

	res, err := s.results.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}
