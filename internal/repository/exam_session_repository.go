package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamSessionRepository handles exam session data access. The persisted row
// is the single source of truth for session state; nothing session-scoped is
// cached in process memory.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, user_id, status, current_index, start_time, end_time,
	paused_at, total_paused_ms, question_order, answered, review_list, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }, s *model.ExamSession) error {
	var answered []byte
	err := row.Scan(&s.ID, &s.ExamID, &s.UserID, &s.Status, &s.CurrentIndex,
		&s.StartTime, &s.EndTime, &s.PausedAt, &s.TotalPausedMS,
		&s.QuestionOrder, &answered, &s.ReviewList, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}
	s.Answered = map[string]model.OptionIDList{}
	if len(answered) > 0 {
		if err := json.Unmarshal(answered, &s.Answered); err != nil {
			return fmt.Errorf("decode answered map: %w", err)
		}
	}
	return nil
}

// CreateExclusive inserts a new session unless a non-completed session for
// the same (exam, user) already exists. The partial unique index makes this
// a compare-and-swap: a concurrent conflicting insert surfaces as
// pgx.ErrNoRows, and the caller falls back to fetching the winner.
func (r *ExamSessionRepository) CreateExclusive(ctx context.Context, s *model.ExamSession) error {
	answered, err := json.Marshal(s.Answered)
	if err != nil {
		return fmt.Errorf("encode answered map: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions
		   (exam_id, user_id, status, current_index, start_time, end_time, total_paused_ms, question_order, answered, review_list)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (exam_id, user_id) WHERE status <> 'COMPLETED' DO NOTHING
		 RETURNING id, created_at, updated_at`,
		s.ExamID, s.UserID, s.Status, s.CurrentIndex, s.StartTime, s.EndTime,
		s.TotalPausedMS, s.QuestionOrder, answered, s.ReviewList,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetLiveByExamAndUser retrieves the user's non-completed session for an exam.
func (r *ExamSessionRepository) GetLiveByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND user_id = $2 AND status <> $3`,
		examID, userID, model.SessionStatusCompleted)
	if err := scanSession(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by id, scoped to its exam and owner.
func (r *ExamSessionRepository) GetByID(ctx context.Context, sessionID, examID uuid.UUID, userID int) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE id = $1 AND exam_id = $2 AND user_id = $3`,
		sessionID, examID, userID)
	if err := scanSession(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Update persists the mutable part of a session row.
func (r *ExamSessionRepository) Update(ctx context.Context, s *model.ExamSession) error {
	answered, err := json.Marshal(s.Answered)
	if err != nil {
		return fmt.Errorf("encode answered map: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, current_index = $2, end_time = $3, paused_at = $4,
		     total_paused_ms = $5, answered = $6, review_list = $7, updated_at = NOW()
		 WHERE id = $8`,
		s.Status, s.CurrentIndex, s.EndTime, s.PausedAt,
		s.TotalPausedMS, answered, s.ReviewList, s.ID)
	return err
}
