package repository

import (
	"context"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserAnswerRepository persists submitted answers, one row per
// (session, question), last write wins on selected options.
type UserAnswerRepository struct {
	pool *pgxpool.Pool
}

// NewUserAnswerRepository creates a new UserAnswerRepository.
func NewUserAnswerRepository(pool *pgxpool.Pool) *UserAnswerRepository {
	return &UserAnswerRepository{pool: pool}
}

// Upsert creates the answer row or overwrites its selected options.
func (r *UserAnswerRepository) Upsert(ctx context.Context, a *model.UserAnswer) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO user_answers
		   (user_id, exam_id, question_id, session_id, question_index, selected_options)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET selected_options = EXCLUDED.selected_options, updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.ExamID, a.QuestionID, a.SessionID, a.QuestionIndex, []int64(a.SelectedOptions),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// ListBySession retrieves all answers recorded for a session.
func (r *UserAnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, exam_id, question_id, session_id, question_index, selected_options, created_at, updated_at
		 FROM user_answers
		 WHERE session_id = $1
		 ORDER BY question_index`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		var selected []int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.ExamID, &a.QuestionID, &a.SessionID,
			&a.QuestionIndex, &selected, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.SelectedOptions = model.OptionIDList(selected)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
