package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserExamResult joins a stored result with its exam and category for
// cross-exam reporting.
type UserExamResult struct {
	model.ExamResult
	ExamTitle           string     `json:"exam_title"`
	CategoryID          *uuid.UUID `json:"category_id,omitempty"`
	CategoryName        *string    `json:"category_name,omitempty"`
	CategoryDescription *string    `json:"category_description,omitempty"`
}

// ExamStats is the aggregate shape served by the admin stats endpoint.
type ExamStats struct {
	Attempts     int64   `json:"attempts"`
	AverageScore float64 `json:"average_score"`
	Passed       int64   `json:"passed"`
	Failed       int64   `json:"failed"`
}

// ExamResultRepository handles scored result data access.
type ExamResultRepository struct {
	pool *pgxpool.Pool
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(pool *pgxpool.Pool) *ExamResultRepository {
	return &ExamResultRepository{pool: pool}
}

func scanResult(row interface{ Scan(...any) error }, res *model.ExamResult) error {
	var breakdown []byte
	err := row.Scan(&res.ID, &res.ExamID, &res.SessionID, &res.UserID,
		&res.TotalQuestions, &res.CorrectAnswers, &res.ScorePercentage,
		&res.Passed, &breakdown, &res.CreatedAt)
	if err != nil {
		return err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &res.QuestionResults); err != nil {
			return fmt.Errorf("decode question results: %w", err)
		}
	}
	return nil
}

const resultColumns = `id, exam_id, session_id, user_id, total_questions, correct_answers,
	score_percentage, passed, question_results, created_at`

// CreateExclusive inserts a result unless one already exists for the
// session. A concurrent duplicate surfaces as pgx.ErrNoRows via the
// unique session constraint, and the caller fetches the stored row instead.
func (r *ExamResultRepository) CreateExclusive(ctx context.Context, res *model.ExamResult) error {
	breakdown, err := json.Marshal(res.QuestionResults)
	if err != nil {
		return fmt.Errorf("encode question results: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_results
		   (exam_id, session_id, user_id, total_questions, correct_answers, score_percentage, passed, question_results)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id) DO NOTHING
		 RETURNING id, created_at`,
		res.ExamID, res.SessionID, res.UserID, res.TotalQuestions,
		res.CorrectAnswers, res.ScorePercentage, res.Passed, breakdown,
	).Scan(&res.ID, &res.CreatedAt)
}

// GetBySession retrieves the stored result for a session, if any.
func (r *ExamResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE session_id = $1`, sessionID)
	if err := scanResult(row, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListByExamAndUser retrieves all results one user has for one exam.
func (r *ExamResultRepository) ListByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM exam_results
		 WHERE exam_id = $1 AND user_id = $2
		 ORDER BY created_at DESC`, examID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		if err := scanResult(rows, &res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListByUser retrieves all of a user's results across exams, joined with
// exam title and category for grouping.
func (r *ExamResultRepository) ListByUser(ctx context.Context, userID int) ([]UserExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, r.session_id, r.user_id, r.total_questions, r.correct_answers,
		        r.score_percentage, r.passed, r.question_results, r.created_at,
		        e.title, c.id, c.name, c.description
		 FROM exam_results r
		 JOIN exams e ON r.exam_id = e.id
		 LEFT JOIN categories c ON e.category_id = c.id
		 WHERE r.user_id = $1
		 ORDER BY r.created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []UserExamResult
	for rows.Next() {
		var res UserExamResult
		var breakdown []byte
		if err := rows.Scan(&res.ID, &res.ExamID, &res.SessionID, &res.UserID,
			&res.TotalQuestions, &res.CorrectAnswers, &res.ScorePercentage,
			&res.Passed, &breakdown, &res.CreatedAt,
			&res.ExamTitle, &res.CategoryID, &res.CategoryName, &res.CategoryDescription); err != nil {
			return nil, err
		}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &res.QuestionResults); err != nil {
				return nil, fmt.Errorf("decode question results: %w", err)
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// GetStats aggregates stored results for one exam. Used as the DB fallback
// behind the Redis stats cache and by the stats rollup worker.
func (r *ExamResultRepository) GetStats(ctx context.Context, examID uuid.UUID) (*ExamStats, error) {
	st := &ExamStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(score_percentage), 0),
		        COUNT(*) FILTER (WHERE passed),
		        COUNT(*) FILTER (WHERE NOT passed)
		 FROM exam_results
		 WHERE exam_id = $1`, examID,
	).Scan(&st.Attempts, &st.AverageScore, &st.Passed, &st.Failed)
	if err != nil {
		return nil, err
	}
	return st, nil
}
