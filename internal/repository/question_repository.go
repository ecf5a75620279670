package repository

import (
	"context"
	"fmt"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a question together with its options in one transaction.
// Option positions must already be assigned (1-based authoring order).
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (exam_id, guid, text, type, correct_positions, ranking_order, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		q.ExamID, q.GUID, q.Text, q.Type, q.CorrectPositions, q.RankingOrder, q.OrderNum,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	for i := range q.Options {
		q.Options[i].QuestionID = q.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, text, position)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			q.ID, q.Options[i].Text, q.Options[i].Position,
		).Scan(&q.Options[i].ID)
		if err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListActiveByExam retrieves all non-deleted questions for an exam with
// their options, ordered by order_num and option position.
func (r *QuestionRepository) ListActiveByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return r.listByExam(ctx, examID, false)
}

// ListByExam retrieves every question of an exam, soft-deleted ones
// included. Sessions that drew a question before it was retired still need
// to resolve it.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return r.listByExam(ctx, examID, true)
}

func (r *QuestionRepository) listByExam(ctx context.Context, examID uuid.UUID, includeDeleted bool) ([]model.Question, error) {
	query := `SELECT id, exam_id, guid, text, type, correct_positions, ranking_order, order_num, deleted
		 FROM questions
		 WHERE exam_id = $1 AND NOT deleted
		 ORDER BY order_num`
	if includeDeleted {
		query = `SELECT id, exam_id, guid, text, type, correct_positions, ranking_order, order_num, deleted
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_num`
	}
	rows, err := r.pool.Query(ctx, query, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.GUID, &q.Text, &q.Type,
			&q.CorrectPositions, &q.RankingOrder, &q.OrderNum, &q.Deleted); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	ids := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT id, question_id, text, position
		 FROM options
		 WHERE question_id = ANY($1)
		 ORDER BY question_id, position`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Position); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// SoftDelete marks a question as deleted without removing stored answers.
func (r *QuestionRepository) SoftDelete(ctx context.Context, examID, questionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET deleted = TRUE WHERE id = $1 AND exam_id = $2`, questionID, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
