package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// QuestionService handles question authoring against draft exams.
type QuestionService struct {
	questions *repository.QuestionRepository
	exams     *repository.ExamRepository
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository, exams *repository.ExamRepository, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		exams:     exams,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// ListByExam retrieves all live questions of an exam, answer keys included.
// Admin surface only.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	if err := s.examExists(ctx, examID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListActiveByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Add validates and inserts a question into a draft exam. Option positions
// are assigned 1-based from the authoring order.
func (s *QuestionService) Add(ctx context.Context, examID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	qType := model.QuestionType(req.Type)
	if err := validateAnswerKey(qType, len(req.Options), req.CorrectPositions, req.RankingOrder); err != nil {
		return nil, err
	}

	question := &model.Question{
		ExamID:           examID,
		GUID:             uuid.New(),
		Text:             req.Text,
		Type:             qType,
		CorrectPositions: req.CorrectPositions,
		RankingOrder:     req.RankingOrder,
		OrderNum:         req.OrderNum,
	}
	question.Options = make([]model.Option, len(req.Options))
	for i, text := range req.Options {
		question.Options[i] = model.Option{Text: text, Position: i + 1}
	}

	if err := s.questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("question_id", question.ID.String()).
		Str("type", req.Type).
		Msg("Question added")
	return question, nil
}

// Remove soft-deletes a question. Live sessions that already drew it keep
// it in their order but it no longer counts toward evaluation.
func (s *QuestionService) Remove(ctx context.Context, examID, questionID uuid.UUID) error {
	if err := s.examExists(ctx, examID); err != nil {
		return err
	}
	if err := s.questions.SoftDelete(ctx, examID, questionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *QuestionService) examExists(ctx context.Context, examID uuid.UUID) error {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("get exam: %w", err)
	}
	return nil
}

// validateAnswerKey enforces the per-type answer key shape:
//
//	single      exactly one correct position
//	multiple    one or more correct positions
//	true-false  exactly two options and one correct position
//	ranking     a permutation of 1..len(options)
//
// Every referenced position must fall within the option list, and positions
// must not repeat.
func validateAnswerKey(qType model.QuestionType, optionCount int, correct, ranking []int) error {
	inRange := func(positions []int) error {
		seen := map[int]bool{}
		for _, p := range positions {
			if p < 1 || p > optionCount {
				return fmt.Errorf("%w: position %d outside option range", ErrInvalidQuestion, p)
			}
			if seen[p] {
				return fmt.Errorf("%w: duplicate position %d", ErrInvalidQuestion, p)
			}
			seen[p] = true
		}
		return nil
	}

	switch qType {
	case model.QuestionTypeSingle:
		if len(correct) != 1 {
			return fmt.Errorf("%w: single choice needs exactly one correct position", ErrInvalidQuestion)
		}
		return inRange(correct)
	case model.QuestionTypeMultiple:
		if len(correct) == 0 {
			return fmt.Errorf("%w: multiple choice needs at least one correct position", ErrInvalidQuestion)
		}
		return inRange(correct)
	case model.QuestionTypeTrueFalse:
		if optionCount != 2 {
			return fmt.Errorf("%w: true-false needs exactly two options", ErrInvalidQuestion)
		}
		if len(correct) != 1 {
			return fmt.Errorf("%w: true-false needs exactly one correct position", ErrInvalidQuestion)
		}
		return inRange(correct)
	case model.QuestionTypeRanking:
		if len(ranking) != optionCount {
			return fmt.Errorf("%w: ranking must order every option", ErrInvalidQuestion)
		}
		sorted := slices.Clone(ranking)
		slices.Sort(sorted)
		for i, p := range sorted {
			if p != i+1 {
				return fmt.Errorf("%w: ranking must be a permutation of 1..%d", ErrInvalidQuestion, optionCount)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestion, qType)
	}
}
