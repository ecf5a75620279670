package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ResultService serves read-side reporting over stored exam results.
type ResultService struct {
	results ResultStore
	exams   ExamStore
	log     zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultStore, exams ExamStore, log zerolog.Logger) *ResultService {
	return &ResultService{
		results: results,
		exams:   exams,
		log:     log.With().Str("component", "result_service").Logger(),
	}
}

// ExamResultsSummary rolls up one user's attempts at one exam.
type ExamResultsSummary struct {
	Results      []model.ExamResult `json:"results"`
	TotalResults int                `json:"total_results"`
	AverageScore float64            `json:"average_score"`
	Passed       int                `json:"passed"`
	Failed       int                `json:"failed"`
}

// CategoryResults groups a user's results under one category.
type CategoryResults struct {
	CategoryID          uuid.UUID                   `json:"category_id"`
	CategoryName        string                      `json:"category_name"`
	CategoryDescription string                      `json:"category_description,omitempty"`
	Results             []repository.UserExamResult `json:"results"`
	AverageScore        float64                     `json:"average_score"`
}

// UserResultsReport is everything a user has scored, grouped by category.
type UserResultsReport struct {
	Categories   []CategoryResults `json:"categories"`
	TotalExams   int               `json:"total_exams"`
	TotalPassed  int               `json:"total_passed"`
	TotalFailed  int               `json:"total_failed"`
	AverageScore float64           `json:"average_score"`
}

// GetAllExamResults summarizes every result one user has for one exam. A user
// with no attempts gets a zero-count summary, not an error.
func (s *ResultService) GetAllExamResults(ctx context.Context, examID uuid.UUID, userID int) (*ExamResultsSummary, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	results, err := s.results.ListByExamAndUser(ctx, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	summary := &ExamResultsSummary{Results: []model.ExamResult{}}
	if len(results) == 0 {
		return summary, nil
	}

	total := 0.0
	for _, res := range results {
		total += res.ScorePercentage
		if res.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	summary.Results = results
	summary.TotalResults = len(results)
	summary.AverageScore = round2(total / float64(len(results)))
	return summary, nil
}

// GetUserExamResults builds the cross-exam report for a user: results grouped
// by category, with per-category and overall averages. Results on exams
// without a category are left out of the report entirely. The overall average
// weighs every included result equally, not every category.
func (s *ResultService) GetUserExamResults(ctx context.Context, userID int) (*UserResultsReport, error) {
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user results: %w", err)
	}

	report := &UserResultsReport{Categories: []CategoryResults{}}

	index := map[uuid.UUID]int{}
	total := 0.0
	for _, res := range results {
		if res.CategoryID == nil {
			continue
		}

		i, ok := index[*res.CategoryID]
		if !ok {
			i = len(report.Categories)
			index[*res.CategoryID] = i
			bucket := CategoryResults{CategoryID: *res.CategoryID}
			if res.CategoryName != nil {
				bucket.CategoryName = *res.CategoryName
			}
			if res.CategoryDescription != nil {
				bucket.CategoryDescription = *res.CategoryDescription
			}
			report.Categories = append(report.Categories, bucket)
		}
		report.Categories[i].Results = append(report.Categories[i].Results, res)

		total += res.ScorePercentage
		report.TotalExams++
		if res.Passed {
			report.TotalPassed++
		} else {
			report.TotalFailed++
		}
	}

	if report.TotalExams == 0 {
		return report, nil
	}

	for i := range report.Categories {
		sum := 0.0
		for _, res := range report.Categories[i].Results {
			sum += res.ScorePercentage
		}
		report.Categories[i].AverageScore = round2(sum / float64(len(report.Categories[i].Results)))
	}
	report.AverageScore = round2(total / float64(report.TotalExams))

	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
