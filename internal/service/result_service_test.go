package service

import (
	"context"
	"errors"
	"testing"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeReportStore layers canned category-joined rows over the plain result
// fake, the way the SQL join would produce them.
type fakeReportStore struct {
	*fakeResultStore
	byUser map[int][]repository.UserExamResult
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{
		fakeResultStore: newFakeResultStore(),
		byUser:          map[int][]repository.UserExamResult{},
	}
}

func (f *fakeReportStore) ListByUser(_ context.Context, userID int) ([]repository.UserExamResult, error) {
	return f.byUser[userID], nil
}

func userResult(score float64, passed bool, categoryID *uuid.UUID, categoryName string) repository.UserExamResult {
	r := repository.UserExamResult{
		ExamResult: model.ExamResult{
			ID:              uuid.New(),
			ExamID:          uuid.New(),
			SessionID:       uuid.New(),
			UserID:          1,
			ScorePercentage: score,
			Passed:          passed,
		},
		CategoryID: categoryID,
	}
	if categoryName != "" {
		r.CategoryName = &categoryName
	}
	return r
}

func TestGetUserExamResults_GroupsByCategory(t *testing.T) {
	store := newFakeReportStore()
	svc := NewResultService(store, newFakeExamStore(), zerolog.Nop())

	mathID := uuid.New()
	sciID := uuid.New()
	store.byUser[1] = []repository.UserExamResult{
		userResult(80, true, &mathID, "Mathematics"),
		userResult(60, false, &mathID, "Mathematics"),
		userResult(90, true, &sciID, "Science"),
		// No category: dropped from the report entirely.
		userResult(10, false, nil, ""),
	}

	report, err := svc.GetUserExamResults(context.Background(), 1)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if len(report.Categories) != 2 {
		t.Fatalf("%d categories, want 2 (uncategorized result skipped)", len(report.Categories))
	}
	if report.TotalExams != 3 || report.TotalPassed != 2 || report.TotalFailed != 1 {
		t.Fatalf("totals = %d/%d/%d, want 3 exams, 2 passed, 1 failed",
			report.TotalExams, report.TotalPassed, report.TotalFailed)
	}

	byName := map[string]CategoryResults{}
	for _, c := range report.Categories {
		byName[c.CategoryName] = c
	}

	math, ok := byName["Mathematics"]
	if !ok {
		t.Fatal("Mathematics bucket missing")
	}
	if len(math.Results) != 2 || math.AverageScore != 70 {
		t.Fatalf("Mathematics: %d results avg %v, want 2 results avg 70", len(math.Results), math.AverageScore)
	}
	if math.CategoryID != mathID {
		t.Fatal("Mathematics bucket lost its category id")
	}

	sci := byName["Science"]
	if sci.AverageScore != 90 {
		t.Fatalf("Science avg = %v, want 90", sci.AverageScore)
	}

	// Overall average weighs included results, not categories: (80+60+90)/3.
	if report.AverageScore != 76.67 {
		t.Fatalf("overall avg = %v, want 76.67", report.AverageScore)
	}
}

func TestGetUserExamResults_Empty(t *testing.T) {
	store := newFakeReportStore()
	svc := NewResultService(store, newFakeExamStore(), zerolog.Nop())

	report, err := svc.GetUserExamResults(context.Background(), 42)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.Categories == nil || len(report.Categories) != 0 {
		t.Fatalf("categories = %v, want empty non-nil slice", report.Categories)
	}
	if report.TotalExams != 0 || report.AverageScore != 0 {
		t.Fatal("empty report must carry zero totals")
	}
}

func TestGetAllExamResults_Summary(t *testing.T) {
	store := newFakeReportStore()
	exams := newFakeExamStore()
	svc := NewResultService(store, exams, zerolog.Nop())
	ctx := context.Background()

	examID := uuid.New()
	exams.exams[examID] = &model.Exam{ID: examID, Status: model.ExamStatusPublished}

	seed := []struct {
		score  float64
		passed bool
		userID int
	}{
		{80, true, 1},
		{55.5, false, 1},
		{90, true, 2}, // another user, must not leak in
	}
	for _, s := range seed {
		res := &model.ExamResult{
			ExamID: examID, SessionID: uuid.New(),
			UserID: s.userID, ScorePercentage: s.score, Passed: s.passed,
		}
		if err := store.CreateExclusive(ctx, res); err != nil {
			t.Fatalf("seed result: %v", err)
		}
	}

	summary, err := svc.GetAllExamResults(ctx, examID, 1)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalResults != 2 || summary.Passed != 1 || summary.Failed != 1 {
		t.Fatalf("summary counts = %d/%d/%d, want 2 results, 1 passed, 1 failed",
			summary.TotalResults, summary.Passed, summary.Failed)
	}
	// (80 + 55.5) / 2 rounded to two decimals.
	if summary.AverageScore != 67.75 {
		t.Fatalf("average = %v, want 67.75", summary.AverageScore)
	}
}

func TestGetAllExamResults_EmptyAndUnknownExam(t *testing.T) {
	store := newFakeReportStore()
	exams := newFakeExamStore()
	svc := NewResultService(store, exams, zerolog.Nop())
	ctx := context.Background()

	examID := uuid.New()
	exams.exams[examID] = &model.Exam{ID: examID, Status: model.ExamStatusPublished}

	summary, err := svc.GetAllExamResults(ctx, examID, 99)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalResults != 0 || summary.Passed != 0 || summary.Failed != 0 || summary.AverageScore != 0 {
		t.Fatalf("no-attempt summary = %+v, want all zero counts", summary)
	}
	if summary.Results == nil {
		t.Fatal("results must be an empty slice, not nil")
	}

	if _, err := svc.GetAllExamResults(ctx, uuid.New(), 1); !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("unknown exam: err = %v, want ErrExamNotFound", err)
	}
}
