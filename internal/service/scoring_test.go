package service

import (
	"testing"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
)

// buildQuestion wires a question with options whose ids are 101, 102, ...
// in position order.
func buildQuestion(qType model.QuestionType, optionCount int, correct, ranking []int) *model.Question {
	q := &model.Question{
		ID:               uuid.New(),
		GUID:             uuid.New(),
		Type:             qType,
		CorrectPositions: correct,
		RankingOrder:     ranking,
	}
	for i := 0; i < optionCount; i++ {
		q.Options = append(q.Options, model.Option{
			ID:       int64(101 + i),
			Position: i + 1,
		})
	}
	return q
}

func TestIsCorrect_Single(t *testing.T) {
	q := buildQuestion(model.QuestionTypeSingle, 4, []int{2}, nil)

	tests := []struct {
		name     string
		selected []int64
		want     bool
	}{
		{"correct option", []int64{102}, true},
		{"wrong option", []int64{101}, false},
		{"no selection", nil, false},
		{"too many selections", []int64{101, 102}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isCorrect(q, tc.selected); got != tc.want {
				t.Fatalf("isCorrect(%v) = %v, want %v", tc.selected, got, tc.want)
			}
		})
	}
}

func TestIsCorrect_MultipleOrderInsensitive(t *testing.T) {
	q := buildQuestion(model.QuestionTypeMultiple, 4, []int{1, 3}, nil)

	tests := []struct {
		name     string
		selected []int64
		want     bool
	}{
		{"in key order", []int64{101, 103}, true},
		{"reversed order", []int64{103, 101}, true},
		{"subset", []int64{101}, false},
		{"superset", []int64{101, 103, 104}, false},
		{"disjoint", []int64{102, 104}, false},
		{"empty", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isCorrect(q, tc.selected); got != tc.want {
				t.Fatalf("isCorrect(%v) = %v, want %v", tc.selected, got, tc.want)
			}
		})
	}
}

func TestIsCorrect_TrueFalse(t *testing.T) {
	q := buildQuestion(model.QuestionTypeTrueFalse, 2, []int{1}, nil)

	if !isCorrect(q, []int64{101}) {
		t.Fatal("correct option rejected")
	}
	if isCorrect(q, []int64{102}) {
		t.Fatal("wrong option accepted")
	}
	if isCorrect(q, []int64{101, 102}) {
		t.Fatal("double selection accepted")
	}
	if isCorrect(q, nil) {
		t.Fatal("empty selection accepted")
	}
}

func TestIsCorrect_RankingOrderSensitive(t *testing.T) {
	// Required sequence: option at position 3, then 1, then 2.
	q := buildQuestion(model.QuestionTypeRanking, 3, nil, []int{3, 1, 2})

	if !isCorrect(q, []int64{103, 101, 102}) {
		t.Fatal("exact sequence rejected")
	}
	// Same ids, wrong order: must score wrong.
	if isCorrect(q, []int64{101, 102, 103}) {
		t.Fatal("out-of-order sequence accepted")
	}
	if isCorrect(q, []int64{103, 101}) {
		t.Fatal("truncated sequence accepted")
	}
	if isCorrect(q, nil) {
		t.Fatal("empty sequence accepted")
	}
}

func TestIsCorrect_UnknownTypeNeverCorrect(t *testing.T) {
	q := buildQuestion("essay", 2, []int{1}, nil)
	if isCorrect(q, []int64{101}) {
		t.Fatal("unknown question type scored correct")
	}
}

func TestCorrectOptionIDs_SkipsUnknownPositions(t *testing.T) {
	q := buildQuestion(model.QuestionTypeMultiple, 2, []int{1, 9}, nil)
	ids := correctOptionIDs(q)
	if len(ids) != 1 || ids[0] != 101 {
		t.Fatalf("correctOptionIDs = %v, want [101]", ids)
	}
}

func TestCorrectOptionIDs_RankingKeepsSequence(t *testing.T) {
	q := buildQuestion(model.QuestionTypeRanking, 3, nil, []int{2, 3, 1})
	ids := correctOptionIDs(q)
	want := []int64{102, 103, 101}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("correctOptionIDs = %v, want %v", ids, want)
		}
	}
}

func TestScoreQuestion_BreakdownFields(t *testing.T) {
	q := buildQuestion(model.QuestionTypeSingle, 3, []int{2}, nil)

	res := scoreQuestion(q, []int64{102})
	if !res.Correct {
		t.Fatal("correct answer scored wrong")
	}
	if res.QuestionID != q.ID || res.QuestionGUID != q.GUID {
		t.Fatal("breakdown lost question identity")
	}
	if len(res.CorrectOptionIDs) != 1 || res.CorrectOptionIDs[0] != 102 {
		t.Fatalf("CorrectOptionIDs = %v, want [102]", res.CorrectOptionIDs)
	}

	missed := scoreQuestion(q, nil)
	if missed.Correct {
		t.Fatal("unanswered question scored correct")
	}
}
