package service

import (
	"errors"
	"testing"

	"github.com/examgate/examgate-backend/internal/model"
)

func TestValidateAnswerKey(t *testing.T) {
	tests := []struct {
		name        string
		qType       model.QuestionType
		optionCount int
		correct     []int
		ranking     []int
		wantErr     bool
	}{
		{"single ok", model.QuestionTypeSingle, 4, []int{2}, nil, false},
		{"single none", model.QuestionTypeSingle, 4, nil, nil, true},
		{"single two", model.QuestionTypeSingle, 4, []int{1, 2}, nil, true},
		{"single out of range", model.QuestionTypeSingle, 4, []int{5}, nil, true},
		{"single zero position", model.QuestionTypeSingle, 4, []int{0}, nil, true},

		{"multiple ok", model.QuestionTypeMultiple, 4, []int{1, 3}, nil, false},
		{"multiple all", model.QuestionTypeMultiple, 3, []int{1, 2, 3}, nil, false},
		{"multiple none", model.QuestionTypeMultiple, 4, nil, nil, true},
		{"multiple duplicate", model.QuestionTypeMultiple, 4, []int{2, 2}, nil, true},
		{"multiple out of range", model.QuestionTypeMultiple, 4, []int{1, 7}, nil, true},

		{"true-false ok", model.QuestionTypeTrueFalse, 2, []int{2}, nil, false},
		{"true-false three options", model.QuestionTypeTrueFalse, 3, []int{1}, nil, true},
		{"true-false both correct", model.QuestionTypeTrueFalse, 2, []int{1, 2}, nil, true},

		{"ranking ok", model.QuestionTypeRanking, 3, nil, []int{3, 1, 2}, false},
		{"ranking identity", model.QuestionTypeRanking, 3, nil, []int{1, 2, 3}, false},
		{"ranking short", model.QuestionTypeRanking, 3, nil, []int{1, 2}, true},
		{"ranking repeated", model.QuestionTypeRanking, 3, nil, []int{1, 1, 2}, true},
		{"ranking out of range", model.QuestionTypeRanking, 3, nil, []int{1, 2, 4}, true},
		{"ranking empty", model.QuestionTypeRanking, 3, nil, nil, true},

		{"unknown type", model.QuestionType("essay"), 4, []int{1}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAnswerKey(tt.qType, tt.optionCount, tt.correct, tt.ranking)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuestion) {
					t.Fatalf("err = %v, want ErrInvalidQuestion", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
