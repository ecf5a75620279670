package service

import (
	"slices"

	"github.com/examgate/examgate-backend/internal/model"
)

// correctOptionIDs maps a question's 1-based answer-key positions onto
// option ids. For ranking questions the RankingOrder sequence is used and
// the result order is significant; for all other types the positions come
// from CorrectPositions and the result is sorted. Unknown positions are
// skipped rather than guessed.
func correctOptionIDs(q *model.Question) []int64 {
	positions := q.CorrectPositions
	if q.Type == model.QuestionTypeRanking {
		positions = q.RankingOrder
	}

	ids := make([]int64, 0, len(positions))
	for _, pos := range positions {
		if opt, ok := q.OptionByPosition(pos); ok {
			ids = append(ids, opt.ID)
		}
	}
	if q.Type != model.QuestionTypeRanking {
		slices.Sort(ids)
	}
	return ids
}

// isCorrect compares a submitted selection against the question's answer key.
//
//   - single/multiple: set equality of option ids (order-insensitive).
//   - true-false: the single selected id must equal the single mapped id.
//   - ranking: the selected ids must match the required sequence exactly,
//     element for element — correct ids out of order score wrong.
//   - anything else: never correct.
func isCorrect(q *model.Question, selected []int64) bool {
	correct := correctOptionIDs(q)

	switch q.Type {
	case model.QuestionTypeSingle, model.QuestionTypeMultiple:
		if len(selected) != len(correct) || len(correct) == 0 {
			return false
		}
		sorted := slices.Clone(selected)
		slices.Sort(sorted)
		return slices.Equal(sorted, correct)

	case model.QuestionTypeTrueFalse:
		return len(correct) == 1 && len(selected) == 1 && selected[0] == correct[0]

	case model.QuestionTypeRanking:
		return len(correct) > 0 && slices.Equal(selected, correct)

	default:
		return false
	}
}

// scoreQuestion produces the frozen per-question breakdown for one question.
// selected is nil for questions the user never answered (including drawn
// questions never shown), which always score as missed.
func scoreQuestion(q *model.Question, selected []int64) model.QuestionResult {
	return model.QuestionResult{
		QuestionID:       q.ID,
		QuestionGUID:     q.GUID,
		Text:             q.Text,
		Type:             q.Type,
		SelectedOptions:  selected,
		CorrectOptionIDs: correctOptionIDs(q),
		Correct:          isCorrect(q, selected),
	}
}
