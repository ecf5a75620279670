package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeSingle    QuestionType = "single"
	QuestionTypeMultiple  QuestionType = "multiple"
	QuestionTypeTrueFalse QuestionType = "true-false"
	QuestionTypeRanking   QuestionType = "ranking"
)

// Question represents a single exam question.
//
// Correctness is encoded as 1-based positions into the original option
// order, not as option ids. Reordering options without re-deriving the
// positions silently corrupts the answer key; positions are therefore
// assigned once at authoring time and never rewritten.
type Question struct {
	ID     uuid.UUID    `json:"id"`
	ExamID uuid.UUID    `json:"exam_id"`
	GUID   uuid.UUID    `json:"guid"`
	Text   string       `json:"text"`
	Type   QuestionType `json:"type"`
	// CorrectPositions holds the 1-based positions of the correct options.
	CorrectPositions []int `json:"correct_positions,omitempty"`
	// RankingOrder holds the 1-based positions in their required sequence.
	// Only meaningful for ranking questions.
	RankingOrder []int    `json:"ranking_order,omitempty"`
	OrderNum     int      `json:"order_num"`
	Deleted      bool     `json:"-"`
	Options      []Option `json:"options,omitempty"`
}

// Option is a selectable answer. Its 1-based Position within the question's
// option list is significant: the answer key references positions.
type Option struct {
	ID         int64     `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Position   int       `json:"position"`
}

// OptionByPosition returns the option at the given 1-based position.
func (q *Question) OptionByPosition(pos int) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].Position == pos {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// QuestionForUser is a question stripped of its answer key.
type QuestionForUser struct {
	ID       uuid.UUID    `json:"id"`
	GUID     uuid.UUID    `json:"guid"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	OrderNum int          `json:"order_num"`
	Options  []Option     `json:"options"`
}

// ForUser strips the answer key from a question.
func (q *Question) ForUser() QuestionForUser {
	return QuestionForUser{
		ID:       q.ID,
		GUID:     q.GUID,
		Text:     q.Text,
		Type:     q.Type,
		OrderNum: q.OrderNum,
		Options:  q.Options,
	}
}

// AddQuestionRequest is the payload for adding a question to an exam.
// Option positions are assigned from the authoring order (1-based).
type AddQuestionRequest struct {
	Text             string   `json:"text" binding:"required,min=1,max=4000"`
	Type             string   `json:"type" binding:"required,oneof=single multiple true-false ranking"`
	Options          []string `json:"options" binding:"required,min=2,dive,required,max=2000"`
	CorrectPositions []int    `json:"correct_positions" binding:"omitempty,dive,min=1"`
	RankingOrder     []int    `json:"ranking_order" binding:"omitempty,dive,min=1"`
	OrderNum         int      `json:"order_num" binding:"min=0"`
}

// OptionIDList is a list of selected option ids. Clients have historically
// sent ids both as JSON numbers and as numeric strings; both decode here.
type OptionIDList []int64

// UnmarshalJSON accepts [1, "2", 3] style payloads.
func (l *OptionIDList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(OptionIDList, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case float64:
			out = append(out, int64(t))
		case string:
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid option id %q", t)
			}
			out = append(out, n)
		default:
			return fmt.Errorf("invalid option id %v", v)
		}
	}
	*l = out
	return nil
}
