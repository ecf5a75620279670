package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examgate/examgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type sessionFixture struct {
	svc       *ExamSessionService
	sessions  *fakeSessionStore
	exams     *fakeExamStore
	questions *fakeQuestionStore
	answers   *fakeAnswerStore
	examID    uuid.UUID
}

// newSessionFixture seeds one published 30-minute exam with four single
// choice questions (correct option is always position 1, ids 101, 201, ...).
func newSessionFixture(t *testing.T, totalQuestions int) *sessionFixture {
	t.Helper()

	sessions := newFakeSessionStore()
	exams := newFakeExamStore()
	questions := newFakeQuestionStore()
	answers := newFakeAnswerStore()

	examID := uuid.New()
	exams.exams[examID] = &model.Exam{
		ID:              examID,
		Title:           "Networking Basics",
		DurationMinutes: 30,
		PassingScore:    70,
		TotalQuestions:  totalQuestions,
		Status:          model.ExamStatusPublished,
	}

	for i := 0; i < 4; i++ {
		q := model.Question{
			ID:               uuid.New(),
			ExamID:           examID,
			GUID:             uuid.New(),
			Text:             "q",
			Type:             model.QuestionTypeSingle,
			CorrectPositions: []int{1},
			OrderNum:         i,
		}
		base := int64((i + 1) * 100)
		for p := 1; p <= 3; p++ {
			q.Options = append(q.Options, model.Option{ID: base + int64(p), QuestionID: q.ID, Position: p})
		}
		questions.byExam[examID] = append(questions.byExam[examID], q)
	}

	return &sessionFixture{
		svc:       NewExamSessionService(sessions, exams, questions, answers, zerolog.Nop()),
		sessions:  sessions,
		exams:     exams,
		questions: questions,
		answers:   answers,
		examID:    examID,
	}
}

func TestStart_DrawsConfiguredCount(t *testing.T) {
	f := newSessionFixture(t, 3)

	view, err := f.svc.Start(context.Background(), f.examID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(view.QuestionOrder) != 3 {
		t.Fatalf("drew %d questions, want 3", len(view.QuestionOrder))
	}
	if view.Status != model.SessionStatusActive {
		t.Fatalf("status = %s, want ACTIVE", view.Status)
	}

	// Every drawn id must belong to the exam, without repeats.
	seen := map[uuid.UUID]bool{}
	for _, id := range view.QuestionOrder {
		if seen[id] {
			t.Fatal("duplicate question in draw")
		}
		seen[id] = true
		found := false
		for _, q := range f.questions.byExam[f.examID] {
			if q.ID == id {
				found = true
			}
		}
		if !found {
			t.Fatal("drawn question not part of the exam")
		}
	}
}

func TestStart_FewerQuestionsThanConfigured(t *testing.T) {
	f := newSessionFixture(t, 10)

	view, err := f.svc.Start(context.Background(), f.examID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(view.QuestionOrder) != 4 {
		t.Fatalf("drew %d questions, want all 4 available", len(view.QuestionOrder))
	}
}

func TestStart_IdempotentWhileLive(t *testing.T) {
	f := newSessionFixture(t, 3)

	first, err := f.svc.Start(context.Background(), f.examID, 1)
	if err != nil {
		t.Fatalf("first start failed: %v", err)
	}

	second, err := f.svc.Start(context.Background(), f.examID, 1)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("second start created a new session")
	}
	if len(f.sessions.sessions) != 1 {
		t.Fatalf("%d sessions persisted, want 1", len(f.sessions.sessions))
	}

	// Draw order must be unchanged.
	for i := range first.QuestionOrder {
		if first.QuestionOrder[i] != second.QuestionOrder[i] {
			t.Fatal("second start reshuffled the question order")
		}
	}
}

func TestStart_NewSessionAfterCompletion(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, f.examID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	stored := f.sessions.sessions[first.ID]
	stored.Status = model.SessionStatusCompleted

	second, err := f.svc.Start(ctx, f.examID, 1)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("completed session was reused")
	}
}

func TestStart_UnknownExam(t *testing.T) {
	f := newSessionFixture(t, 3)

	_, err := f.svc.Start(context.Background(), uuid.New(), 1)
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}

func TestPauseResume_StateMachine(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, f.examID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	paused, err := f.svc.Pause(ctx, view.ID, f.examID, 1)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if paused.Status != model.SessionStatusPaused {
		t.Fatalf("status = %s, want PAUSED", paused.Status)
	}

	// Pausing a paused session is an invalid state transition.
	if _, err := f.svc.Pause(ctx, view.ID, f.examID, 1); !errors.Is(err, ErrSessionPaused) {
		t.Fatalf("double pause err = %v, want ErrSessionPaused", err)
	}

	resumed, err := f.svc.Resume(ctx, view.ID, f.examID, 1)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Status != model.SessionStatusActive {
		t.Fatalf("status = %s, want ACTIVE", resumed.Status)
	}

	// Resuming an active session is likewise invalid.
	if _, err := f.svc.Resume(ctx, view.ID, f.examID, 1); !errors.Is(err, ErrSessionNotPaused) {
		t.Fatalf("double resume err = %v, want ErrSessionNotPaused", err)
	}
}

func TestSubmitAnswer_WhilePausedRejected(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)
	if _, err := f.svc.Pause(ctx, view.ID, f.examID, 1); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	q := f.questions.byExam[f.examID][0]
	_, err := f.svc.SubmitAnswer(ctx, view.ID, f.examID, 1, &model.SubmitAnswerRequest{
		QuestionGUID:    q.GUID,
		SelectedOptions: model.OptionIDList{101},
	})
	if !errors.Is(err, ErrSessionPaused) {
		t.Fatalf("err = %v, want ErrSessionPaused", err)
	}
}

func TestSubmitAnswer_RecordsAndOverwrites(t *testing.T) {
	f := newSessionFixture(t, 4)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)
	q := f.questions.byExam[f.examID][0]

	if _, err := f.svc.SubmitAnswer(ctx, view.ID, f.examID, 1, &model.SubmitAnswerRequest{
		QuestionGUID:    q.GUID,
		SelectedOptions: model.OptionIDList{102},
	}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// Last write wins.
	updated, err := f.svc.SubmitAnswer(ctx, view.ID, f.examID, 1, &model.SubmitAnswerRequest{
		QuestionGUID:    q.GUID,
		SelectedOptions: model.OptionIDList{101},
	})
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	got := updated.Answered[q.GUID.String()]
	if len(got) != 1 || got[0] != 101 {
		t.Fatalf("answered = %v, want [101]", got)
	}

	answers, _ := f.answers.ListBySession(ctx, view.ID)
	if len(answers) != 1 {
		t.Fatalf("%d answer rows, want 1 (upsert)", len(answers))
	}
	if answers[0].SelectedOptions[0] != 101 {
		t.Fatalf("persisted selection = %v, want [101]", answers[0].SelectedOptions)
	}
}

func TestSubmitAnswer_ForeignQuestionRejected(t *testing.T) {
	f := newSessionFixture(t, 2)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)

	// Find a question of the exam that was NOT drawn into this session.
	var foreign *model.Question
	for i := range f.questions.byExam[f.examID] {
		q := &f.questions.byExam[f.examID][i]
		drawn := false
		for _, id := range view.QuestionOrder {
			if id == q.ID {
				drawn = true
			}
		}
		if !drawn {
			foreign = q
			break
		}
	}
	if foreign == nil {
		t.Fatal("fixture did not leave an undrawn question")
	}

	_, err := f.svc.SubmitAnswer(ctx, view.ID, f.examID, 1, &model.SubmitAnswerRequest{
		QuestionGUID:    foreign.GUID,
		SelectedOptions: model.OptionIDList{1},
	})
	if !errors.Is(err, ErrQuestionNotInSession) {
		t.Fatalf("err = %v, want ErrQuestionNotInSession", err)
	}

	if answers, _ := f.answers.ListBySession(ctx, view.ID); len(answers) != 0 {
		t.Fatal("rejected submission still persisted an answer")
	}
}

func TestExpiredSession_FlippedOnAccess(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)

	// Rewind the clock so the session is past its end time.
	stored := f.sessions.sessions[view.ID]
	stored.EndTime = time.Now().Add(-time.Minute)

	_, err := f.svc.State(ctx, view.ID, f.examID, 1)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if got := f.sessions.sessions[view.ID].Status; got != model.SessionStatusCompleted {
		t.Fatalf("status after expiry = %s, want COMPLETED", got)
	}

	// Completed sessions are invisible to further state access.
	if _, err := f.svc.State(ctx, view.ID, f.examID, 1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second access err = %v, want ErrSessionNotFound", err)
	}
}

func TestNavigation_PersistsCursor(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)

	next, err := f.svc.GetCurrentQuestion(ctx, view.ID, f.examID, 1, model.NavNext)
	if err != nil {
		t.Fatalf("navigate next failed: %v", err)
	}
	if next.Index != 1 {
		t.Fatalf("index = %d, want 1", next.Index)
	}

	// Cursor survives a reload with no direction.
	same, err := f.svc.GetCurrentQuestion(ctx, view.ID, f.examID, 1, "")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if same.Index != 1 {
		t.Fatalf("reloaded index = %d, want 1", same.Index)
	}

	// Prev at zero stays clamped.
	f.svc.GetCurrentQuestion(ctx, view.ID, f.examID, 1, model.NavPrev)
	first, _ := f.svc.GetCurrentQuestion(ctx, view.ID, f.examID, 1, model.NavPrev)
	if first.Index != 0 {
		t.Fatalf("index after double prev = %d, want 0", first.Index)
	}
}

func TestGetCurrentQuestion_RetiredQuestionStaysNavigable(t *testing.T) {
	f := newSessionFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, f.examID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Retire the question under the cursor after the draw.
	drawn := view.QuestionOrder[0]
	for i := range f.questions.byExam[f.examID] {
		if f.questions.byExam[f.examID][i].ID == drawn {
			f.questions.byExam[f.examID][i].Deleted = true
		}
	}

	current, err := f.svc.GetCurrentQuestion(ctx, view.ID, f.examID, 1, "")
	if err != nil {
		t.Fatalf("retired drawn question no longer resolvable: %v", err)
	}
	if current.Question.ID != drawn {
		t.Fatalf("cursor resolved %s, want the drawn question %s", current.Question.ID, drawn)
	}

	// A flagged question stays on the review list after it is retired.
	if _, err := f.svc.AddToReviewList(ctx, view.ID, f.examID, 1, drawn); err != nil {
		t.Fatalf("add to review failed: %v", err)
	}
	list, err := f.svc.GetReviewList(ctx, view.ID, f.examID, 1)
	if err != nil {
		t.Fatalf("get review list failed: %v", err)
	}
	if len(list) != 1 || list[0].Question.ID != drawn {
		t.Fatalf("review list = %+v, want the retired flagged question", list)
	}
}

func TestReviewFlow(t *testing.T) {
	f := newSessionFixture(t, 4)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)
	q := f.questions.byExam[f.examID][1]

	if _, err := f.svc.AddToReviewList(ctx, view.ID, f.examID, 1, q.ID); err != nil {
		t.Fatalf("add to review failed: %v", err)
	}

	list, err := f.svc.GetReviewList(ctx, view.ID, f.examID, 1)
	if err != nil {
		t.Fatalf("get review list failed: %v", err)
	}
	if len(list) != 1 || list[0].Question.ID != q.ID {
		t.Fatalf("review list = %v, want the flagged question", list)
	}

	single, err := f.svc.GetReviewQuestion(ctx, view.ID, f.examID, 1, q.ID)
	if err != nil {
		t.Fatalf("get review question failed: %v", err)
	}
	if single.Question.ID != q.ID {
		t.Fatal("wrong question returned")
	}

	if _, err := f.svc.RemoveFromReviewList(ctx, view.ID, f.examID, 1, q.ID); err != nil {
		t.Fatalf("remove from review failed: %v", err)
	}
	if _, err := f.svc.GetReviewQuestion(ctx, view.ID, f.examID, 1, q.ID); !errors.Is(err, ErrNotInReviewList) {
		t.Fatalf("err = %v, want ErrNotInReviewList", err)
	}
}

func TestSessionScope_WrongOwnerInvisible(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()

	view, _ := f.svc.Start(ctx, f.examID, 1)

	if _, err := f.svc.State(ctx, view.ID, f.examID, 2); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign user err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.svc.State(ctx, view.ID, uuid.New(), 1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign exam err = %v, want ErrSessionNotFound", err)
	}
}
