package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newActiveSession(now time.Time, durationMin int) *ExamSession {
	return &ExamSession{
		ID:        uuid.New(),
		ExamID:    uuid.New(),
		UserID:    1,
		Status:    SessionStatusActive,
		StartTime: now,
		EndTime:   now.Add(time.Duration(durationMin) * time.Minute),
		Answered:  map[string]OptionIDList{},
	}
}

func TestRemainingTime_CountsDownWhileActive(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)

	if got := s.RemainingTime(now); got != 30*time.Minute {
		t.Fatalf("remaining at start = %v, want 30m", got)
	}
	if got := s.RemainingTime(now.Add(10 * time.Minute)); got != 20*time.Minute {
		t.Fatalf("remaining after 10m = %v, want 20m", got)
	}
}

func TestRemainingTime_NeverNegative(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)

	if got := s.RemainingTime(now.Add(2 * time.Hour)); got != 0 {
		t.Fatalf("remaining past end = %v, want 0", got)
	}
}

func TestRemainingTime_FrozenWhilePaused(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)

	pausedAt := now.Add(10 * time.Minute)
	s.ApplyPause(pausedAt)

	atPause := s.RemainingTime(pausedAt)
	fiveLater := s.RemainingTime(pausedAt.Add(5 * time.Minute))
	hourLater := s.RemainingTime(pausedAt.Add(time.Hour))

	if atPause != fiveLater || fiveLater != hourLater {
		t.Fatalf("remaining moved while paused: %v, %v, %v", atPause, fiveLater, hourLater)
	}
	if atPause != 20*time.Minute {
		t.Fatalf("remaining at pause = %v, want 20m", atPause)
	}
}

func TestApplyResume_ExtendsEndTimeAndAccumulatesPause(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)
	originalEnd := s.EndTime

	pausedAt := now.Add(10 * time.Minute)
	s.ApplyPause(pausedAt)

	resumedAt := pausedAt.Add(7 * time.Minute)
	s.ApplyResume(resumedAt)

	if s.Status != SessionStatusActive {
		t.Fatalf("status after resume = %s, want ACTIVE", s.Status)
	}
	if s.PausedAt != nil {
		t.Fatal("PausedAt not cleared after resume")
	}
	if got := s.EndTime.Sub(originalEnd); got != 7*time.Minute {
		t.Fatalf("end time extended by %v, want 7m", got)
	}
	if s.TotalPausedMS != (7 * time.Minute).Milliseconds() {
		t.Fatalf("TotalPausedMS = %d, want %d", s.TotalPausedMS, (7 * time.Minute).Milliseconds())
	}

	// The pause window must not have cost any exam time.
	if got := s.RemainingTime(resumedAt); got != 20*time.Minute {
		t.Fatalf("remaining after resume = %v, want 20m", got)
	}
}

func TestRemainingTime_PreservedAcrossRepeatedPauses(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)

	// Two pause cycles. The accrued pause bookkeeping must not be charged
	// against the clock a second time on top of the end-time extension.
	s.ApplyPause(now.Add(5 * time.Minute))
	s.ApplyResume(now.Add(9 * time.Minute))
	s.ApplyPause(now.Add(14 * time.Minute))
	s.ApplyResume(now.Add(20 * time.Minute))

	if s.TotalPausedMS != (10 * time.Minute).Milliseconds() {
		t.Fatalf("TotalPausedMS = %d, want %d", s.TotalPausedMS, (10 * time.Minute).Milliseconds())
	}
	// 10 minutes of the exam spent, 20 left.
	if got := s.RemainingTime(now.Add(20 * time.Minute)); got != 20*time.Minute {
		t.Fatalf("remaining after two pause cycles = %v, want 20m", got)
	}
}

func TestRemainingTime_NonIncreasingAcrossPauseCycle(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)

	prev := s.RemainingTime(now)
	checkpoints := []time.Duration{1 * time.Minute, 5 * time.Minute, 9 * time.Minute}
	for _, d := range checkpoints {
		got := s.RemainingTime(now.Add(d))
		if got > prev {
			t.Fatalf("remaining increased from %v to %v at +%v", prev, got, d)
		}
		prev = got
	}

	pausedAt := now.Add(10 * time.Minute)
	s.ApplyPause(pausedAt)
	s.ApplyResume(pausedAt.Add(3 * time.Minute))

	got := s.RemainingTime(pausedAt.Add(3 * time.Minute))
	if got > prev {
		t.Fatalf("remaining increased across pause cycle: %v > %v", got, prev)
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	s := newActiveSession(now, 30)

	if s.IsExpired(now.Add(29 * time.Minute)) {
		t.Fatal("session expired before end time")
	}
	if !s.IsExpired(now.Add(31 * time.Minute)) {
		t.Fatal("session not expired after end time")
	}

	// A paused session's clock is stopped; it never expires.
	s.ApplyPause(now.Add(5 * time.Minute))
	if s.IsExpired(now.Add(2 * time.Hour)) {
		t.Fatal("paused session reported expired")
	}
}

func TestNavigate_ClampsAtBothEnds(t *testing.T) {
	s := &ExamSession{QuestionOrder: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}}

	if s.Navigate(NavPrev) {
		t.Fatal("prev moved past the first question")
	}
	if !s.Navigate(NavNext) || s.CurrentIndex != 1 {
		t.Fatalf("next did not advance, index = %d", s.CurrentIndex)
	}
	s.Navigate(NavNext)
	if s.Navigate(NavNext) {
		t.Fatal("next moved past the last question")
	}
	if s.CurrentIndex != 2 {
		t.Fatalf("index = %d, want 2", s.CurrentIndex)
	}
}

func TestReviewList_SetSemantics(t *testing.T) {
	s := &ExamSession{}
	q1, q2 := uuid.New(), uuid.New()

	s.AddToReview(q1)
	s.AddToReview(q1)
	s.AddToReview(q2)
	if len(s.ReviewList) != 2 {
		t.Fatalf("review list has %d entries, want 2 (no duplicates)", len(s.ReviewList))
	}

	s.RemoveFromReview(q1)
	if s.InReview(q1) {
		t.Fatal("q1 still in review after removal")
	}
	if !s.InReview(q2) {
		t.Fatal("q2 lost from review list")
	}

	// Removing an absent id is a no-op.
	s.RemoveFromReview(q1)
	if len(s.ReviewList) != 1 {
		t.Fatalf("review list has %d entries, want 1", len(s.ReviewList))
	}
}

func TestOptionIDList_UnmarshalMixedTypes(t *testing.T) {
	var l OptionIDList
	if err := l.UnmarshalJSON([]byte(`[1, "2", 3]`)); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	want := OptionIDList{1, 2, 3}
	if len(l) != len(want) {
		t.Fatalf("got %v, want %v", l, want)
	}
	for i := range want {
		if l[i] != want[i] {
			t.Fatalf("got %v, want %v", l, want)
		}
	}

	if err := l.UnmarshalJSON([]byte(`["abc"]`)); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
	if err := l.UnmarshalJSON([]byte(`[true]`)); err == nil {
		t.Fatal("expected error for boolean element")
	}
}
