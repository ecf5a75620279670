package config

import (
	"testing"

	"github.com/google/uuid"
)

func TestCacheKeys(t *testing.T) {
	examID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	if got, want := CacheKey.UserSessionKey(42), "login:42"; got != want {
		t.Errorf("UserSessionKey = %q, want %q", got, want)
	}
	if got, want := CacheKey.ExamPayloadKey(examID), "exam:6ba7b810-9dad-11d1-80b4-00c04fd430c8:payload"; got != want {
		t.Errorf("ExamPayloadKey = %q, want %q", got, want)
	}
	if got, want := CacheKey.ExamStatsKey(examID), "exam:6ba7b810-9dad-11d1-80b4-00c04fd430c8:stats"; got != want {
		t.Errorf("ExamStatsKey = %q, want %q", got, want)
	}
}
