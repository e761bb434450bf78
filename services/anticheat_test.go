package services

import (
	"testing"
	"time"
)

func testRules() map[string]GameRules {
	return map[string]GameRules{
		"flappy": {MaxScore: 500, MinDuration: 5, MaxScorePerSecond: 10},
		"neon":   {MaxScore: 1000000, MinDuration: 5, MaxScorePerSecond: 500},
	}
}

// startedAgo returns a session start such that the server-observed elapsed
// time is exactly elapsed seconds before now.
func startedAgo(now time.Time, elapsed int64) time.Time {
	return now.Add(-time.Duration(elapsed) * time.Second)
}

func TestValidateScoreAccepts(t *testing.T) {
	now := time.Now()
	res := ValidateScore(testRules(), "flappy", 42, 10, startedAgo(now, 10), now)
	if !res.Valid {
		t.Fatalf("expected valid, got reason %s (%s)", res.Reason, res.Detail)
	}
}

func TestValidateScoreUnknownGame(t *testing.T) {
	now := time.Now()
	res := ValidateScore(testRules(), "pinball", 10, 10, startedAgo(now, 10), now)
	if res.Valid || res.Reason != ReasonUnknownGame {
		t.Fatalf("expected %s, got %+v", ReasonUnknownGame, res)
	}
}

func TestValidateScoreMaxScore(t *testing.T) {
	now := time.Now()
	res := ValidateScore(testRules(), "flappy", 501, 60, startedAgo(now, 60), now)
	if res.Valid || res.Reason != ReasonMaxScore {
		t.Fatalf("expected %s, got %+v", ReasonMaxScore, res)
	}
}

func TestValidateScoreDurationTooShort(t *testing.T) {
	now := time.Now()
	res := ValidateScore(testRules(), "flappy", 10, 4, startedAgo(now, 4), now)
	if res.Valid || res.Reason != ReasonDurationTooShort {
		t.Fatalf("expected %s, got %+v", ReasonDurationTooShort, res)
	}
}

func TestValidateScoreDriftBoundary(t *testing.T) {
	now := time.Now()

	// Server saw 13s more than reported: outside tolerance.
	res := ValidateScore(testRules(), "flappy", 10, 10, startedAgo(now, 23), now)
	if res.Valid || res.Reason != ReasonDurationMismatch {
		t.Fatalf("expected %s at 13s drift, got %+v", ReasonDurationMismatch, res)
	}

	// 11s of drift is inside tolerance.
	res = ValidateScore(testRules(), "flappy", 10, 10, startedAgo(now, 21), now)
	if !res.Valid {
		t.Fatalf("expected valid at 11s drift, got %+v", res)
	}

	// Reported duration longer than server elapsed counts as drift too.
	res = ValidateScore(testRules(), "flappy", 10, 20, startedAgo(now, 6), now)
	if res.Valid || res.Reason != ReasonDurationMismatch {
		t.Fatalf("expected %s for inflated duration, got %+v", ReasonDurationMismatch, res)
	}
}

func TestValidateScoreRate(t *testing.T) {
	now := time.Now()

	// 11 points in 1s exceeds flappy's 10/s cap, but duration 1 < min 5
	// fires first; use 55 over 5s (11/s) to isolate the rate check.
	res := ValidateScore(testRules(), "flappy", 56, 5, startedAgo(now, 5), now)
	if res.Valid || res.Reason != ReasonScoreRate {
		t.Fatalf("expected %s, got %+v", ReasonScoreRate, res)
	}

	// Exactly at the cap passes.
	res = ValidateScore(testRules(), "flappy", 50, 5, startedAgo(now, 5), now)
	if !res.Valid {
		t.Fatalf("expected valid at rate cap, got %+v", res)
	}
}

func TestValidateScoreRatePerSecond(t *testing.T) {
	rules := map[string]GameRules{
		"flappy": {MaxScore: 500, MinDuration: 1, MaxScorePerSecond: 10},
	}
	now := time.Now()

	res := ValidateScore(rules, "flappy", 11, 1, startedAgo(now, 1), now)
	if res.Valid || res.Reason != ReasonScoreRate {
		t.Fatalf("11 points in 1s must exceed the 10/s cap, got %+v", res)
	}

	res = ValidateScore(rules, "flappy", 10, 1, startedAgo(now, 1), now)
	if !res.Valid {
		t.Fatalf("10 points in 1s must pass, got %+v", res)
	}
}

func TestValidateScoreOrdering(t *testing.T) {
	now := time.Now()

	// Both max-score and rate violated; max-score is checked first.
	res := ValidateScore(testRules(), "flappy", 9000, 5, startedAgo(now, 5), now)
	if res.Reason != ReasonMaxScore {
		t.Fatalf("expected %s to short-circuit, got %+v", ReasonMaxScore, res)
	}
}
