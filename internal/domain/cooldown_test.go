package domain_test

import (
	"errors"
	"testing"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

const day = domain.SecondsPerDay

func expectRateLimited(t *testing.T, err error, remaining int64) {
	t.Helper()
	var rl *domain.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.SecondsRemaining != remaining {
		t.Errorf("expected %d seconds remaining, got %d", remaining, rl.SecondsRemaining)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Error("RateLimitedError must match ErrRateLimited")
	}
}

func TestUsage_FreshIdentityAccepts(t *testing.T) {
	for _, now := range []int64{0, 1, -day * 3, 1_700_000_000} {
		u := domain.NewUsageRecord(testIdentity(1))
		if err := u.Evaluate(now); err != nil {
			t.Errorf("now=%d: expected accept, got %v", now, err)
		}
	}
}

func TestUsage_EscalatingCooldown(t *testing.T) {
	t0 := int64(10*day + 1000)
	u := domain.NewUsageRecord(testIdentity(1))

	if err := u.Evaluate(t0); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	u.Commit(t0)
	if u.DailyCount != 1 || u.CooldownUntil != t0 {
		t.Fatalf("after first commit: count=%d cooldownUntil=%d", u.DailyCount, u.CooldownUntil)
	}

	if err := u.Evaluate(t0); err != nil {
		t.Fatalf("second evaluate at t0: %v", err)
	}
	u.Commit(t0)
	if u.CooldownUntil != t0+1800 {
		t.Fatalf("expected cooldown until t0+1800, got t0+%d", u.CooldownUntil-t0)
	}

	expectRateLimited(t, u.Evaluate(t0+1000), 800)
	if u.DailyCount != 2 {
		t.Errorf("rejected evaluate must not touch the count, got %d", u.DailyCount)
	}

	t3 := t0 + 1800
	if err := u.Evaluate(t3); err != nil {
		t.Fatalf("third evaluate: %v", err)
	}
	u.Commit(t3)
	if u.CooldownUntil != t3+7200 {
		t.Errorf("expected 2h cooldown, got %d", u.CooldownUntil-t3)
	}

	t4 := t3 + 7200
	if err := u.Evaluate(t4); err != nil {
		t.Fatalf("fourth evaluate: %v", err)
	}
	u.Commit(t4)
	if u.CooldownUntil != t4+day {
		t.Errorf("expected 24h cooldown, got %d", u.CooldownUntil-t4)
	}
	if u.TotalDraws != 4 || u.LastDrawTimestamp != t4 {
		t.Errorf("lifetime state: total=%d last=%d", u.TotalDraws, u.LastDrawTimestamp)
	}
}

func TestUsage_DayRolloverKeepsCooldown(t *testing.T) {
	t0 := int64(10*day + 80000)
	u := domain.NewUsageRecord(testIdentity(1))
	u.DailyCount = 3
	u.LastResetDay = 10
	if err := u.Evaluate(t0); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	u.Commit(t0)
	// Fourth draw of day 10 arms a 24h window reaching into day 11.

	next := int64(11*day + 5)
	expectRateLimited(t, u.Evaluate(next), t0+day-next)
	if u.DailyCount != 0 {
		t.Errorf("expected count reset on the new day, got %d", u.DailyCount)
	}
	if u.LastResetDay != 11 {
		t.Errorf("expected last reset day 11, got %d", u.LastResetDay)
	}

	later := t0 + day
	if err := u.Evaluate(later); err != nil {
		t.Fatalf("evaluate after window: %v", err)
	}
	u.Commit(later)
	if u.DailyCount != 1 || u.CooldownUntil != later {
		t.Errorf("first draw of the new day should be free: count=%d wait=%d",
			u.DailyCount, u.CooldownUntil-later)
	}
}

func TestUsage_CooldownMonotonic(t *testing.T) {
	u := domain.NewUsageRecord(testIdentity(4))
	now := int64(50 * day)
	prev := u.CooldownUntil
	for range 12 {
		if err := u.Evaluate(now); err != nil {
			now = u.CooldownUntil
			continue
		}
		u.Commit(now)
		if u.CooldownUntil < prev {
			t.Fatalf("cooldown went backwards: %d < %d", u.CooldownUntil, prev)
		}
		prev = u.CooldownUntil
	}
}

func TestCooldownDelay(t *testing.T) {
	tests := map[uint32]int64{1: 0, 2: 1800, 3: 7200, 4: day, 9: day}
	for count, want := range tests {
		if got := domain.CooldownDelay(count); got != want {
			t.Errorf("CooldownDelay(%d): expected %d, got %d", count, want, got)
		}
	}
}

func TestDayIndex(t *testing.T) {
	tests := map[int64]int64{0: 0, day - 1: 0, day: 1, -1: -1, -day: -1, -day - 1: -2}
	for now, want := range tests {
		if got := domain.DayIndex(now); got != want {
			t.Errorf("DayIndex(%d): expected %d, got %d", now, want, got)
		}
	}
}
