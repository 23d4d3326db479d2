package domain

import "math"

// SecondsPerDay is the length of a usage day. Days are counted from the Unix epoch.
const SecondsPerDay = 86400

// Sentinels for an identity that has never drawn. Both compare older than any
// real day or timestamp.
const (
	NeverReset int64 = math.MinInt64
	NoCooldown int64 = math.MinInt64
)

// UsageRecord is the per-identity rate-limit state.
type UsageRecord struct {
	Identity          Identity
	DailyCount        uint32
	LastResetDay      int64
	CooldownUntil     int64
	TotalDraws        uint64
	LastDrawTimestamp int64
}

// NewUsageRecord returns the state of an identity that has never drawn.
func NewUsageRecord(identity Identity) UsageRecord {
	return UsageRecord{
		Identity:      identity,
		LastResetDay:  NeverReset,
		CooldownUntil: NoCooldown,
	}
}

// DayIndex returns floor(now / SecondsPerDay).
func DayIndex(now int64) int64 {
	d := now / SecondsPerDay
	if now%SecondsPerDay < 0 {
		d--
	}
	return d
}

// CooldownDelay returns how long an identity must wait after its dailyCount-th
// draw of the day.
func CooldownDelay(dailyCount uint32) int64 {
	switch dailyCount {
	case 0, 1:
		return 0
	case 2:
		return 30 * 60
	case 3:
		return 2 * 3600
	default:
		return SecondsPerDay
	}
}

// Evaluate decides whether a draw may proceed at now. The day rollover is
// applied first and sticks even when the attempt is rejected.
// A rejection is returned as *RateLimitedError.
func (u *UsageRecord) Evaluate(now int64) error {
	if day := DayIndex(now); day > u.LastResetDay {
		u.DailyCount = 0
		u.LastResetDay = day
	}
	if now < u.CooldownUntil {
		return &RateLimitedError{SecondsRemaining: u.CooldownUntil - now}
	}
	return nil
}

// Commit records an accepted draw at now and arms the next cooldown window.
// It must only follow an Evaluate that returned nil.
func (u *UsageRecord) Commit(now int64) {
	u.LastDrawTimestamp = now
	u.TotalDraws++
	u.DailyCount++
	u.CooldownUntil = now + CooldownDelay(u.DailyCount)
}

// SecondsUntilEligible is how long the identity still has to wait at now, or 0.
func (u UsageRecord) SecondsUntilEligible(now int64) int64 {
	if now < u.CooldownUntil {
		return u.CooldownUntil - now
	}
	return 0
}
