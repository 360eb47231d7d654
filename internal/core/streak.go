package core

import "sort"

// StreakState is the logging streak stored on a user.
type StreakState struct {
	LastEntryDate *Date `json:"lastEntryDate"`
	CurrentStreak int   `json:"currentStreak"`
	LongestStreak int   `json:"longestStreak"`
}

// Equal compares two states field by field.
func (s StreakState) Equal(o StreakState) bool {
	if s.CurrentStreak != o.CurrentStreak || s.LongestStreak != o.LongestStreak {
		return false
	}
	if s.LastEntryDate == nil || o.LastEntryDate == nil {
		return s.LastEntryDate == nil && o.LastEntryDate == nil
	}
	return s.LastEntryDate.Equal(o.LastEntryDate.Time)
}

// NextStreak applies one logged entry on day today to s. changed is false when the
// entry leaves the streak untouched: a second entry on the same day, or an entry
// dated before the last one (retried or reordered deliveries).
func NextStreak(s StreakState, today Date) (next StreakState, changed bool) {
	if s.LastEntryDate == nil || s.LastEntryDate.IsZero() {
		return StreakState{LastEntryDate: &today, CurrentStreak: 1, LongestStreak: max(s.LongestStreak, 1)}, true
	}

	diff := s.LastEntryDate.DaysUntil(today)
	switch {
	case diff <= 0:
		return s, false
	case diff == 1:
		current := s.CurrentStreak + 1
		return StreakState{
			LastEntryDate: &today,
			CurrentStreak: current,
			LongestStreak: max(s.LongestStreak, current),
		}, true
	default:
		return StreakState{
			LastEntryDate: &today,
			CurrentStreak: 1,
			LongestStreak: s.LongestStreak,
		}, true
	}
}

// ReplayStreak rebuilds a streak from the days entries were logged on, in any order.
// Replaying is equivalent to feeding each day to NextStreak in ascending order.
func ReplayStreak(days []Date) StreakState {
	sorted := make([]Date, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j].Time) })
	var s StreakState
	for _, d := range sorted {
		s, _ = NextStreak(s, d)
	}
	return s
}
