/*
advance.go - Computing the "current turn" from the calendar

PURPOSE:
  Given a schedule and the clock, find which turn the group should be on:
  the first turn whose deadline has not yet fully passed. The stored
  CurrentTurn pointer is compared against this to detect schedule drift;
  nothing here ever mutates the pointer.

SEE ALSO:
  - calendar.go: Payment dates and deadlines walked here
  - api/scheduler.go: Periodic drift check that logs behind-schedule groups
*/
package rotation

import "time"

// AutoAdvanceMaxTurns caps the deadline walk. Hitting it means the schedule
// configuration is degenerate (e.g., a start date centuries in the past);
// the cap value is returned rather than looping on.
const AutoAdvanceMaxTurns = 500

// CurrentTurnFromDate walks turns from 1 and returns the first whose
// deadline day has not yet ended as of now. Always >= 1.
func CurrentTurnFromDate(s ScheduleConfig, now time.Time) int {
	for turn := 1; turn <= AutoAdvanceMaxTurns; turn++ {
		if !now.After(TurnDeadline(s, turn).EndOfDay()) {
			return turn
		}
	}
	return AutoAdvanceMaxTurns
}

// BehindSchedule reports whether the calendar has moved past the stored
// current turn, i.e. payments are overdue. This is a warning signal for the
// boundary layer; advancing CurrentTurn remains an explicit user action.
func BehindSchedule(s ScheduleConfig, now time.Time) bool {
	return CurrentTurnFromDate(s, now) > s.CurrentTurn
}
