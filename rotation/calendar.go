/*
calendar.go - Turn-to-date mapping, grace windows, and deadlines

PURPOSE:
  Pure functions from (schedule, turn number) to concrete calendar dates.
  Nothing here mutates state or touches the clock; callers pass "now" in.

CALENDAR RULES:
  Monthly:  turn 1 pays on the last day of the start month, turn 2 on the
            last day of the next month, and so on.
  Biweekly: two turns per month. Odd turns (1st, 3rd, ...) pay on the 15th,
            even turns on the last day of the same month.

GRACE RULES:
  Monthly:  always GraceDays1.
  Biweekly: GraceDays1 for the mid-month half, GraceDays2 for the
            end-of-month half. Payroll lands differently around each cutoff,
            so the two halves carry independent tolerance windows.

EXAMPLES:
  monthly, start 2024-01-10:  turn 1 -> 2024-01-31, turn 2 -> 2024-02-29
  biweekly, start 2024-03-01: turn 1 -> 2024-03-15, turn 2 -> 2024-03-31,
                              turn 3 -> 2024-04-15

SEE ALSO:
  - advance.go: Walks these dates to find the current turn
  - types.go: PlainDate noon-pinning that keeps the math DST-safe
*/
package rotation

import "time"

// =============================================================================
// CALENDAR ENGINE
// =============================================================================

// PaymentDate maps a turn number (>= 1, caller responsibility) to its nominal
// payment date. Deterministic: same schedule and turn always yield the same day.
func PaymentDate(s ScheduleConfig, turn int) PlainDate {
	turnIndex := turn - 1
	year, month := s.StartDate.Year(), s.StartDate.Month()

	if s.Frequency != FrequencyBiweekly {
		// Last day of the month turnIndex months after the start month.
		// Day 0 of month+turnIndex+1 normalizes to that last day.
		return lastDayOfMonth(year, month+time.Month(turnIndex))
	}

	monthOffset := time.Month(turnIndex / 2)
	if turnIndex%2 == 0 {
		return NewPlainDate(year, month+monthOffset, 15)
	}
	return lastDayOfMonth(year, month+monthOffset)
}

func lastDayOfMonth(year int, month time.Month) PlainDate {
	return NewPlainDate(year, month+1, 0)
}

// TurnForDate resolves a target payment date back to its turn number within
// 1..n. This is the inverse lookup behind "assign participant by date": the
// caller picks a date from the generated schedule, we find which turn owns it.
func TurnForDate(s ScheduleConfig, target PlainDate, n int) (int, bool) {
	for turn := 1; turn <= n; turn++ {
		if PaymentDate(s, turn).Equal(target) {
			return turn, true
		}
	}
	return 0, false
}

// TurnDate pairs a turn with its payment date and deadline, for schedule views.
type TurnDate struct {
	Turn        int
	PaymentDate PlainDate
	Deadline    PlainDate
}

// ScheduleDates returns the full payment calendar for turns 1..n.
func ScheduleDates(s ScheduleConfig, n int) []TurnDate {
	dates := make([]TurnDate, 0, n)
	for turn := 1; turn <= n; turn++ {
		due := PaymentDate(s, turn)
		dates = append(dates, TurnDate{
			Turn:        turn,
			PaymentDate: due,
			Deadline:    Deadline(due, GraceDays(s, turn)),
		})
	}
	return dates
}

// =============================================================================
// GRACE POLICY
// =============================================================================

// GraceDays selects the tolerance window for a turn. Biweekly schedules use
// GraceDays2 on the end-of-month half (even turns), GraceDays1 otherwise.
func GraceDays(s ScheduleConfig, turn int) int {
	if s.Frequency == FrequencyBiweekly && (turn-1)%2 == 1 {
		return s.GraceDays2
	}
	return s.GraceDays1
}

// Deadline is the payment date plus the grace window, in calendar days.
func Deadline(paymentDate PlainDate, graceDays int) PlainDate {
	return paymentDate.AddDays(graceDays)
}

// TurnDeadline is the convenience composition used nearly everywhere.
func TurnDeadline(s ScheduleConfig, turn int) PlainDate {
	return Deadline(PaymentDate(s, turn), GraceDays(s, turn))
}
