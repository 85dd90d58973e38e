/*
Package rotation provides the core engine for rotating-savings groups.

PURPOSE:
  A rotating-savings group (tanda/polla) has a fixed set of participants who
  each contribute a quota every payment period; on each turn one participant
  (or a shared pair) collects the whole pot. This package owns the
  non-trivial logic:
  - Calendar mapping from turn number to payment date (calendar.go)
  - Grace-day selection and deadline computation (calendar.go)
  - Per-turn, per-member payment ledger and aggregation (ledger.go)
  - Contiguous turn assignment: append/remove/reorder/shuffle (assignment.go)
  - Auto-advance of the "current turn" pointer (advance.go)

KEY CONCEPTS IN THIS FILE (types.go):
  - PlainDate: A calendar date pinned to local noon (no DST off-by-one)
  - ScheduleConfig: Frequency, quota, grace windows, lock flag
  - Member: One person inside a participant, with their own payment history
  - Entity: A participant occupying exactly one turn (single or shared pair)
  - Group: The whole-group aggregate that stores persist atomically

DESIGN PRINCIPLES:
  1. Single source of truth: paid state lives in PaymentHistory maps;
     any "is this turn paid" boolean is derived on read, never stored twice
  2. Whole-group writes: every mutation transforms the full entity slice,
     then the caller saves the group as one unit (last write wins)
  3. Return-value rejection: locked or closed-turn operations return
     sentinel errors and leave state untouched; nothing panics in normal flow

SEE ALSO:
  - calendar.go: Turn-to-date mapping and deadlines
  - ledger.go: Payment toggles and pot aggregation
  - assignment.go: Turn numbering invariant (contiguous 1..N)
  - store.go: GroupStore persistence interface
*/
package rotation

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// PLAIN DATE - Calendar date pinned to local noon
// =============================================================================

// PlainDate is a calendar date (year, month, day). The backing time is fixed
// to 12:00 local so that arithmetic never crosses a day boundary through DST
// or UTC rounding. Two PlainDates are equal iff they name the same calendar day.
type PlainDate struct {
	Time time.Time
}

// NewPlainDate builds a date at local noon. Out-of-range month/day values are
// normalized the usual time.Date way (month 13 = January next year, day 0 =
// last day of the previous month).
func NewPlainDate(year int, month time.Month, day int) PlainDate {
	return PlainDate{Time: time.Date(year, month, day, 12, 0, 0, 0, time.Local)}
}

// DateOf truncates an instant to its local calendar day.
func DateOf(t time.Time) PlainDate {
	lt := t.Local()
	return NewPlainDate(lt.Year(), lt.Month(), lt.Day())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (PlainDate, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return PlainDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewPlainDate(t.Year(), t.Month(), t.Day()), nil
}

func (d PlainDate) Year() int         { return d.Time.Year() }
func (d PlainDate) Month() time.Month { return d.Time.Month() }
func (d PlainDate) Day() int          { return d.Time.Day() }
func (d PlainDate) IsZero() bool      { return d.Time.IsZero() }

func (d PlainDate) AddDays(n int) PlainDate {
	return NewPlainDate(d.Year(), d.Month(), d.Day()+n)
}

// Comparison is by calendar day, never by instant.
func (d PlainDate) Before(other PlainDate) bool { return d.normalize().Before(other.normalize()) }
func (d PlainDate) After(other PlainDate) bool  { return d.normalize().After(other.normalize()) }
func (d PlainDate) Equal(other PlainDate) bool  { return d.normalize().Equal(other.normalize()) }

func (d PlainDate) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of the calendar day in local time.
// Used for deadline checks: a payment is on time through the whole deadline day.
func (d PlainDate) EndOfDay() time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999999999, time.Local)
}

// String formats as ISO YYYY-MM-DD, the internal wire form for dates.
func (d PlainDate) String() string { return d.Time.Format("2006-01-02") }

func (d PlainDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *PlainDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = PlainDate{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// SCHEDULE CONFIG
// =============================================================================

// Frequency determines how turn numbers map onto the calendar.
type Frequency string

const (
	// FrequencyMonthly pays out on the last day of each month.
	FrequencyMonthly Frequency = "monthly"

	// FrequencyBiweekly alternates the 15th and the last day of each month.
	FrequencyBiweekly Frequency = "biweekly"
)

// ScheduleConfig holds the group-level settings that drive the calendar,
// grace windows, and the current-turn pointer.
//
// INVARIANTS:
//   - CurrentTurn >= 1 and never exceeds participant count + 1
//   - When IsLocked is true, structural turn operations are rejected
type ScheduleConfig struct {
	GroupName   string    `json:"groupName"`
	QuotaAmount int64     `json:"quotaAmount"` // per-entity contribution, integer currency (no fractional units)
	CurrentTurn int       `json:"currentTurn"`
	Frequency   Frequency `json:"frequency"`
	StartDate   PlainDate `json:"startDate"`
	GraceDays1  int       `json:"graceDays1"` // mid-month window (and the only window for monthly)
	GraceDays2  int       `json:"graceDays2"` // end-of-month window, biweekly only
	IsLocked    bool      `json:"isLocked"`
}

// DefaultSchedule returns the settings a freshly created group starts with.
func DefaultSchedule(groupName string, startDate PlainDate) ScheduleConfig {
	return ScheduleConfig{
		GroupName:   groupName,
		QuotaAmount: 0,
		CurrentTurn: 1,
		Frequency:   FrequencyMonthly,
		StartDate:   startDate,
		GraceDays1:  3,
		GraceDays2:  5,
		IsLocked:    false,
	}
}

// Validate checks boundary-level configuration rules. Core functions assume
// validated input; this is for the edges (API, import) to call.
func (s ScheduleConfig) Validate() error {
	if s.QuotaAmount < 0 {
		return fmt.Errorf("%w: quota amount must not be negative", ErrInvalidConfiguration)
	}
	if s.CurrentTurn < 1 {
		return fmt.Errorf("%w: current turn must be >= 1", ErrInvalidConfiguration)
	}
	if s.Frequency != FrequencyMonthly && s.Frequency != FrequencyBiweekly {
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalidConfiguration, s.Frequency)
	}
	if s.GraceDays1 < 0 || s.GraceDays2 < 0 {
		return fmt.Errorf("%w: grace days must not be negative", ErrInvalidConfiguration)
	}
	if s.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidConfiguration)
	}
	return nil
}

// =============================================================================
// MEMBER - One person inside a participant
// =============================================================================

// Member is a single person. Shared entities have two members, each with an
// independent payment history keyed by turn number.
type Member struct {
	Name           string       `json:"name"`
	Phone          string       `json:"phone,omitempty"`
	BankDetails    string       `json:"bankDetails,omitempty"`
	PaymentHistory map[int]bool `json:"paymentHistory,omitempty"`
}

// Paid reports whether this member has paid for the given turn.
// A missing entry reads as unpaid.
func (m *Member) Paid(turn int) bool { return m.PaymentHistory[turn] }

func (m *Member) setPaid(turn int, paid bool) {
	if m.PaymentHistory == nil {
		m.PaymentHistory = make(map[int]bool)
	}
	m.PaymentHistory[turn] = paid
}

// =============================================================================
// ENTITY - A participant occupying exactly one turn
// =============================================================================

// EntityType tags a participant as a single person or a shared pair.
type EntityType string

const (
	TypeSingle EntityType = "single"
	TypeShared EntityType = "shared"
)

// Entity is one participant in the rotation. Construct with NewSingle or
// NewShared so the member count always matches the type; a "shared" entity
// with one or three members is unrepresentable through the constructors.
//
// PaymentHistory on the entity is the whole-entity roll-up: for singles it is
// the member's state, for shared pairs it is true only when both members paid.
// It is recomputed on every member toggle, never edited independently.
type Entity struct {
	ID             string       `json:"id"`
	Type           EntityType   `json:"type"`
	Members        []Member     `json:"members"`
	TurnNumber     int          `json:"turnNumber"`
	PaymentHistory map[int]bool `json:"paymentHistory,omitempty"`
}

// NewSingle creates a one-person participant. Turn number is assigned on append.
func NewSingle(id string, member Member) Entity {
	return Entity{ID: id, Type: TypeSingle, Members: []Member{member}}
}

// NewShared creates a two-person participant sharing one turn.
func NewShared(id string, first, second Member) Entity {
	return Entity{ID: id, Type: TypeShared, Members: []Member{first, second}}
}

// Validate checks the type/member-count pairing for data loaded from storage.
func (e *Entity) Validate() error {
	switch e.Type {
	case TypeSingle:
		if len(e.Members) != 1 {
			return fmt.Errorf("%w: single entity %s has %d members", ErrMalformedEntity, e.ID, len(e.Members))
		}
	case TypeShared:
		if len(e.Members) != 2 {
			return fmt.Errorf("%w: shared entity %s has %d members", ErrMalformedEntity, e.ID, len(e.Members))
		}
	default:
		return fmt.Errorf("%w: entity %s has unknown type %q", ErrMalformedEntity, e.ID, e.Type)
	}
	return nil
}

// =============================================================================
// GROUP - Whole-group aggregate
// =============================================================================

// Group owns its schedule and participants exclusively; stores read and write
// it as one atomically-replaced unit. Participants are kept ordered by turn.
type Group struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"ownerId"`
	Settings     ScheduleConfig `json:"settings"`
	Participants []Entity       `json:"participants"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewGroup creates an empty group with default settings starting today.
func NewGroup(id, ownerID, name string, now time.Time) *Group {
	return &Group{
		ID:        id,
		OwnerID:   ownerID,
		Settings:  DefaultSchedule(name, DateOf(now)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Entity returns the participant with the given ID, or nil.
func (g *Group) Entity(id string) *Entity {
	for i := range g.Participants {
		if g.Participants[i].ID == id {
			return &g.Participants[i]
		}
	}
	return nil
}

// Recipient returns the participant holding the current turn, or nil when the
// rotation is empty or already finished.
func (g *Group) Recipient() *Entity {
	for i := range g.Participants {
		if g.Participants[i].TurnNumber == g.Settings.CurrentTurn {
			return &g.Participants[i]
		}
	}
	return nil
}
