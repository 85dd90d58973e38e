/*
ledger.go - Per-turn, per-member payment record and pot aggregation

PURPOSE:
  Tracks who has paid for which turn and rolls that up into the numbers the
  dashboard shows: collected amount, total goal, progress percentage, and the
  payout split for a shared recipient.

PAID-STATE MODEL:
  Member.PaymentHistory is the source of truth. The entity-level
  PaymentHistory is a derived roll-up kept in sync on every toggle:
  - single: mirrors the one member
  - shared: true only when EVERY member paid that turn (AND)
  Reads fall back to false for missing turns; nothing defaults to paid.

TOGGLES:
  Payments flip only on explicit user action. A whole-entity toggle forces
  all members to the new value; a per-member toggle flips one member and
  recomputes the roll-up. Batch toggles apply the same rules per target,
  last-applied-wins on conflicting duplicates.

PARTIAL CREDITING:
  A shared pair where only one member paid still contributes
  floor(quota / memberCount) to the pot. The pot is never all-or-nothing
  per entity; it counts the money actually in hand.

SEE ALSO:
  - types.go: PaymentHistory maps on Member and Entity
  - assignment.go: Structural operations that renumber turns
*/
package rotation

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAID-STATE READS
// =============================================================================

// Paid reports the whole-entity paid state for a turn: the derived roll-up
// for shared pairs, the member's state for singles. Missing turns read false.
func (e *Entity) Paid(turn int) bool { return e.PaymentHistory[turn] }

// MemberPaid reports one member's paid state for a turn.
func (e *Entity) MemberPaid(memberIndex, turn int) (bool, error) {
	if memberIndex < 0 || memberIndex >= len(e.Members) {
		return false, ErrMemberIndexOutOfRange
	}
	return e.Members[memberIndex].Paid(turn), nil
}

// =============================================================================
// TOGGLES
// =============================================================================

// TogglePayment flips the whole entity's paid state for a turn and forces
// every member to the new value. This is the single-tap "mark paid" action.
func (e *Entity) TogglePayment(turn int) {
	paid := !e.Paid(turn)
	for i := range e.Members {
		e.Members[i].setPaid(turn, paid)
	}
	e.setRollup(turn, paid)
}

// ToggleMemberPayment flips one member's paid state for a turn, then
// recomputes the entity roll-up (AND across members).
func (e *Entity) ToggleMemberPayment(memberIndex, turn int) error {
	if memberIndex < 0 || memberIndex >= len(e.Members) {
		return ErrMemberIndexOutOfRange
	}
	m := &e.Members[memberIndex]
	m.setPaid(turn, !m.Paid(turn))

	all := true
	for i := range e.Members {
		if !e.Members[i].Paid(turn) {
			all = false
			break
		}
	}
	e.setRollup(turn, all)
	return nil
}

func (e *Entity) setRollup(turn int, paid bool) {
	if e.PaymentHistory == nil {
		e.PaymentHistory = make(map[int]bool)
	}
	e.PaymentHistory[turn] = paid
}

// PaymentUpdate addresses one toggle target inside a batch.
// MemberIndex nil means a whole-entity toggle.
type PaymentUpdate struct {
	EntityID    string
	MemberIndex *int
}

// BatchToggle applies toggles sequentially against the same turn. Each update
// follows the single-toggle rules independently; duplicate targets resolve
// last-applied-wins. Unknown entity IDs fail the whole batch up front so a
// partial batch never lands.
func (g *Group) BatchToggle(turn int, updates []PaymentUpdate) error {
	for _, u := range updates {
		if g.Entity(u.EntityID) == nil {
			return ErrEntityNotFound
		}
	}
	for _, u := range updates {
		e := g.Entity(u.EntityID)
		if u.MemberIndex == nil {
			e.TogglePayment(turn)
			continue
		}
		if err := e.ToggleMemberPayment(*u.MemberIndex, turn); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// AGGREGATION
// =============================================================================

// CollectionSummary is the computed pot state for one turn.
type CollectionSummary struct {
	Turn      int
	Collected int64
	Total     int64
	Progress  decimal.Decimal // 0..100
	FullyPaid bool
}

// CollectedAmount sums the money actually in hand for a turn. Singles
// contribute the full quota when paid; each paid member of a shared pair
// contributes floor(quota / memberCount).
func CollectedAmount(entities []Entity, turn int, quota int64) int64 {
	var collected int64
	for i := range entities {
		e := &entities[i]
		if e.Type == TypeSingle {
			if e.Paid(turn) {
				collected += quota
			}
			continue
		}
		share := quota / int64(len(e.Members))
		for j := range e.Members {
			if e.Members[j].Paid(turn) {
				collected += share
			}
		}
	}
	return collected
}

// Summarize aggregates collected/total/progress for one turn. Progress is 0
// for an empty group (never a division by zero), and "fully paid" requires
// both 100% progress and at least one participant.
func Summarize(entities []Entity, turn int, quota int64) CollectionSummary {
	collected := CollectedAmount(entities, turn, quota)
	total := int64(len(entities)) * quota

	progress := decimal.Zero
	if total > 0 {
		progress = decimal.NewFromInt(collected).
			Div(decimal.NewFromInt(total)).
			Mul(decimal.NewFromInt(100))
	}

	return CollectionSummary{
		Turn:      turn,
		Collected: collected,
		Total:     total,
		Progress:  progress,
		FullyPaid: len(entities) > 0 && progress.Equal(decimal.NewFromInt(100)),
	}
}

// PayoutPerMember is the display-only split of the pot across the recipient's
// members once the turn is fully collected. Rounded to whole currency units;
// never a ledger mutation.
func PayoutPerMember(total int64, memberCount int) int64 {
	if memberCount <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).
		DivRound(decimal.NewFromInt(int64(memberCount)), 0).
		IntPart()
}
