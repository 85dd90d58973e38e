/*
assignment.go - Contiguous turn numbering and structural operations

PURPOSE:
  Turn numbers across a group's participants must always be a contiguous
  permutation of 1..N: no gaps, no duplicates. Every structural operation
  here (append, remove, reorder, shuffle, assign-by-turn) re-establishes
  that invariant before returning.

OPERATIONS:
  Append:        new participant takes turn N+1
  Remove:        delete, then renumber survivors 1..N-1 in turn order
  ReorderAdjacent: splice within the turn-sorted sequence, renumber
  Shuffle:       uniform random permutation, renumber
  AssignByTargetTurn: move one participant to a chosen turn; everyone else
                 shifts, relative order preserved

REJECTION POLICY:
  - Any structural operation while the schedule is locked: ErrScheduleLocked
  - Reorder/reassign/remove touching a turn below CurrentTurn: ErrTurnClosed
    (those turns are history; rewriting them would corrupt paid records)
  - Shuffle once CurrentTurn > 1: ErrShuffleUnavailable
  Rejections leave the group byte-for-byte unchanged.

SEE ALSO:
  - calendar.go: TurnForDate, the inverse lookup behind assign-by-date
  - errors.go: The sentinel errors returned here
*/
package rotation

import (
	"math/rand"
	"sort"
)

// =============================================================================
// ORDERING HELPERS
// =============================================================================

// sortByTurn orders the participant slice by turn number in place.
func sortByTurn(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].TurnNumber < entities[j].TurnNumber
	})
}

// renumber assigns 1..N following the slice's current order.
func renumber(entities []Entity) {
	for i := range entities {
		entities[i].TurnNumber = i + 1
	}
}

// CheckContiguity verifies the 1..N invariant on loaded data.
func (g *Group) CheckContiguity() error {
	seen := make(map[int]bool, len(g.Participants))
	turns := make([]int, 0, len(g.Participants))
	for i := range g.Participants {
		t := g.Participants[i].TurnNumber
		turns = append(turns, t)
		if t < 1 || t > len(g.Participants) || seen[t] {
			return &ContiguityError{GroupID: g.ID, Turns: turns}
		}
		seen[t] = true
	}
	return nil
}

// =============================================================================
// STRUCTURAL OPERATIONS
// =============================================================================

// AppendEntity adds a participant at the end of the rotation (turn N+1).
// Appending is allowed even while locked; it never permutes existing turns.
func (g *Group) AppendEntity(e Entity) {
	e.TurnNumber = len(g.Participants) + 1
	g.Participants = append(g.Participants, e)
	sortByTurn(g.Participants)
}

// RemoveEntity deletes a participant and renumbers the survivors in their
// existing turn order, closing the gap. Rejected while locked or when the
// participant's turn has already passed.
func (g *Group) RemoveEntity(id string) error {
	if g.Settings.IsLocked {
		return ErrScheduleLocked
	}
	target := g.Entity(id)
	if target == nil {
		return ErrEntityNotFound
	}
	if target.TurnNumber < g.Settings.CurrentTurn {
		return &ClosedTurnError{EntityID: id, TurnNumber: target.TurnNumber, CurrentTurn: g.Settings.CurrentTurn}
	}

	kept := make([]Entity, 0, len(g.Participants)-1)
	for i := range g.Participants {
		if g.Participants[i].ID != id {
			kept = append(kept, g.Participants[i])
		}
	}
	sortByTurn(kept)
	renumber(kept)
	g.Participants = kept
	return nil
}

// ReorderAdjacent moves the participant at fromIndex (in the turn-sorted
// sequence) to toIndex, shifting neighbors, then renumbers 1..N. The UI only
// ever swaps neighbors but the splice handles any in-range pair.
func (g *Group) ReorderAdjacent(fromIndex, toIndex int) error {
	if g.Settings.IsLocked {
		return ErrScheduleLocked
	}
	n := len(g.Participants)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return ErrInvalidTurn
	}
	// Closed turns stay where they are, as source or destination.
	closed := g.Settings.CurrentTurn - 1
	if fromIndex < closed || toIndex < closed {
		return &ClosedTurnError{
			EntityID:    g.Participants[fromIndex].ID,
			TurnNumber:  fromIndex + 1,
			CurrentTurn: g.Settings.CurrentTurn,
		}
	}
	if fromIndex == toIndex {
		return nil
	}

	sorted := make([]Entity, n)
	copy(sorted, g.Participants)
	sortByTurn(sorted)

	moved := sorted[fromIndex]
	sorted = append(sorted[:fromIndex], sorted[fromIndex+1:]...)
	sorted = append(sorted[:toIndex], append([]Entity{moved}, sorted[toIndex:]...)...)
	renumber(sorted)
	g.Participants = sorted
	return nil
}

// Shuffle draws a uniform random permutation of the rotation and renumbers.
// Only available before the rotation starts; pass a seeded rand for
// reproducibility, or nil for the default source.
func (g *Group) Shuffle(rng *rand.Rand) error {
	if g.Settings.IsLocked {
		return ErrScheduleLocked
	}
	if g.Settings.CurrentTurn > 1 {
		return ErrShuffleUnavailable
	}

	shuffled := make([]Entity, len(g.Participants))
	copy(shuffled, g.Participants)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng != nil {
		rng.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}
	renumber(shuffled)
	g.Participants = shuffled
	return nil
}

// AssignByTargetTurn moves a participant to the given turn; everyone else
// shifts to make room, keeping their relative order. This is the back half of
// "assign by date" - the caller resolves the chosen date to a turn via
// TurnForDate first.
func (g *Group) AssignByTargetTurn(id string, targetTurn int) error {
	if g.Settings.IsLocked {
		return ErrScheduleLocked
	}
	if targetTurn < 1 || targetTurn > len(g.Participants) {
		return ErrInvalidTurn
	}
	target := g.Entity(id)
	if target == nil {
		return ErrEntityNotFound
	}
	if target.TurnNumber < g.Settings.CurrentTurn || targetTurn < g.Settings.CurrentTurn {
		return &ClosedTurnError{EntityID: id, TurnNumber: target.TurnNumber, CurrentTurn: g.Settings.CurrentTurn}
	}

	sorted := make([]Entity, len(g.Participants))
	copy(sorted, g.Participants)
	sortByTurn(sorted)

	fromIndex := -1
	for i := range sorted {
		if sorted[i].ID == id {
			fromIndex = i
			break
		}
	}

	moved := sorted[fromIndex]
	sorted = append(sorted[:fromIndex], sorted[fromIndex+1:]...)
	toIndex := targetTurn - 1
	sorted = append(sorted[:toIndex], append([]Entity{moved}, sorted[toIndex:]...)...)
	renumber(sorted)
	g.Participants = sorted
	return nil
}
