/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the internal domain
  model so fields can evolve without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/rotation-engine/rotation"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// MemberDTO represents one person inside a participant.
type MemberDTO struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	BankDetails string `json:"bank_details,omitempty"`
	Paid        bool   `json:"paid"` // for the turn the response is scoped to
}

// ParticipantDTO represents a participant with its schedule position.
type ParticipantDTO struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	DisplayName string      `json:"display_name"`
	Members     []MemberDTO `json:"members"`
	TurnNumber  int         `json:"turn_number"`
	PaymentDate string      `json:"payment_date"`
	Deadline    string      `json:"deadline"`
	Paid        bool        `json:"paid"` // whole-entity roll-up for the scoped turn
	IsCurrent   bool        `json:"is_current"`
	IsPast      bool        `json:"is_past"`
}

// SettingsDTO mirrors the schedule configuration.
type SettingsDTO struct {
	GroupName   string `json:"group_name"`
	QuotaAmount int64  `json:"quota_amount"`
	CurrentTurn int    `json:"current_turn"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	GraceDays1  int    `json:"grace_days_1"`
	GraceDays2  int    `json:"grace_days_2"`
	IsLocked    bool   `json:"is_locked"`
}

// GroupDTO is the full group document.
type GroupDTO struct {
	ID           string           `json:"id"`
	Settings     SettingsDTO      `json:"settings"`
	Participants []ParticipantDTO `json:"participants"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at,omitempty"`
}

// GroupListItemDTO is the compact listing row.
type GroupListItemDTO struct {
	ID               string `json:"id"`
	GroupName        string `json:"group_name"`
	ParticipantCount int    `json:"participant_count"`
	CurrentTurn      int    `json:"current_turn"`
	CreatedAt        string `json:"created_at"`
}

// SummaryDTO is the dashboard aggregation for the current turn.
type SummaryDTO struct {
	Turn             int     `json:"turn"`
	Collected        int64   `json:"collected"`
	Total            int64   `json:"total"`
	Progress         float64 `json:"progress"`
	FullyPaid        bool    `json:"fully_paid"`
	PaymentDate      string  `json:"payment_date"`
	GraceDays        int     `json:"grace_days"`
	Deadline         string  `json:"deadline"`
	RecipientID      string  `json:"recipient_id,omitempty"`
	RecipientName    string  `json:"recipient_name,omitempty"`
	PayoutPerMember  int64   `json:"payout_per_member,omitempty"` // only once fully paid
	BehindSchedule   bool    `json:"behind_schedule"`
	ComputedTurn     int     `json:"computed_turn"`
	ParticipantCount int     `json:"participant_count"`
}

// TurnScheduleDTO is one row of the public turn schedule.
type TurnScheduleDTO struct {
	Turn          int    `json:"turn"`
	PaymentDate   string `json:"payment_date"`
	Deadline      string `json:"deadline"`
	RecipientID   string `json:"recipient_id,omitempty"`
	RecipientName string `json:"recipient_name,omitempty"`
	IsCurrent     bool   `json:"is_current"`
	IsPast        bool   `json:"is_past"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateGroupRequest creates a group with default settings.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// UpdateSettingsRequest replaces the schedule configuration.
type UpdateSettingsRequest struct {
	GroupName   string `json:"group_name"`
	QuotaAmount int64  `json:"quota_amount"`
	CurrentTurn int    `json:"current_turn"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	GraceDays1  int    `json:"grace_days_1"`
	GraceDays2  int    `json:"grace_days_2"`
	IsLocked    bool   `json:"is_locked"`
}

// MemberRequest carries one member's details.
type MemberRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	BankDetails string `json:"bank_details,omitempty"`
}

// AddParticipantRequest appends a participant at turn N+1.
// Exactly one member for singles, exactly two for shared turns.
type AddParticipantRequest struct {
	Type    string          `json:"type"` // "single" | "shared"
	Members []MemberRequest `json:"members"`
}

// UpdateParticipantRequest edits member details in place.
type UpdateParticipantRequest struct {
	Members []MemberRequest `json:"members"`
}

// ImportRequest bulk-imports participants from pasted text.
type ImportRequest struct {
	Text string `json:"text"`
}

// ReorderRequest splices the turn-sorted sequence.
type ReorderRequest struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

// AssignRequest moves a participant to a target turn, or to the turn owning
// a target payment date when TargetDate is set.
type AssignRequest struct {
	ParticipantID string `json:"participant_id"`
	TargetTurn    int    `json:"target_turn,omitempty"`
	TargetDate    string `json:"target_date,omitempty"`
}

// ToggleRequest flips paid state; MemberIndex nil toggles the whole entity.
type ToggleRequest struct {
	MemberIndex *int `json:"member_index,omitempty"`
}

// BatchToggleRequest applies several toggles against the same turn.
type BatchToggleRequest struct {
	Updates []BatchToggleUpdate `json:"updates"`
}

// BatchToggleUpdate is one target inside a batch.
type BatchToggleUpdate struct {
	ParticipantID string `json:"participant_id"`
	MemberIndex   *int   `json:"member_index,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSettingsDTO(s rotation.ScheduleConfig) SettingsDTO {
	return SettingsDTO{
		GroupName:   s.GroupName,
		QuotaAmount: s.QuotaAmount,
		CurrentTurn: s.CurrentTurn,
		Frequency:   string(s.Frequency),
		StartDate:   s.StartDate.String(),
		GraceDays1:  s.GraceDays1,
		GraceDays2:  s.GraceDays2,
		IsLocked:    s.IsLocked,
	}
}

func toParticipantDTO(e *rotation.Entity, s rotation.ScheduleConfig) ParticipantDTO {
	turn := e.TurnNumber
	due := rotation.PaymentDate(s, turn)

	members := make([]MemberDTO, len(e.Members))
	for i := range e.Members {
		members[i] = MemberDTO{
			Name:        e.Members[i].Name,
			Phone:       e.Members[i].Phone,
			BankDetails: e.Members[i].BankDetails,
			Paid:        e.Members[i].Paid(s.CurrentTurn),
		}
	}

	return ParticipantDTO{
		ID:          e.ID,
		Type:        string(e.Type),
		DisplayName: rotation.DisplayName(e),
		Members:     members,
		TurnNumber:  turn,
		PaymentDate: due.String(),
		Deadline:    rotation.Deadline(due, rotation.GraceDays(s, turn)).String(),
		Paid:        e.Paid(s.CurrentTurn),
		IsCurrent:   turn == s.CurrentTurn,
		IsPast:      turn < s.CurrentTurn,
	}
}

func toGroupDTO(g *rotation.Group) GroupDTO {
	participants := make([]ParticipantDTO, len(g.Participants))
	for i := range g.Participants {
		participants[i] = toParticipantDTO(&g.Participants[i], g.Settings)
	}
	return GroupDTO{
		ID:           g.ID,
		Settings:     toSettingsDTO(g.Settings),
		Participants: participants,
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    g.UpdatedAt.Format(time.RFC3339),
	}
}
