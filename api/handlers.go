/*
handlers.go - HTTP API handlers for the rotation engine

PURPOSE:
  Exposes the rotation engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates every transform to the rotation package.

ENDPOINTS:
  Groups:
    GET    /api/groups                      List owner's groups
    POST   /api/groups                      Create group (default settings)
    GET    /api/groups/{id}                 Full group document
    DELETE /api/groups/{id}                 Delete group
    PUT    /api/groups/{id}/settings        Replace schedule settings
    GET    /api/groups/{id}/summary         Dashboard aggregation
    GET    /api/groups/{id}/turns           Public turn schedule
    GET    /api/groups/{id}/report          Shareable text report

  Participants:
    POST   /api/groups/{id}/participants           Append (single/shared)
    POST   /api/groups/{id}/participants/import    Bulk import from text
    PUT    /api/groups/{id}/participants/{pid}     Edit member details
    DELETE /api/groups/{id}/participants/{pid}     Remove + renumber

  Payments:
    POST   /api/groups/{id}/participants/{pid}/payments/{turn}  Toggle
    POST   /api/groups/{id}/payments/{turn}/batch               Batch toggle

  Turns:
    POST   /api/groups/{id}/turns/shuffle    Shuffle (before start only)
    POST   /api/groups/{id}/turns/reorder    Adjacent reorder
    POST   /api/groups/{id}/turns/assign     Assign by turn or by date

REQUEST FLOW:
  1. Resolve owner (X-Owner-ID header, opaque)
  2. Load the group, verify owner scope
  3. Transform in memory via rotation package
  4. Save the whole group back (last write wins)
  5. Serialize response

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Unknown group/participant (or wrong owner)
  - 409: Policy rejections - locked schedule, closed turn, shuffle-after-start
  - 500: Storage failures

SECURITY NOTE:
  The owner ID is opaque and unauthenticated. Authentication is an explicit
  non-goal of this service; front it with an authenticating proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - report.go: Text report rendering
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/rotation-engine/rotation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store rotation.GroupStore

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(store rotation.GroupStore) *Handler {
	return &Handler{Store: store, now: time.Now}
}

// WithClock overrides the handler's clock. Test hook.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func ownerID(r *http.Request) string {
	return r.Header.Get("X-Owner-ID")
}

// loadGroup fetches the group and enforces owner scoping. A group belonging
// to a different owner reads as not-found; the ID space leaks nothing.
func (h *Handler) loadGroup(w http.ResponseWriter, r *http.Request) (*rotation.Group, bool) {
	id := chi.URLParam(r, "id")
	g, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, rotation.ErrGroupNotFound) {
			writeError(w, http.StatusNotFound, "group not found", err)
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load group", err)
		}
		return nil, false
	}
	if owner := ownerID(r); owner != "" && g.OwnerID != owner {
		writeError(w, http.StatusNotFound, "group not found", rotation.ErrGroupNotFound)
		return nil, false
	}
	return g, true
}

// saveGroup stamps UpdatedAt and writes the whole document back.
func (h *Handler) saveGroup(w http.ResponseWriter, r *http.Request, g *rotation.Group) bool {
	g.UpdatedAt = h.now()
	if err := h.Store.Save(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save group", err)
		return false
	}
	return true
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns the owner's groups, newest first.
// GET /api/groups
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Store.ListByOwner(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups", err)
		return
	}

	items := make([]GroupListItemDTO, len(groups))
	for i, g := range groups {
		items[i] = GroupListItemDTO{
			ID:               g.ID,
			GroupName:        g.Settings.GroupName,
			ParticipantCount: len(g.Participants),
			CurrentTurn:      g.Settings.CurrentTurn,
			CreatedAt:        g.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateGroup creates an empty group with default settings.
// POST /api/groups
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "group name is required", nil)
		return
	}

	g := rotation.NewGroup(uuid.NewString(), ownerID(r), req.Name, h.now())
	if err := h.Store.Create(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create group", err)
		return
	}

	slog.Info("group created", "group_id", g.ID, "name", req.Name)
	writeJSON(w, http.StatusCreated, toGroupDTO(g))
}

// GetGroup returns the full group document.
// GET /api/groups/{id}
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// DeleteGroup removes the whole group.
// DELETE /api/groups/{id}
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), g.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete group", err)
		return
	}
	slog.Info("group deleted", "group_id", g.ID)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSettings replaces the schedule configuration.
// PUT /api/groups/{id}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	startDate, err := rotation.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err)
		return
	}

	settings := rotation.ScheduleConfig{
		GroupName:   req.GroupName,
		QuotaAmount: req.QuotaAmount,
		CurrentTurn: req.CurrentTurn,
		Frequency:   rotation.Frequency(req.Frequency),
		StartDate:   startDate,
		GraceDays1:  req.GraceDays1,
		GraceDays2:  req.GraceDays2,
		IsLocked:    req.IsLocked,
	}
	if err := settings.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings", err)
		return
	}
	if settings.CurrentTurn > len(g.Participants)+1 {
		writeError(w, http.StatusBadRequest, "current turn beyond end of rotation", rotation.ErrInvalidConfiguration)
		return
	}

	g.Settings = settings
	if !h.saveGroup(w, r, g) {
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// GetSummary returns the dashboard aggregation for the current turn.
// GET /api/groups/{id}/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.buildSummary(g))
}

func (h *Handler) buildSummary(g *rotation.Group) SummaryDTO {
	s := g.Settings
	summary := rotation.Summarize(g.Participants, s.CurrentTurn, s.QuotaAmount)
	due := rotation.PaymentDate(s, s.CurrentTurn)
	grace := rotation.GraceDays(s, s.CurrentTurn)
	computed := rotation.CurrentTurnFromDate(s, h.now())

	progress, _ := summary.Progress.Float64()
	dto := SummaryDTO{
		Turn:             s.CurrentTurn,
		Collected:        summary.Collected,
		Total:            summary.Total,
		Progress:         progress,
		FullyPaid:        summary.FullyPaid,
		PaymentDate:      due.String(),
		GraceDays:        grace,
		Deadline:         rotation.Deadline(due, grace).String(),
		BehindSchedule:   computed > s.CurrentTurn,
		ComputedTurn:     computed,
		ParticipantCount: len(g.Participants),
	}

	if recipient := g.Recipient(); recipient != nil {
		dto.RecipientID = recipient.ID
		dto.RecipientName = rotation.DisplayName(recipient)
		if summary.FullyPaid {
			dto.PayoutPerMember = rotation.PayoutPerMember(summary.Total, len(recipient.Members))
		}
	}
	return dto
}

// GetTurnSchedule returns the read-only public turn listing.
// GET /api/groups/{id}/turns
func (h *Handler) GetTurnSchedule(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	s := g.Settings
	rows := make([]TurnScheduleDTO, 0, len(g.Participants))
	for _, td := range rotation.ScheduleDates(s, len(g.Participants)) {
		row := TurnScheduleDTO{
			Turn:        td.Turn,
			PaymentDate: td.PaymentDate.String(),
			Deadline:    td.Deadline.String(),
			IsCurrent:   td.Turn == s.CurrentTurn,
			IsPast:      td.Turn < s.CurrentTurn,
		}
		for i := range g.Participants {
			if g.Participants[i].TurnNumber == td.Turn {
				row.RecipientID = g.Participants[i].ID
				row.RecipientName = rotation.DisplayName(&g.Participants[i])
				break
			}
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// PARTICIPANT HANDLERS
// =============================================================================

// AddParticipant appends a participant at turn N+1.
// POST /api/groups/{id}/participants
func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	var req AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	entity, err := entityFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid participant", err)
		return
	}

	g.AppendEntity(entity)
	if !h.saveGroup(w, r, g) {
		return
	}
	slog.Info("participant added", "group_id", g.ID, "participant_id", entity.ID, "type", entity.Type)
	writeJSON(w, http.StatusCreated, toGroupDTO(g))
}

func entityFromRequest(req AddParticipantRequest) (rotation.Entity, error) {
	members := make([]rotation.Member, len(req.Members))
	for i, m := range req.Members {
		if m.Name == "" {
			return rotation.Entity{}, errors.New("member name is required")
		}
		members[i] = rotation.Member{Name: m.Name, Phone: m.Phone, BankDetails: m.BankDetails}
	}

	switch rotation.EntityType(req.Type) {
	case rotation.TypeSingle:
		if len(members) != 1 {
			return rotation.Entity{}, errors.New("single participant needs exactly one member")
		}
		return rotation.NewSingle(uuid.NewString(), members[0]), nil
	case rotation.TypeShared:
		if len(members) != 2 {
			return rotation.Entity{}, errors.New("shared participant needs exactly two members")
		}
		return rotation.NewShared(uuid.NewString(), members[0], members[1]), nil
	default:
		return rotation.Entity{}, errors.New("type must be single or shared")
	}
}

// ImportParticipants bulk-imports from pasted text.
// POST /api/groups/{id}/participants/import
func (h *Handler) ImportParticipants(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	imported := rotation.ParseRoster(req.Text)
	if len(imported) == 0 {
		writeError(w, http.StatusBadRequest, "no participants found in text", nil)
		return
	}
	for i := range imported {
		imported[i].ID = uuid.NewString()
		g.AppendEntity(imported[i])
	}

	if !h.saveGroup(w, r, g) {
		return
	}
	slog.Info("participants imported", "group_id", g.ID, "count", len(imported))
	writeJSON(w, http.StatusCreated, toGroupDTO(g))
}

// UpdateParticipant edits member details (names, phones, bank details).
// Member count and type never change here; that is a structural operation.
// PUT /api/groups/{id}/participants/{pid}
func (h *Handler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	entity := g.Entity(chi.URLParam(r, "pid"))
	if entity == nil {
		writeError(w, http.StatusNotFound, "participant not found", rotation.ErrEntityNotFound)
		return
	}

	var req UpdateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Members) != len(entity.Members) {
		writeError(w, http.StatusBadRequest, "member count cannot change", nil)
		return
	}
	for i, m := range req.Members {
		if m.Name == "" {
			writeError(w, http.StatusBadRequest, "member name is required", nil)
			return
		}
		entity.Members[i].Name = m.Name
		entity.Members[i].Phone = m.Phone
		entity.Members[i].BankDetails = m.BankDetails
	}

	if !h.saveGroup(w, r, g) {
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// RemoveParticipant deletes a participant and renumbers survivors.
// DELETE /api/groups/{id}/participants/{pid}
func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	pid := chi.URLParam(r, "pid")
	if err := g.RemoveEntity(pid); err != nil {
		writeRejection(w, "cannot remove participant", err)
		return
	}
	if !h.saveGroup(w, r, g) {
		return
	}
	slog.Info("participant removed", "group_id", g.ID, "participant_id", pid)
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// TogglePayment flips paid state for one participant and turn.
// POST /api/groups/{id}/participants/{pid}/payments/{turn}
func (h *Handler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	entity := g.Entity(chi.URLParam(r, "pid"))
	if entity == nil {
		writeError(w, http.StatusNotFound, "participant not found", rotation.ErrEntityNotFound)
		return
	}
	turn, ok2 := parseTurn(w, r)
	if !ok2 {
		return
	}

	var req ToggleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	if req.MemberIndex == nil {
		entity.TogglePayment(turn)
	} else if err := entity.ToggleMemberPayment(*req.MemberIndex, turn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid member index", err)
		return
	}

	if !h.saveGroup(w, r, g) {
		return
	}
	writeJSON(w, http.StatusOK, h.buildSummary(g))
}

// BatchTogglePayments applies several toggles against the same turn.
// POST /api/groups/{id}/payments/{turn}/batch
func (h *Handler) BatchTogglePayments(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}
	turn, ok2 := parseTurn(w, r)
	if !ok2 {
		return
	}

	var req BatchToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	updates := make([]rotation.PaymentUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = rotation.PaymentUpdate{EntityID: u.ParticipantID, MemberIndex: u.MemberIndex}
	}
	if err := g.BatchToggle(turn, updates); err != nil {
		if rotation.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "participant not found", err)
		} else {
			writeError(w, http.StatusBadRequest, "invalid batch", err)
		}
		return
	}

	if !h.saveGroup(w, r, g) {
		return
	}
	writeJSON(w, http.StatusOK, h.buildSummary(g))
}

// =============================================================================
// TURN HANDLERS
// =============================================================================

// ShuffleTurns draws a random rotation order. Only before the rotation starts.
// POST /api/groups/{id}/turns/shuffle
func (h *Handler) ShuffleTurns(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}
	if err := g.Shuffle(nil); err != nil {
		writeRejection(w, "cannot shuffle", err)
		return
	}
	if !h.saveGroup(w, r, g) {
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// ReorderTurns splices one participant within the turn-sorted sequence.
// POST /api/groups/{id}/turns/reorder
func (h *Handler) ReorderTurns(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := g.ReorderAdjacent(req.FromIndex, req.ToIndex); err != nil {
		writeRejection(w, "cannot reorder", err)
		return
	}
	if !h.saveGroup(w, r, g) {
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// AssignTurn moves a participant to a target turn, resolving a target date
// through the calendar when given one instead.
// POST /api/groups/{id}/turns/assign
func (h *Handler) AssignTurn(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	targetTurn := req.TargetTurn
	if req.TargetDate != "" {
		date, err := rotation.ParseDate(req.TargetDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target date", err)
			return
		}
		turn, found := rotation.TurnForDate(g.Settings, date, len(g.Participants))
		if !found {
			writeError(w, http.StatusBadRequest, "target date is not a payment date in this schedule", nil)
			return
		}
		targetTurn = turn
	}

	if err := g.AssignByTargetTurn(req.ParticipantID, targetTurn); err != nil {
		writeRejection(w, "cannot reassign turn", err)
		return
	}
	if !h.saveGroup(w, r, g) {
		return
	}
	slog.Info("turn reassigned", "group_id", g.ID, "participant_id", req.ParticipantID, "target_turn", targetTurn)
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

// =============================================================================
// HELPERS
// =============================================================================

func parseTurn(w http.ResponseWriter, r *http.Request) (int, bool) {
	turn, err := strconv.Atoi(chi.URLParam(r, "turn"))
	if err != nil || turn < 1 {
		writeError(w, http.StatusBadRequest, "turn must be a positive integer", err)
		return 0, false
	}
	return turn, true
}

// writeRejection maps engine errors onto HTTP statuses: policy refusals are
// conflicts, missing participants are 404s, anything else is a bad request.
func writeRejection(w http.ResponseWriter, message string, err error) {
	switch {
	case rotation.IsRejection(err):
		writeError(w, http.StatusConflict, message, err)
	case rotation.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusBadRequest, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
