package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rotation-engine/rotation"
	"github.com/warp/rotation-engine/rotation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testOwner = "owner-1"

// testClock is well before the first deadline of the seeded schedule, so
// computed turn stays at 1 and nothing reads as behind schedule.
var testClock = time.Date(2024, 1, 5, 12, 0, 0, 0, time.Local)

func newTestServer(t *testing.T) (*chiServer, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(mem).WithClock(func() time.Time { return testClock })
	return &chiServer{router: NewRouter(h, []string{"*"})}, mem
}

type chiServer struct {
	router http.Handler
}

// do performs a request as the test owner and returns the recorder.
func (s *chiServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Owner-ID", testOwner)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// seedGroup plants a group with a known schedule directly in the store:
// quota 10000, monthly from 2024-01-10, grace 3/5, turn 1.
func seedGroup(t *testing.T, mem *store.Memory, id string, entities ...rotation.Entity) {
	t.Helper()
	g := rotation.NewGroup(id, testOwner, "Polla Familiar", testClock)
	g.Settings.QuotaAmount = 10000
	g.Settings.StartDate = rotation.NewPlainDate(2024, time.January, 10)
	for _, e := range entities {
		g.AppendEntity(e)
	}
	require.NoError(t, mem.Create(context.Background(), g))
}

func singleEntity(id, name string) rotation.Entity {
	return rotation.NewSingle(id, rotation.Member{Name: name})
}

func sharedEntity(id, a, b string) rotation.Entity {
	return rotation.NewShared(id, rotation.Member{Name: a}, rotation.Member{Name: b})
}

// =============================================================================
// GROUP LIFECYCLE TESTS
// =============================================================================

func TestCreateGroup_Defaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/groups", CreateGroupRequest{Name: "Polla Oficina"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	g := decode[GroupDTO](t, rec)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "Polla Oficina", g.Settings.GroupName)
	assert.Equal(t, int64(0), g.Settings.QuotaAmount)
	assert.Equal(t, 1, g.Settings.CurrentTurn)
	assert.Equal(t, "monthly", g.Settings.Frequency)
	assert.Equal(t, 3, g.Settings.GraceDays1)
	assert.Equal(t, 5, g.Settings.GraceDays2)
	assert.False(t, g.Settings.IsLocked)
	assert.Empty(t, g.Participants)
}

func TestCreateGroup_RequiresName(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/api/groups", CreateGroupRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListGroups_OnlyOwnGroups(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-mine", singleEntity("p-1", "Juan"))

	other := rotation.NewGroup("g-other", "owner-2", "Ajena", testClock)
	require.NoError(t, mem.Create(context.Background(), other))

	rec := srv.do(t, http.MethodGet, "/api/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode[[]GroupListItemDTO](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "g-mine", items[0].ID)
	assert.Equal(t, 1, items[0].ParticipantCount)
}

func TestGetGroup_WrongOwnerReadsAsNotFound(t *testing.T) {
	srv, mem := newTestServer(t)
	other := rotation.NewGroup("g-other", "owner-2", "Ajena", testClock)
	require.NoError(t, mem.Create(context.Background(), other))

	rec := srv.do(t, http.MethodGet, "/api/groups/g-other", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteGroup(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1")

	rec := srv.do(t, http.MethodDelete, "/api/groups/g-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/groups/g-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSettings_ValidatesTurnBound(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-1", "Juan"))

	req := UpdateSettingsRequest{
		GroupName:   "Polla Familiar",
		QuotaAmount: 20000,
		CurrentTurn: 5, // only 1 participant: beyond N+1
		Frequency:   "monthly",
		StartDate:   "2024-01-10",
		GraceDays1:  3,
		GraceDays2:  5,
	}
	rec := srv.do(t, http.MethodPut, "/api/groups/g-1/settings", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req.CurrentTurn = 2 // N+1 marks a finished rotation, still valid
	rec = srv.do(t, http.MethodPut, "/api/groups/g-1/settings", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	g := decode[GroupDTO](t, rec)
	assert.Equal(t, int64(20000), g.Settings.QuotaAmount)
	assert.Equal(t, 2, g.Settings.CurrentTurn)
}

// =============================================================================
// PARTICIPANT AND PAYMENT FLOW TESTS
// =============================================================================

func TestFullFlow_AddToggleSummary(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1")

	// Add one single and one shared participant
	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/participants", AddParticipantRequest{
		Type:    "single",
		Members: []MemberRequest{{Name: "Juan", Phone: "+56911111111"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/groups/g-1/participants", AddParticipantRequest{
		Type:    "shared",
		Members: []MemberRequest{{Name: "Ana"}, {Name: "Luis"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	g := decode[GroupDTO](t, rec)
	require.Len(t, g.Participants, 2)
	juanID := g.Participants[0].ID
	pairID := g.Participants[1].ID
	assert.Equal(t, 1, g.Participants[0].TurnNumber)
	assert.Equal(t, 2, g.Participants[1].TurnNumber)
	assert.Equal(t, "Ana / Luis", g.Participants[1].DisplayName)
	assert.Equal(t, "2024-01-31", g.Participants[0].PaymentDate)
	assert.Equal(t, "2024-02-03", g.Participants[0].Deadline)

	// Juan pays turn 1: half collected
	rec = srv.do(t, http.MethodPost, "/api/groups/g-1/participants/"+juanID+"/payments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[SummaryDTO](t, rec)
	assert.Equal(t, int64(10000), sum.Collected)
	assert.Equal(t, int64(20000), sum.Total)
	assert.InDelta(t, 50.0, sum.Progress, 0.001)
	assert.False(t, sum.FullyPaid)

	// Ana (member 0 of the pair) pays: partial crediting
	idx0 := 0
	rec = srv.do(t, http.MethodPost, "/api/groups/g-1/participants/"+pairID+"/payments/1",
		ToggleRequest{MemberIndex: &idx0})
	require.Equal(t, http.StatusOK, rec.Code)
	sum = decode[SummaryDTO](t, rec)
	assert.Equal(t, int64(15000), sum.Collected)
	assert.InDelta(t, 75.0, sum.Progress, 0.001)
	assert.False(t, sum.FullyPaid)

	// Luis completes the pair: fully paid, payout for the recipient appears
	idx1 := 1
	rec = srv.do(t, http.MethodPost, "/api/groups/g-1/participants/"+pairID+"/payments/1",
		ToggleRequest{MemberIndex: &idx1})
	require.Equal(t, http.StatusOK, rec.Code)
	sum = decode[SummaryDTO](t, rec)
	assert.Equal(t, int64(20000), sum.Collected)
	assert.True(t, sum.FullyPaid)
	assert.Equal(t, juanID, sum.RecipientID, "turn 1 recipient")
	assert.Equal(t, "Juan", sum.RecipientName)
	assert.Equal(t, int64(20000), sum.PayoutPerMember)
	assert.False(t, sum.BehindSchedule)
	assert.Equal(t, 1, sum.ComputedTurn)
}

func TestBatchToggle(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-1", "Juan"), sharedEntity("p-2", "Ana", "Luis"))

	idx0 := 0
	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/payments/1/batch", BatchToggleRequest{
		Updates: []BatchToggleUpdate{
			{ParticipantID: "p-1"},
			{ParticipantID: "p-2", MemberIndex: &idx0},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sum := decode[SummaryDTO](t, rec)
	assert.Equal(t, int64(15000), sum.Collected)
}

func TestBatchToggle_UnknownParticipant(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-1", "Juan"))

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/payments/1/batch", BatchToggleRequest{
		Updates: []BatchToggleUpdate{{ParticipantID: "ghost"}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportParticipants(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1")

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/participants/import",
		ImportRequest{Text: "Juan Pérez\nAna, Luis\nMaría y José\n"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	g := decode[GroupDTO](t, rec)
	require.Len(t, g.Participants, 3)
	assert.Equal(t, "single", g.Participants[0].Type)
	assert.Equal(t, "shared", g.Participants[1].Type)
	assert.Equal(t, "shared", g.Participants[2].Type)
	for i, p := range g.Participants {
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, i+1, p.TurnNumber)
	}
}

func TestImportParticipants_EmptyText(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1")

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/participants/import", ImportRequest{Text: "  \n "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateParticipant_MemberCountImmutable(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-1", "Juan"))

	rec := srv.do(t, http.MethodPut, "/api/groups/g-1/participants/p-1", UpdateParticipantRequest{
		Members: []MemberRequest{{Name: "Juan Carlos", Phone: "+56922222222"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[GroupDTO](t, rec)
	assert.Equal(t, "Juan Carlos", g.Participants[0].Members[0].Name)
	assert.Equal(t, "+56922222222", g.Participants[0].Members[0].Phone)

	// Turning a single into a pair is a structural change, not an edit
	rec = srv.do(t, http.MethodPut, "/api/groups/g-1/participants/p-1", UpdateParticipantRequest{
		Members: []MemberRequest{{Name: "Juan"}, {Name: "Pedro"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveParticipant_Renumbers(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1",
		singleEntity("p-1", "A"), singleEntity("p-2", "B"), singleEntity("p-3", "C"))

	rec := srv.do(t, http.MethodDelete, "/api/groups/g-1/participants/p-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	g := decode[GroupDTO](t, rec)
	require.Len(t, g.Participants, 2)
	assert.Equal(t, "p-1", g.Participants[0].ID)
	assert.Equal(t, 1, g.Participants[0].TurnNumber)
	assert.Equal(t, "p-3", g.Participants[1].ID)
	assert.Equal(t, 2, g.Participants[1].TurnNumber)
}

// =============================================================================
// TURN OPERATION TESTS
// =============================================================================

func TestShuffle_ConflictAfterStart(t *testing.T) {
	srv, mem := newTestServer(t)
	g := rotation.NewGroup("g-1", testOwner, "Polla", testClock)
	g.Settings.CurrentTurn = 2
	g.AppendEntity(singleEntity("p-1", "A"))
	g.AppendEntity(singleEntity("p-2", "B"))
	require.NoError(t, mem.Create(context.Background(), g))

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/turns/shuffle", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReorder_LockedConflict(t *testing.T) {
	srv, mem := newTestServer(t)
	g := rotation.NewGroup("g-1", testOwner, "Polla", testClock)
	g.Settings.IsLocked = true
	g.AppendEntity(singleEntity("p-1", "A"))
	g.AppendEntity(singleEntity("p-2", "B"))
	require.NoError(t, mem.Create(context.Background(), g))

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/turns/reorder",
		ReorderRequest{FromIndex: 0, ToIndex: 1})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Nothing moved
	rec = srv.do(t, http.MethodGet, "/api/groups/g-1", nil)
	got := decode[GroupDTO](t, rec)
	assert.Equal(t, "p-1", got.Participants[0].ID)
	assert.Equal(t, 1, got.Participants[0].TurnNumber)
}

func TestAssignTurn_ByTargetTurn(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1",
		singleEntity("p-A", "A"), singleEntity("p-B", "B"),
		singleEntity("p-C", "C"), singleEntity("p-D", "D"))

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/turns/assign",
		AssignRequest{ParticipantID: "p-D", TargetTurn: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	g := decode[GroupDTO](t, rec)
	order := make([]string, len(g.Participants))
	for _, p := range g.Participants {
		order[p.TurnNumber-1] = p.ID
	}
	assert.Equal(t, []string{"p-A", "p-D", "p-B", "p-C"}, order)
}

func TestAssignTurn_ByTargetDate(t *testing.T) {
	// Monthly from 2024-01-10: turn 2 pays 2024-02-29.
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1",
		singleEntity("p-A", "A"), singleEntity("p-B", "B"), singleEntity("p-C", "C"))

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/turns/assign",
		AssignRequest{ParticipantID: "p-C", TargetDate: "2024-02-29"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	g := decode[GroupDTO](t, rec)
	for _, p := range g.Participants {
		if p.ID == "p-C" {
			assert.Equal(t, 2, p.TurnNumber)
		}
	}
}

func TestAssignTurn_DateNotInSchedule(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-A", "A"), singleEntity("p-B", "B"))

	rec := srv.do(t, http.MethodPost, "/api/groups/g-1/turns/assign",
		AssignRequest{ParticipantID: "p-A", TargetDate: "2024-02-14"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTurnSchedule(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-A", "A"), singleEntity("p-B", "B"))

	rec := srv.do(t, http.MethodGet, "/api/groups/g-1/turns", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rows := decode[[]TurnScheduleDTO](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-31", rows[0].PaymentDate)
	assert.Equal(t, "2024-02-03", rows[0].Deadline)
	assert.Equal(t, "A", rows[0].RecipientName)
	assert.True(t, rows[0].IsCurrent)
	assert.Equal(t, "2024-02-29", rows[1].PaymentDate)
	assert.False(t, rows[1].IsCurrent)
}

// =============================================================================
// REPORT TESTS
// =============================================================================

func TestGetReport(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-1", "Juan"), sharedEntity("p-2", "Ana", "Luis"))

	g, err := mem.Get(context.Background(), "g-1")
	require.NoError(t, err)
	g.Entity("p-1").TogglePayment(1)
	require.NoError(t, mem.Save(context.Background(), g))

	rec := srv.do(t, http.MethodGet, "/api/groups/g-1/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	report := rec.Body.String()
	assert.Contains(t, report, "📢 *REPORTE: POLLA FAMILIAR*")
	assert.Contains(t, report, "📅 *Vence:* 3 feb 2024")
	assert.Contains(t, report, "💰 *Recaudado:* $10.000 / $20.000")
	assert.Contains(t, report, "✅ Juan")
	assert.Contains(t, report, "⏳ Ana / Luis")
	assert.Contains(t, report, "👉 *Receptor:* Juan")
}

func TestGetReport_NoPayments(t *testing.T) {
	srv, mem := newTestServer(t)
	seedGroup(t, mem, "g-1", singleEntity("p-1", "Juan"))

	rec := srv.do(t, http.MethodGet, "/api/groups/g-1/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "_Sin pagos_"))
}
