/*
report.go - Shareable plain-text status report

Renders the WhatsApp-style report admins paste into the group chat:
collected vs goal, the deadline, who has paid, who is pending, and the
recipient of the current turn. Formatting only; no state is touched.
*/
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/warp/rotation-engine/rotation"
)

// GetReport returns the text report for the current turn.
// GET /api/groups/{id}/report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGroup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(buildReport(g)))
}

func buildReport(g *rotation.Group) string {
	s := g.Settings
	summary := rotation.Summarize(g.Participants, s.CurrentTurn, s.QuotaAmount)
	deadline := rotation.TurnDeadline(s, s.CurrentTurn)

	var paid, pending []string
	for i := range g.Participants {
		e := &g.Participants[i]
		name := rotation.DisplayName(e)
		if e.Paid(s.CurrentTurn) {
			paid = append(paid, "✅ "+name)
		} else {
			pending = append(pending, "⏳ "+name)
		}
	}

	paidList := strings.Join(paid, "\n")
	if paidList == "" {
		paidList = "_Sin pagos_"
	}
	pendingList := strings.Join(pending, "\n")
	if pendingList == "" {
		pendingList = "_Todo al día!_"
	}

	recipientName := "N/A"
	if recipient := g.Recipient(); recipient != nil {
		recipientName = rotation.DisplayName(recipient)
	}

	return fmt.Sprintf(
		"📢 *REPORTE: %s*\n📅 *Vence:* %s\n💰 *Recaudado:* %s / %s\n\n*PAGOS:*\n%s\n\n*PENDIENTES:*\n%s\n\n👉 *Receptor:* %s",
		strings.ToUpper(s.GroupName),
		rotation.FormatDateFull(deadline),
		rotation.FormatAmount(summary.Collected),
		rotation.FormatAmount(summary.Total),
		paidList,
		pendingList,
		recipientName,
	)
}
