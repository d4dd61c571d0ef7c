package migrate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/waterme/internal/datum"
)

// FakeGraph builds a deterministic graph of vessels, each with reminders
// reminders of performs performs, for exercising migrations.
func FakeGraph(vessels, reminders, performs int, now time.Time) *datum.Graph {
	g := &datum.Graph{Vessels: make([]datum.GraphVessel, 0, vessels)}
	for v := 0; v < vessels; v++ {
		created := now.Add(-time.Duration(vessels-v) * time.Hour)
		gv := datum.GraphVessel{
			ID:          datum.Identifier(uuid.NewString()),
			Kind:        datum.VesselKindPlant,
			DisplayName: fmt.Sprintf("Plant %d", v+1),
			IconEmoji:   "🌱",
			CreatedAt:   created,
		}
		for r := 0; r < reminders; r++ {
			kind := datum.KindCases[(v*reminders+r)%len(datum.KindCases)]
			gr := datum.GraphReminder{
				ID:        datum.Identifier(uuid.NewString()),
				Kind:      kind,
				Interval:  datum.DefaultInterval + r,
				Note:      fmt.Sprintf("note %d.%d", v+1, r+1),
				IsEnabled: true,
				CreatedAt: created.Add(time.Duration(r) * time.Minute),
			}
			switch kind {
			case datum.KindMove:
				gr.Detail = "window"
			case datum.KindOther:
				gr.Detail = "repot"
			}
			for p := 0; p < performs; p++ {
				gr.Performed = append(gr.Performed, created.Add(time.Duration(p+1)*24*time.Hour))
			}
			if n := len(gr.Performed); n > 0 {
				last := gr.Performed[n-1]
				gr.LastPerformDate = &last
				gr.NextPerformDate = datum.NextPerformDate(&last, gr.Interval)
			}
			gv.Reminders = append(gv.Reminders, gr)
		}
		g.Vessels = append(g.Vessels, gv)
	}
	return g
}
