package docstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/model"
	"github.com/manav03panchal/waterme/internal/storage"
)

// Export implements datum.GraphStore. Vessels and reminders come out in
// creation order; reminders that point at a missing vessel are skipped.
func (c *Controller) Export(ctx context.Context) (*datum.Graph, error) {
	const op = "export document store"
	graph := &datum.Graph{}

	err := c.db.View(func(t *storage.Txn) error {
		vessels, err := storage.ScanPrefix(t, model.PrefixVessel+":", func() *model.Vessel { return &model.Vessel{} })
		if err != nil {
			return err
		}
		sort.SliceStable(vessels, func(i, j int) bool {
			return vessels[i].Doc.CreatedAt.Before(vessels[j].Doc.CreatedAt)
		})

		for _, row := range vessels {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc := row.Doc
			v := &vessel{doc: doc}
			gv := datum.GraphVessel{
				ID:          v.ID(),
				Kind:        v.Kind(),
				DisplayName: v.DisplayName(),
				IconImage:   doc.IconImage,
				CreatedAt:   doc.CreatedAt,
			}
			if doc.IconEmoji != nil {
				gv.IconEmoji = *doc.IconEmoji
			}
			for _, key := range doc.ReminderKeys {
				r := &model.Reminder{}
				if err := t.Get(key, r); err != nil {
					if storage.IsErrKeyNotFound(err) {
						c.log.Warn("vessel lists missing reminder", "vessel_id", doc.UUID, "key", key)
						continue
					}
					return err
				}
				gv.Reminders = append(gv.Reminders, graphReminder(r))
			}
			graph.Vessels = append(graph.Vessels, gv)
		}
		return nil
	})
	if err != nil {
		return nil, datum.NewError(op, datum.ErrRead, err)
	}
	return graph, nil
}

func graphReminder(r *model.Reminder) datum.GraphReminder {
	w := &reminder{doc: r}
	kind := w.Kind()
	return datum.GraphReminder{
		ID:              w.ID(),
		Kind:            kind.Case,
		Detail:          kind.Detail,
		Interval:        r.Interval,
		Note:            w.Note(),
		IsEnabled:       true,
		NextPerformDate: w.NextPerformDate(),
		LastPerformDate: w.LastPerformDate(),
		CreatedAt:       r.CreatedAt,
		Performed:       w.Performed(),
	}
}

// Import implements datum.GraphStore. Identifiers that are not UUIDs are
// replaced. Disabled reminders are imported enabled.
func (c *Controller) Import(ctx context.Context, graph *datum.Graph, progress func(done, total int)) error {
	const op = "import document store"
	if graph == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(graph.Vessels)
	err := c.db.Update(func(t *storage.Txn) error {
		for i, gv := range graph.Vessels {
			if err := ctx.Err(); err != nil {
				return err
			}
			v := model.NewVessel(documentID(gv.ID), gv.CreatedAt)
			if gv.Kind != "" {
				v.KindString = string(gv.Kind)
			}
			applyVesselFields(v, datum.VesselFields{
				DisplayName: datum.NonEmpty(gv.DisplayName),
				IconEmoji:   gv.IconEmoji,
				IconImage:   gv.IconImage,
			})

			if len(gv.Reminders) == 0 {
				c.log.Warn("imported vessel has no reminders, adding a default one", logging.KeyVesselID, gv.ID.String())
				gv.Reminders = []datum.GraphReminder{datum.DefaultGraphReminder(gv.CreatedAt)}
			}
			for _, gr := range gv.Reminders {
				if !gr.IsEnabled {
					c.log.Warn("importing disabled reminder as enabled", "reminder_id", gr.ID)
				}
				r := model.NewReminder(documentID(gr.ID), v.Key, gr.CreatedAt)
				for _, d := range gr.Performed {
					r.Performed = append(r.Performed, model.Perform{Date: d})
				}
				applyReminderFields(r, datum.ReminderFields{
					Kind:            gr.ReminderKind().Normalized(),
					Interval:        gr.Interval,
					Note:            datum.NonEmpty(gr.Note),
					NextPerformDate: gr.NextPerformDate,
				})
				if err := t.Set(r); err != nil {
					return err
				}
				v.ReminderKeys = append(v.ReminderKeys, r.Key)
			}
			if err := t.Set(v); err != nil {
				return err
			}
			if progress != nil {
				progress(i+1, total)
			}
		}
		return nil
	})
	return datum.Wrap(op, datum.ErrWrite, err)
}

// Counts implements datum.GraphStore.
func (c *Controller) Counts(ctx context.Context) (datum.Counts, error) {
	var counts datum.Counts
	err := c.db.View(func(t *storage.Txn) error {
		n, err := storage.CountPrefix(t, model.PrefixVessel+":")
		if err != nil {
			return err
		}
		counts.Vessels = n
		rows, err := storage.ScanPrefix(t, model.PrefixReminder+":", func() *model.Reminder { return &model.Reminder{} })
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			counts.Reminders++
			counts.Performs += len(row.Doc.Performed)
		}
		return nil
	})
	if err != nil {
		return datum.Counts{}, datum.NewError("count documents", datum.ErrRead, err)
	}
	return counts, nil
}

func documentID(id datum.Identifier) string {
	if _, err := uuid.Parse(id.String()); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
