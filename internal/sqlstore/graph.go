package sqlstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/logging"
)

// Export implements datum.GraphStore.
func (c *Controller) Export(ctx context.Context) (*datum.Graph, error) {
	var rows []Vessel
	err := c.db.WithContext(ctx).
		Preload("Reminders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Reminders.Performs", func(db *gorm.DB) *gorm.DB { return db.Order("date, id") }).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, datum.NewError("export relational store", datum.ErrRead, err)
	}

	graph := &datum.Graph{Vessels: make([]datum.GraphVessel, len(rows))}
	for i := range rows {
		v := &vessel{row: &rows[i]}
		gv := datum.GraphVessel{
			ID:          v.ID(),
			Kind:        v.Kind(),
			DisplayName: v.DisplayName(),
			IconEmoji:   deref(rows[i].IconEmoji),
			IconImage:   rows[i].IconImage,
			CreatedAt:   rows[i].CreatedAt,
		}
		for j := range rows[i].Reminders {
			r := &reminder{row: &rows[i].Reminders[j]}
			kind := r.Kind()
			gv.Reminders = append(gv.Reminders, datum.GraphReminder{
				ID:              r.ID(),
				Kind:            kind.Case,
				Detail:          kind.Detail,
				Interval:        r.Interval(),
				Note:            r.Note(),
				IsEnabled:       r.IsEnabled(),
				NextPerformDate: r.NextPerformDate(),
				LastPerformDate: r.LastPerformDate(),
				CreatedAt:       r.CreatedAt(),
				Performed:       r.Performed(),
			})
		}
		graph.Vessels[i] = gv
	}
	return graph, nil
}

// Import implements datum.GraphStore. Every record gets a fresh native key;
// the graph's identifiers are recorded as legacy identifiers so they keep
// resolving. Nothing is visible to observers until the whole graph has been
// staged and committed.
func (c *Controller) Import(ctx context.Context, graph *datum.Graph, progress func(done, total int)) error {
	if graph == nil {
		return nil
	}
	total := len(graph.Vessels)
	return c.write("import relational store", func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		for i, gv := range graph.Vessels {
			if err := c.importVessel(tx, gv); err != nil {
				return err
			}
			if progress != nil {
				progress(i+1, total)
			}
		}
		return nil
	})
}

func (c *Controller) importVessel(tx *gorm.DB, gv datum.GraphVessel) error {
	v := &Vessel{ID: uuid.NewString(), Kind: string(gv.Kind), CreatedAt: gv.CreatedAt}
	if v.Kind == "" {
		v.Kind = string(datum.VesselKindPlant)
	}
	applyVesselFields(v, datum.VesselFields{
		DisplayName: datum.NonEmpty(gv.DisplayName),
		IconEmoji:   datum.NonEmpty(gv.IconEmoji),
		IconImage:   c.fitIcon(gv),
	})
	if len(gv.Reminders) == 0 {
		c.log.Warn("imported vessel has no reminders, adding a default one", logging.KeyVesselID, gv.ID.String())
		gv.Reminders = []datum.GraphReminder{datum.DefaultGraphReminder(gv.CreatedAt)}
	}
	if err := createRow(tx, v); err != nil {
		return err
	}
	if err := recordLegacy(tx, EntityVessel, gv.ID, v.ID); err != nil {
		return err
	}

	for _, gr := range gv.Reminders {
		r := &Reminder{ID: uuid.NewString(), VesselID: v.ID, CreatedAt: gr.CreatedAt}
		last := gr.LastPerformDate
		if last == nil && len(gr.Performed) > 0 {
			last = &gr.Performed[len(gr.Performed)-1]
		}
		applyReminderFields(r, datum.ReminderFields{
			Kind:            gr.ReminderKind().Normalized(),
			Interval:        gr.Interval,
			IsEnabled:       gr.IsEnabled,
			Note:            datum.NonEmpty(gr.Note),
			LastPerformDate: last,
			NextPerformDate: gr.NextPerformDate,
		})
		if err := createRow(tx, r); err != nil {
			return err
		}
		if err := recordLegacy(tx, EntityReminder, gr.ID, r.ID); err != nil {
			return err
		}
		if len(gr.Performed) == 0 {
			continue
		}
		performs := make([]Perform, len(gr.Performed))
		for i, d := range gr.Performed {
			performs[i] = Perform{ReminderID: r.ID, Date: d}
		}
		if err := tx.CreateInBatches(performs, 100).Error; err != nil {
			return err
		}
	}
	return nil
}

// fitIcon returns the vessel's image bytes, recompressed when they exceed
// the icon ceiling. Images that cannot be fitted are dropped.
func (c *Controller) fitIcon(gv datum.GraphVessel) []byte {
	if len(gv.IconImage) <= c.opts.MaxIconBytes {
		return gv.IconImage
	}
	_, data, err := datum.ImageIcon(gv.IconImage).Encode(c.opts.MaxIconBytes)
	if err != nil {
		c.log.Warn("dropping icon image that does not fit", logging.KeyVesselID, gv.ID.String(),
			"bytes", len(gv.IconImage), logging.KeyError, err)
		return nil
	}
	return data
}

func recordLegacy(tx *gorm.DB, entity string, legacy datum.Identifier, native string) error {
	if legacy.IsZero() {
		return nil
	}
	return tx.Create(&MigratedRecord{Entity: entity, LegacyIdentifier: legacy.String(), NativeID: native}).Error
}

// Counts implements datum.GraphStore.
func (c *Controller) Counts(ctx context.Context) (datum.Counts, error) {
	var vessels, reminders, performs int64
	db := c.db.WithContext(ctx)
	for _, q := range []struct {
		model any
		n     *int64
	}{{&Vessel{}, &vessels}, {&Reminder{}, &reminders}, {&Perform{}, &performs}} {
		if err := db.Model(q.model).Count(q.n).Error; err != nil {
			return datum.Counts{}, datum.NewError("count rows", datum.ErrRead, err)
		}
	}
	return datum.Counts{Vessels: int(vessels), Reminders: int(reminders), Performs: int(performs)}, nil
}

// LegacyRecords returns how many migrated identifiers are recorded.
func (c *Controller) LegacyRecords(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&MigratedRecord{}).Count(&n).Error
	return n, err
}
