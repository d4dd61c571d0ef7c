package docstore

import (
	"time"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/model"
	"github.com/manav03panchal/waterme/internal/storage"
)

// schemaSteps upgrade documents written by older releases. Version 13
// documents may lack a kind or carry an out-of-range interval, and version 12
// vessels may lack a creation date.
func schemaSteps(now func() time.Time) []storage.SchemaStep {
	return []storage.SchemaStep{
		{To: 13, Apply: func(t *storage.Txn) error {
			rows, err := storage.ScanPrefix(t, model.PrefixVessel+":", func() *model.Vessel { return &model.Vessel{} })
			if err != nil {
				return err
			}
			for _, row := range rows {
				if !row.Doc.CreatedAt.IsZero() {
					continue
				}
				row.Doc.CreatedAt = now()
				if err := t.Set(row.Doc); err != nil {
					return err
				}
			}
			return nil
		}},
		{To: 14, Apply: func(t *storage.Txn) error {
			rows, err := storage.ScanPrefix(t, model.PrefixReminder+":", func() *model.Reminder { return &model.Reminder{} })
			if err != nil {
				return err
			}
			for _, row := range rows {
				r := row.Doc
				dirty := false
				if _, err := datum.ParseKindCase(r.KindString); err != nil {
					r.KindString = string(datum.KindWater)
					r.DescriptionString = nil
					dirty = true
				}
				if r.Interval < datum.MinimumInterval || r.Interval > datum.MaximumInterval {
					r.Interval = datum.DefaultInterval
					r.NextPerformDate = datum.NextPerformDate(r.LastPerformDate(), r.Interval)
					dirty = true
				}
				if !dirty {
					continue
				}
				if err := t.Set(r); err != nil {
					return err
				}
			}
			return nil
		}},
	}
}
