package storage

import (
	"fmt"
	"sort"

	"github.com/manav03panchal/waterme/internal/model"
)

// SchemaStep upgrades the documents from version To-1 to To.
type SchemaStep struct {
	To    int
	Apply func(t *Txn) error
}

// SchemaVersion returns the stored schema version, or 0 when none is stored.
func (d *DB) SchemaVersion() (int, error) {
	var version int
	err := d.View(func(t *Txn) error {
		s := &model.Schema{}
		if err := t.Get(model.KeySchema, s); err != nil {
			if IsErrKeyNotFound(err) {
				return nil
			}
			return err
		}
		version = s.Version
		return nil
	})
	return version, err
}

// EnsureSchema brings the database to version current. A database without a
// stored version that holds no documents is stamped directly; otherwise every
// step above the stored version runs, in order, inside one transaction.
// Databases newer than current are refused.
func (d *DB) EnsureSchema(current int, steps []SchemaStep, docPrefixes ...string) error {
	sort.Slice(steps, func(i, j int) bool { return steps[i].To < steps[j].To })

	return d.Update(func(t *Txn) error {
		s := &model.Schema{}
		err := t.Get(model.KeySchema, s)
		switch {
		case IsErrKeyNotFound(err):
			empty := true
			for _, p := range docPrefixes {
				n, err := CountPrefix(t, p)
				if err != nil {
					return err
				}
				if n > 0 {
					empty = false
					break
				}
			}
			if empty {
				s.Version = current
			}
		case err != nil:
			return err
		}

		if s.Version > current {
			return fmt.Errorf("schema version %d is newer than supported version %d", s.Version, current)
		}

		from := s.Version
		for _, step := range steps {
			if step.To <= from || step.To > current {
				continue
			}
			if err := step.Apply(t); err != nil {
				return fmt.Errorf("schema upgrade to %d: %w", step.To, err)
			}
			d.logger.Info("schema upgraded", "from", from, "to", step.To)
			from = step.To
		}

		s.Key = model.KeySchema
		s.Version = current
		return t.Set(s)
	})
}
