package container

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/manav03panchal/waterme/internal/datum"
)

//go:embed starter.json
var starterJSON []byte

// StarterGraph returns the dataset written on first launch. Records without
// a creation time are stamped with now, one second apart in file order.
func StarterGraph(now time.Time) (*datum.Graph, error) {
	var g datum.Graph
	if err := json.Unmarshal(starterJSON, &g); err != nil {
		return nil, fmt.Errorf("decode starter dataset: %w", err)
	}
	step := 0
	stamp := func(t *time.Time) {
		if t.IsZero() {
			*t = now.Add(time.Duration(step) * time.Second)
		}
		step++
	}
	for i := range g.Vessels {
		v := &g.Vessels[i]
		stamp(&v.CreatedAt)
		for j := range v.Reminders {
			stamp(&v.Reminders[j].CreatedAt)
		}
	}
	return &g, nil
}
