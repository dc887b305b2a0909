package catalog

import (
	"context"
	"time"

	"github.com/juju/errors"
)

// SeedSource stands in for the remote that populates an empty
// machine. Delay simulates fetch latency; tests set it to zero.
type SeedSource struct {
	Delay  time.Duration
	Drafts []Draft
}

func (self SeedSource) Fetch(ctx context.Context) ([]Draft, error) {
	if self.Delay > 0 {
		t := time.NewTimer(self.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, errors.Annotate(ctx.Err(), "seed fetch")
		}
	}
	ds := self.Drafts
	if len(ds) == 0 {
		ds = DefaultSeed()
	}
	return ds, nil
}

// DefaultSeed is the built-in product set, prices in minor units.
func DefaultSeed() []Draft {
	return []Draft{
		{Name: "Cola", Icon: "🥤", Price: 150, Stock: 12, MaxStock: 15},
		{Name: "Chips", Icon: "🍿", Price: 125, Stock: 10, MaxStock: 15},
		{Name: "Candy Bar", Icon: "🍫", Price: 100, Stock: 15, MaxStock: 15},
		{Name: "Water", Icon: "💧", Price: 100, Stock: 8, MaxStock: 15},
		{Name: "Energy Drink", Icon: "⚡", Price: 250, Stock: 7, MaxStock: 15},
		{Name: "Crackers", Icon: "🧈", Price: 175, Stock: 9, MaxStock: 15},
		{Name: "Cookies", Icon: "🍪", Price: 150, Stock: 11, MaxStock: 15},
		{Name: "Juice", Icon: "🧃", Price: 200, Stock: 6, MaxStock: 15},
		{Name: "Nuts", Icon: "🥜", Price: 225, Stock: 5, MaxStock: 15},
	}
}
