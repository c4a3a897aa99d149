// README: In-memory directory for tests and the simulator.
package directory

import (
	"context"
	"sort"
	"sync"

	"uride/internal/modules/geo"
	"uride/internal/types"
)

type MemoryDirectory struct {
	mu      sync.RWMutex
	drivers map[types.ID]Driver
}

func NewMemoryDirectory(seed ...Driver) *MemoryDirectory {
	d := &MemoryDirectory{drivers: make(map[types.ID]Driver)}
	for _, drv := range seed {
		d.drivers[drv.ID] = drv
	}
	return d
}

func (d *MemoryDirectory) SetAvailability(_ context.Context, id types.ID, pos types.Point, available bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	drv, ok := d.drivers[id]
	if !ok {
		drv = Driver{ID: id, Rating: 5.0}
	}
	drv.Location = pos
	drv.Available = available
	d.drivers[id] = drv
	return nil
}

func (d *MemoryDirectory) Nearby(_ context.Context, p types.Point, radiusMeters float64) ([]Driver, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	radiusKm := radiusMeters / 1000.0
	out := make([]Driver, 0, len(d.drivers))
	for _, drv := range d.drivers {
		if geo.DistanceKm(drv.Location, p) <= radiusKm {
			out = append(out, drv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return geo.DistanceKm(out[i].Location, p) < geo.DistanceKm(out[j].Location, p)
	})
	return out, nil
}
