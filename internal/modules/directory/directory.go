// README: Driver directory: candidate drivers near a pickup point.
package directory

import (
	"context"

	"uride/internal/types"
)

type Driver struct {
	ID        types.ID    `json:"id"`
	Location  types.Point `json:"location"`
	Available bool        `json:"available"`
	Rating    float64     `json:"rating"`
}

// Directory tracks driver positions and availability. Nearby returns drivers
// within radiusMeters of p, nearest first; callers filter on Available.
type Directory interface {
	Nearby(ctx context.Context, p types.Point, radiusMeters float64) ([]Driver, error)
	SetAvailability(ctx context.Context, id types.ID, pos types.Point, available bool) error
}
