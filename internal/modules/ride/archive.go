// README: Postgres audit archive of applied ride transitions.
package ride

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGArchive struct {
	db *pgxpool.Pool
}

func NewPGArchive(db *pgxpool.Pool) *PGArchive {
	return &PGArchive{db: db}
}

func (a *PGArchive) AppendEvent(ctx context.Context, ev Event) error {
	_, err := a.db.Exec(ctx, `
		INSERT INTO ride_events (ride_id, from_status, to_status, actor_role, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ev.RideID), string(ev.FromStatus), string(ev.ToStatus),
		ev.ActorRole, string(ev.ActorID), ev.CreatedAt,
	)
	return err
}
