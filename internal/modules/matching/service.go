// README: Driver matching: finds the nearest available driver and accepts on their behalf.
package matching

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"uride/internal/identity"
	"uride/internal/modules/directory"
	"uride/internal/modules/geo"
	"uride/internal/modules/ride"
	"uride/internal/types"
)

var ErrNoneAvailable = errors.New("no drivers available near pickup")

// Accepter is the slice of the ride service that matching calls back into.
type Accepter interface {
	Accept(ctx context.Context, cmd ride.AcceptCommand) (*ride.Ride, error)
}

type Config struct {
	RadiusMeters float64
	ProposeDelay time.Duration
}

// Service matches requested rides to drivers asynchronously. Each proposal
// waits ProposeDelay, then picks the nearest available driver and accepts
// through the same lifecycle path a human driver would use, so all guards
// apply. Abort cancels the pending proposal for a ride.
type Service struct {
	directory directory.Directory
	accepter  Accepter
	cfg       Config
	log       *slog.Logger

	mu      sync.Mutex
	pending map[types.ID]context.CancelFunc
}

func NewService(dir directory.Directory, accepter Accepter, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = 5000
	}
	return &Service{
		directory: dir,
		accepter:  accepter,
		cfg:       cfg,
		log:       log,
		pending:   make(map[types.ID]context.CancelFunc),
	}
}

// Propose schedules a match attempt for a requested ride. A second proposal
// for the same ride is ignored while one is pending.
func (s *Service) Propose(r *ride.Ride) {
	s.mu.Lock()
	if _, ok := s.pending[r.ID]; ok {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.pending[r.ID] = cancel
	s.mu.Unlock()

	go s.run(ctx, r)
}

// Abort stops the pending proposal for rideID, if any.
func (s *Service) Abort(rideID types.ID) {
	s.mu.Lock()
	cancel, ok := s.pending[rideID]
	if ok {
		delete(s.pending, rideID)
	}
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Service) run(ctx context.Context, r *ride.Ride) {
	defer s.forget(r.ID)

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.ProposeDelay):
	}

	candidate, err := s.FindCandidate(ctx, r.Pickup)
	if err != nil {
		if errors.Is(err, ErrNoneAvailable) {
			s.log.Info("no drivers available", "ride_id", r.ID)
		} else {
			s.log.Warn("candidate search failed", "ride_id", r.ID, "error", err)
		}
		return
	}

	driverCtx := identity.WithActor(ctx, identity.Actor{ID: candidate.ID, Role: identity.RoleDriver})
	if _, err := s.accepter.Accept(driverCtx, ride.AcceptCommand{RideID: r.ID}); err != nil {
		// The ride was cancelled or another driver got there first.
		s.log.Info("proposal rejected", "ride_id", r.ID, "driver_id", candidate.ID, "error", err)
		return
	}
	s.log.Info("ride matched", "ride_id", r.ID, "driver_id", candidate.ID)
}

// FindCandidate returns the nearest available driver to pickup within the
// configured radius.
func (s *Service) FindCandidate(ctx context.Context, pickup types.Point) (directory.Driver, error) {
	drivers, err := s.directory.Nearby(ctx, pickup, s.cfg.RadiusMeters)
	if err != nil {
		return directory.Driver{}, err
	}

	available := drivers[:0:0]
	for _, d := range drivers {
		if d.Available {
			available = append(available, d)
		}
	}
	if len(available) == 0 {
		return directory.Driver{}, ErrNoneAvailable
	}

	sortByDistance(available, func(d directory.Driver) float64 {
		return geo.DistanceKm(d.Location, pickup)
	})
	return available[0], nil
}

func (s *Service) forget(rideID types.ID) {
	s.mu.Lock()
	delete(s.pending, rideID)
	s.mu.Unlock()
}
