// README: Ride lifecycle engine: intent guards, transitions, side effects.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"uride/internal/identity"
	"uride/internal/modules/geo"
	"uride/internal/types"
)

var (
	ErrUnauthorized      = errors.New("actor role not permitted for this intent")
	ErrInvalidTransition = errors.New("ride status does not permit this transition")
	ErrNoActiveRide      = errors.New("no such ride")
	ErrRideExists        = errors.New("rider already has an active ride")
	ErrPersistence       = errors.New("ride store unavailable")
)

// Matcher receives newly requested rides and may later call back into the
// service to accept on behalf of a driver. Abort stops a pending proposal.
type Matcher interface {
	Propose(r *Ride)
	Abort(rideID types.ID)
}

// Notifier is invoked after each persisted transition. Implementations must
// not fail the transition; errors are theirs to absorb.
type Notifier interface {
	RideEvent(ctx context.Context, from, to Status, r *Ride, actor identity.Actor)
}

// Archive records applied transitions for audit. Failures are logged and do
// not affect the caller.
type Archive interface {
	AppendEvent(ctx context.Context, ev Event) error
}

// Geocoder fills in human-readable addresses. Best effort only.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

type Deps struct {
	Store    Store
	Calc     *geo.Calculator
	Matcher  Matcher
	Notifier Notifier
	Archive  Archive
	Geocoder Geocoder
	Log      *slog.Logger
}

// Service serializes intents per ride. Each guard runs under the lock that
// covers the ride it touches, so two drivers racing to accept observe each
// other's write: exactly one wins, the other fails the status guard.
type Service struct {
	store    Store
	calc     *geo.Calculator
	matcher  Matcher
	notifier Notifier
	archive  Archive
	geocoder Geocoder
	log      *slog.Logger

	locks sync.Map // lock key -> *sync.Mutex
}

func NewService(deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	calc := deps.Calc
	if calc == nil {
		calc = geo.NewCalculator(geo.DefaultRates)
	}
	return &Service{
		store:    deps.Store,
		calc:     calc,
		matcher:  deps.Matcher,
		notifier: deps.Notifier,
		archive:  deps.Archive,
		geocoder: deps.Geocoder,
		log:      log,
	}
}

// SetMatcher late-binds the matcher. Matching calls back into this service
// to accept, so the two are constructed in sequence and joined here during
// wiring, before any request is served.
func (s *Service) SetMatcher(m Matcher) {
	s.matcher = m
}

type RequestCommand struct {
	Pickup  types.Point
	Dropoff types.Point
}

type AcceptCommand struct {
	RideID types.ID
}

type ArriveCommand struct {
	RideID types.ID
}

type StartCommand struct {
	RideID types.ID
}

type CompleteCommand struct {
	RideID types.ID
}

type CancelCommand struct {
	RideID types.ID
	Reason string
}

func (s *Service) lock(key string) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Request creates a ride in the requested state and hands it to the matcher.
// A rider holds at most one active ride at a time.
func (s *Service) Request(ctx context.Context, cmd RequestCommand) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleRider {
		return nil, fmt.Errorf("%w: only riders may request rides", ErrUnauthorized)
	}

	unlock := s.lock("rider:" + string(actor.ID))
	defer unlock()

	if _, err := s.store.LoadActive(ctx, actor.ID); err == nil {
		return nil, ErrRideExists
	} else if !errors.Is(err, ErrNoActiveRide) {
		return nil, err
	}

	pickup := s.resolveAddress(ctx, cmd.Pickup)
	dropoff := s.resolveAddress(ctx, cmd.Dropoff)

	km := s.calc.DistanceKm(pickup, dropoff)
	r := &Ride{
		ID:          types.ID(uuid.NewString()),
		RiderID:     actor.ID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		Status:      StatusRequested,
		DistanceKm:  km,
		Fare:        s.calc.Fare(km),
		DurationMin: s.calc.DurationMin(km),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.store.SaveActive(ctx, r); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, "", StatusRequested, r, actor)
	if s.matcher != nil {
		s.matcher.Propose(r)
	}
	return r, nil
}

// Accept assigns the calling driver to a requested ride. Only the first
// accept succeeds; the guard sees the winner's committed write.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleDriver {
		return nil, fmt.Errorf("%w: only drivers may accept rides", ErrUnauthorized)
	}

	unlock := s.lock("ride:" + string(cmd.RideID))
	defer unlock()

	r, err := s.store.LoadByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusAccepted) || r.DriverID != nil {
		return nil, fmt.Errorf("%w: cannot accept ride in status %q", ErrInvalidTransition, r.Status)
	}

	now := time.Now().UTC()
	driverID := actor.ID
	r.DriverID = &driverID
	r.Status = StatusAccepted
	r.AcceptedAt = &now
	if err := s.store.SaveActive(ctx, r); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, StatusRequested, StatusAccepted, r, actor)
	return r, nil
}

// Arrive signals the driver reached the pickup point. The transition is
// notification-only: no timestamp is recorded for it.
func (s *Service) Arrive(ctx context.Context, cmd ArriveCommand) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lock("ride:" + string(cmd.RideID))
	defer unlock()

	r, err := s.store.LoadByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusDriverArrived) {
		return nil, fmt.Errorf("%w: cannot mark arrival in status %q", ErrInvalidTransition, r.Status)
	}

	r.Status = StatusDriverArrived
	if err := s.store.SaveActive(ctx, r); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, StatusAccepted, StatusDriverArrived, r, actor)
	return r, nil
}

// Start begins the trip. Arrival is optional: a ride may start straight from
// accepted.
func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lock("ride:" + string(cmd.RideID))
	defer unlock()

	r, err := s.store.LoadByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusInProgress) {
		return nil, fmt.Errorf("%w: cannot start ride in status %q", ErrInvalidTransition, r.Status)
	}

	from := r.Status
	now := time.Now().UTC()
	r.Status = StatusInProgress
	r.StartedAt = &now
	if err := s.store.SaveActive(ctx, r); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, from, StatusInProgress, r, actor)
	return r, nil
}

// Complete finishes the trip, moves the ride to history, and frees the
// rider's active slot.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lock("ride:" + string(cmd.RideID))
	defer unlock()

	r, err := s.store.LoadByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusCompleted) {
		return nil, fmt.Errorf("%w: cannot complete ride in status %q", ErrInvalidTransition, r.Status)
	}

	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	if err := s.store.AppendHistory(ctx, r); err != nil {
		return nil, err
	}
	if err := s.store.ClearActive(ctx, r); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, StatusInProgress, StatusCompleted, r, actor)
	return r, nil
}

// Cancel ends a ride from any non-terminal state. A pending match proposal
// is aborted so no driver is assigned to a dead ride.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lock("ride:" + string(cmd.RideID))
	defer unlock()

	r, err := s.store.LoadByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel ride in status %q", ErrInvalidTransition, r.Status)
	}

	from := r.Status
	now := time.Now().UTC()
	r.Status = StatusCancelled
	r.CancelledAt = &now
	if err := s.store.AppendHistory(ctx, r); err != nil {
		return nil, err
	}
	if err := s.store.ClearActive(ctx, r); err != nil {
		return nil, err
	}

	if s.matcher != nil {
		s.matcher.Abort(r.ID)
	}
	s.afterTransition(ctx, from, StatusCancelled, r, actor)
	return r, nil
}

// CurrentRide returns the caller's active ride, if any.
func (s *Service) CurrentRide(ctx context.Context) (*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.LoadActive(ctx, actor.ID)
}

// History returns the caller's terminal rides, most recent first.
func (s *Service) History(ctx context.Context) ([]*Ride, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, actor.ID)
}

// Get resolves a ride by id regardless of caller role.
func (s *Service) Get(ctx context.Context, rideID types.ID) (*Ride, error) {
	if _, err := identity.FromContext(ctx); err != nil {
		return nil, err
	}
	return s.store.LoadByID(ctx, rideID)
}

func (s *Service) resolveAddress(ctx context.Context, p types.Point) types.Point {
	if s.geocoder == nil || p.Address != "" {
		return p
	}
	addr, err := s.geocoder.ReverseGeocode(ctx, p)
	if err != nil {
		s.log.Warn("reverse geocode failed", "lat", p.Lat, "lng", p.Lng, "error", err)
		return p
	}
	p.Address = addr
	return p
}

// afterTransition runs side effects once the transition is committed.
// Archive and notification failures never surface to the caller.
func (s *Service) afterTransition(ctx context.Context, from, to Status, r *Ride, actor identity.Actor) {
	transitionsTotal.WithLabelValues(string(to)).Inc()

	if s.archive != nil {
		ev := Event{
			RideID:     r.ID,
			FromStatus: from,
			ToStatus:   to,
			ActorRole:  string(actor.Role),
			ActorID:    actor.ID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.archive.AppendEvent(ctx, ev); err != nil {
			s.log.Warn("archive append failed", "ride_id", r.ID, "to", to, "error", err)
		}
	}

	if s.notifier != nil {
		s.notifier.RideEvent(ctx, from, to, r, actor)
	}

	s.log.Info("ride transition",
		"ride_id", r.ID,
		"rider_id", r.RiderID,
		"from", string(from),
		"to", string(to),
		"actor_role", string(actor.Role),
	)
}
