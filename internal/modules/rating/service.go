// README: Post-ride ratings: validation, storage, and per-user listing.
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"uride/internal/identity"
	"uride/internal/kv"
	"uride/internal/modules/ride"
	"uride/internal/types"
)

var (
	ErrInvalidStars = errors.New("rating must be between 1 and 5")
	ErrNotCompleted = errors.New("only completed rides can be rated")
	ErrNotYourRide  = errors.New("actor was not part of this ride")
)

// Rating is one review of the other party on a completed ride. Ratings are
// append-only; the ride record itself is never rewritten once terminal.
type Rating struct {
	ID         types.ID  `json:"id"`
	RideID     types.ID  `json:"ride_id"`
	FromUserID types.ID  `json:"from_user_id"`
	ToUserID   types.ID  `json:"to_user_id"`
	Stars      int       `json:"stars"`
	Review     string    `json:"review,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RideLookup is the slice of the ride store ratings need.
type RideLookup interface {
	LoadByID(ctx context.Context, rideID types.ID) (*ride.Ride, error)
}

type Service struct {
	rides RideLookup
	kv    kv.Store
	log   *slog.Logger
}

func NewService(rides RideLookup, store kv.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{rides: rides, kv: store, log: log}
}

type SubmitCommand struct {
	RideID types.ID
	Stars  int
	Review string
}

func ratingsKey(userID types.ID) string { return "rating:user:" + string(userID) }

// Submit records the caller's rating of the other ride party.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*Rating, error) {
	actor, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if cmd.Stars < 1 || cmd.Stars > 5 {
		return nil, ErrInvalidStars
	}

	r, err := s.rides.LoadByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if r.Status != ride.StatusCompleted {
		return nil, fmt.Errorf("%w: ride is %q", ErrNotCompleted, r.Status)
	}

	var target types.ID
	switch actor.ID {
	case r.RiderID:
		if r.DriverID == nil {
			return nil, ErrNotYourRide
		}
		target = *r.DriverID
	default:
		if r.DriverID == nil || *r.DriverID != actor.ID {
			return nil, ErrNotYourRide
		}
		target = r.RiderID
	}

	rating := &Rating{
		ID:         types.ID("rating_" + uuid.NewString()),
		RideID:     r.ID,
		FromUserID: actor.ID,
		ToUserID:   target,
		Stars:      cmd.Stars,
		Review:     cmd.Review,
		CreatedAt:  time.Now().UTC(),
	}
	b, err := json.Marshal(rating)
	if err != nil {
		return nil, fmt.Errorf("encode rating: %w", err)
	}
	if err := s.kv.LPush(ctx, ratingsKey(target), b); err != nil {
		return nil, fmt.Errorf("store rating: %w", err)
	}

	s.log.Info("rating submitted", "ride_id", r.ID, "from", actor.ID, "to", target, "stars", cmd.Stars)
	return rating, nil
}

// ListForUser returns ratings received by userID, most recent first.
func (s *Service) ListForUser(ctx context.Context, userID types.ID) ([]*Rating, error) {
	items, err := s.kv.LRange(ctx, ratingsKey(userID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	ratings := make([]*Rating, 0, len(items))
	for _, b := range items {
		var r Rating
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("decode rating: %w", err)
		}
		ratings = append(ratings, &r)
	}
	return ratings, nil
}

// Average returns the mean stars received by userID, or 5.0 with no ratings.
func (s *Service) Average(ctx context.Context, userID types.ID) (float64, error) {
	ratings, err := s.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ratings) == 0 {
		return 5.0, nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Stars
	}
	return float64(sum) / float64(len(ratings)), nil
}
