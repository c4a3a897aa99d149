// README: Ride store adapter over the kv contract; owns serialization, never mutates rides.
package ride

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"uride/internal/kv"
	"uride/internal/types"
)

// Store is the lifecycle engine's narrow view of persistence. One active
// slot per rider, an append-only most-recent-first history log, and a
// ride-id index so intents that arrive without the rider id (accept, start)
// can find the ride.
type Store interface {
	LoadActive(ctx context.Context, riderID types.ID) (*Ride, error)
	LoadByID(ctx context.Context, rideID types.ID) (*Ride, error)
	SaveActive(ctx context.Context, r *Ride) error
	ClearActive(ctx context.Context, r *Ride) error
	AppendHistory(ctx context.Context, r *Ride) error
	ListHistory(ctx context.Context, riderID types.ID) ([]*Ride, error)
}

type KVStore struct {
	kv kv.Store
}

func NewKVStore(store kv.Store) *KVStore {
	return &KVStore{kv: store}
}

func activeKey(riderID types.ID) string  { return "ride:active:" + string(riderID) }
func indexKey(rideID types.ID) string    { return "ride:index:" + string(rideID) }
func historyKey(riderID types.ID) string { return "ride:history:" + string(riderID) }

func (s *KVStore) LoadActive(ctx context.Context, riderID types.ID) (*Ride, error) {
	b, err := s.kv.Get(ctx, activeKey(riderID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNoActiveRide
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load active: %v", ErrPersistence, err)
	}
	var r Ride
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: decode active ride: %v", ErrPersistence, err)
	}
	return &r, nil
}

// LoadByID resolves a ride through the id index. Active rides come from the
// rider's active slot; terminal rides fall back to the history log so guards
// can still distinguish "completed" from "never existed".
func (s *KVStore) LoadByID(ctx context.Context, rideID types.ID) (*Ride, error) {
	b, err := s.kv.Get(ctx, indexKey(rideID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNoActiveRide
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load ride index: %v", ErrPersistence, err)
	}
	riderID := types.ID(b)

	r, err := s.LoadActive(ctx, riderID)
	if err == nil && r.ID == rideID {
		return r, nil
	}
	if err != nil && !errors.Is(err, ErrNoActiveRide) {
		return nil, err
	}

	history, err := s.ListHistory(ctx, riderID)
	if err != nil {
		return nil, err
	}
	for _, h := range history {
		if h.ID == rideID {
			return h, nil
		}
	}
	return nil, ErrNoActiveRide
}

func (s *KVStore) SaveActive(ctx context.Context, r *Ride) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: encode ride: %v", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, activeKey(r.RiderID), b); err != nil {
		return fmt.Errorf("%w: save active: %v", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, indexKey(r.ID), []byte(r.RiderID)); err != nil {
		return fmt.Errorf("%w: save ride index: %v", ErrPersistence, err)
	}
	return nil
}

// ClearActive removes the rider's active slot. The id index stays so
// terminal rides remain resolvable.
func (s *KVStore) ClearActive(ctx context.Context, r *Ride) error {
	if err := s.kv.Del(ctx, activeKey(r.RiderID)); err != nil {
		return fmt.Errorf("%w: clear active: %v", ErrPersistence, err)
	}
	return nil
}

func (s *KVStore) AppendHistory(ctx context.Context, r *Ride) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: encode ride: %v", ErrPersistence, err)
	}
	if err := s.kv.LPush(ctx, historyKey(r.RiderID), b); err != nil {
		return fmt.Errorf("%w: append history: %v", ErrPersistence, err)
	}
	return nil
}

func (s *KVStore) ListHistory(ctx context.Context, riderID types.ID) ([]*Ride, error) {
	items, err := s.kv.LRange(ctx, historyKey(riderID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %v", ErrPersistence, err)
	}
	rides := make([]*Ride, 0, len(items))
	for _, b := range items {
		var r Ride
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("%w: decode history ride: %v", ErrPersistence, err)
		}
		rides = append(rides, &r)
	}
	return rides, nil
}
