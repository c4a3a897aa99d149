// README: Ride aggregate, status set, and the transition table.
package ride

import (
	"time"

	"uride/internal/types"
)

type Status string

const (
	StatusRequested     Status = "requested"
	StatusAccepted      Status = "accepted"
	StatusDriverArrived Status = "driver_arrived"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Ride is the central aggregate. Fare, DistanceKm and DurationMin are
// computed once at request time and never recomputed; each timestamp is
// stamped exactly once, the instant its transition applies. DriverID is nil
// iff the ride is still requested, and is never cleared once set (it stays
// on cancelled rides for audit history).
type Ride struct {
	ID          types.ID    `json:"id"`
	RiderID     types.ID    `json:"rider_id"`
	DriverID    *types.ID   `json:"driver_id,omitempty"`
	Pickup      types.Point `json:"pickup"`
	Dropoff     types.Point `json:"dropoff"`
	Status      Status      `json:"status"`
	Fare        float64     `json:"fare"`
	DistanceKm  float64     `json:"distance_km"`
	DurationMin int         `json:"duration_min"`
	RequestedAt time.Time   `json:"requested_at"`
	AcceptedAt  *time.Time  `json:"accepted_at,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
	Rating      int         `json:"rating,omitempty"`
	Review      string      `json:"review,omitempty"`
}

// Event is one applied transition, kept for the audit archive.
type Event struct {
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorRole  string
	ActorID    types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow as code. Cancelled is
// reachable from every non-terminal state; completed and cancelled have no
// outgoing edges.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:     {StatusAccepted, StatusCancelled},
	StatusAccepted:      {StatusDriverArrived, StatusInProgress, StatusCancelled},
	StatusDriverArrived: {StatusInProgress, StatusCancelled},
	StatusInProgress:    {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
