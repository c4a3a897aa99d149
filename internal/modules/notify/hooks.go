// README: Maps ride transitions to notification messages and recipients.
package notify

import (
	"fmt"

	"uride/internal/identity"
	"uride/internal/modules/ride"
)

// HookFor builds the notification for a committed ride transition. The
// second return is false when the transition notifies nobody, such as a
// rider cancelling a ride no driver had accepted yet.
func HookFor(_, to ride.Status, r *ride.Ride, actor identity.Actor, driverName string) (Message, bool) {
	switch to {
	case ride.StatusRequested:
		return Message{
			Recipient: identity.RoleDriver,
			Title:     "New Ride Request",
			Body:      "A passenger is looking for a ride nearby",
			Type:      TypeRideRequest,
			Payload:   map[string]any{"ride_id": string(r.ID)},
		}, true

	case ride.StatusAccepted:
		return Message{
			Recipient:   identity.RoleRider,
			RecipientID: r.RiderID,
			Title:       "Ride Accepted",
			Body:        fmt.Sprintf("%s is on the way to pick you up", driverName),
			Type:        TypeRideAccepted,
			Payload:     map[string]any{"ride_id": string(r.ID)},
		}, true

	case ride.StatusDriverArrived:
		return Message{
			Recipient:   identity.RoleRider,
			RecipientID: r.RiderID,
			Title:       "Driver Arrived",
			Body:        fmt.Sprintf("%s has arrived at your location", driverName),
			Type:        TypeRideStarted,
			Payload:     map[string]any{"ride_id": string(r.ID)},
		}, true

	case ride.StatusInProgress:
		return Message{
			Recipient:   identity.RoleRider,
			RecipientID: r.RiderID,
			Title:       "Ride Started",
			Body:        "Your ride has started. Enjoy your trip!",
			Type:        TypeRideStarted,
			Payload:     map[string]any{"ride_id": string(r.ID)},
		}, true

	case ride.StatusCompleted:
		return Message{
			Recipient:   identity.RoleRider,
			RecipientID: r.RiderID,
			Title:       "Ride Completed",
			Body:        fmt.Sprintf("Your ride is complete. Total fare: $%.2f", r.Fare),
			Type:        TypeRideCompleted,
			Payload:     map[string]any{"ride_id": string(r.ID), "fare": r.Fare},
		}, true

	case ride.StatusCancelled:
		// Notify the party that did not cancel.
		if actor.Role == identity.RoleRider {
			if r.DriverID == nil {
				return Message{}, false
			}
			return Message{
				Recipient:   identity.RoleDriver,
				RecipientID: *r.DriverID,
				Title:       "Ride Cancelled",
				Body:        "The passenger cancelled the ride",
				Type:        TypeGeneral,
				Payload:     map[string]any{"ride_id": string(r.ID)},
			}, true
		}
		return Message{
			Recipient:   identity.RoleRider,
			RecipientID: r.RiderID,
			Title:       "Ride Cancelled",
			Body:        "Your driver cancelled the ride",
			Type:        TypeGeneral,
			Payload:     map[string]any{"ride_id": string(r.ID)},
		}, true
	}
	return Message{}, false
}
