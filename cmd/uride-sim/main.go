// README: In-memory end-to-end simulation of one ride lifecycle.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"uride/internal/identity"
	"uride/internal/kv"
	"uride/internal/logger"
	"uride/internal/modules/directory"
	"uride/internal/modules/matching"
	"uride/internal/modules/notify"
	"uride/internal/modules/ride"
	"uride/internal/types"
)

type logSink struct{}

func (logSink) Send(_ context.Context, msg notify.Message) error {
	to := string(msg.RecipientID)
	if to == "" {
		to = "all " + string(msg.Recipient) + "s"
	}
	fmt.Printf("  -> [%s] %s: %s\n", to, msg.Title, msg.Body)
	return nil
}

func main() {
	log := logger.New("uride-sim", "warn")
	ctx := context.Background()

	store := kv.NewMemoryStore()
	dir := directory.NewMemoryDirectory(
		directory.Driver{ID: "driver-1", Location: types.Point{Lat: 40.01, Lng: -73.0}, Available: true},
		directory.Driver{ID: "driver-2", Location: types.Point{Lat: 40.02, Lng: -73.0}, Available: true},
	)

	inbox := notify.NewInbox(store)
	notifier := notify.NewService(inbox, nil, log, logSink{})
	rides := ride.NewService(ride.Deps{
		Store:    ride.NewKVStore(store),
		Notifier: notifier,
		Log:      log,
	})
	matcher := matching.NewService(dir, rides, matching.Config{
		RadiusMeters: 5000,
		ProposeDelay: 200 * time.Millisecond,
	}, log)
	rides.SetMatcher(matcher)

	riderCtx := identity.WithActor(ctx, identity.Actor{ID: "rider-1", Role: identity.RoleRider})

	fmt.Println("rider requests a ride")
	r, err := rides.Request(riderCtx, ride.RequestCommand{
		Pickup:  types.Point{Lat: 40.0, Lng: -73.0, Address: "Pickup Plaza"},
		Dropoff: types.Point{Lat: 40.1, Lng: -73.1, Address: "Dropoff Ave"},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "request failed:", err)
		os.Exit(1)
	}
	fmt.Printf("  ride %s: %.2f km, $%.2f, ~%d min\n", r.ID, r.DistanceKm, r.Fare, r.DurationMin)

	fmt.Println("waiting for a driver")
	var current *ride.Ride
	for i := 0; i < 50; i++ {
		time.Sleep(50 * time.Millisecond)
		current, err = rides.CurrentRide(riderCtx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "current ride:", err)
			os.Exit(1)
		}
		if current.Status == ride.StatusAccepted {
			break
		}
	}
	if current.Status != ride.StatusAccepted {
		fmt.Fprintln(os.Stderr, "no driver matched in time")
		os.Exit(1)
	}
	driverCtx := identity.WithActor(ctx, identity.Actor{ID: *current.DriverID, Role: identity.RoleDriver})
	fmt.Printf("  matched with %s\n", *current.DriverID)

	fmt.Println("driver arrives")
	if _, err := rides.Arrive(driverCtx, ride.ArriveCommand{RideID: r.ID}); err != nil {
		fmt.Fprintln(os.Stderr, "arrive failed:", err)
		os.Exit(1)
	}

	fmt.Println("trip starts")
	if _, err := rides.Start(driverCtx, ride.StartCommand{RideID: r.ID}); err != nil {
		fmt.Fprintln(os.Stderr, "start failed:", err)
		os.Exit(1)
	}

	fmt.Println("trip completes")
	done, err := rides.Complete(driverCtx, ride.CompleteCommand{RideID: r.ID})
	if err != nil {
		fmt.Fprintln(os.Stderr, "complete failed:", err)
		os.Exit(1)
	}
	fmt.Printf("  fare charged: $%.2f\n", done.Fare)

	history, err := rides.History(riderCtx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "history failed:", err)
		os.Exit(1)
	}
	fmt.Printf("rider history: %d ride(s), latest %s\n", len(history), history[0].Status)
}
