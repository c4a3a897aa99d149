package ride

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"uride/internal/identity"
	"uride/internal/kv"
	"uride/internal/modules/geo"
	"uride/internal/types"
)

type recordedNotification struct {
	From  Status
	To    Status
	Ride  Ride
	Actor identity.Actor
}

type notifierRecorder struct {
	mu     sync.Mutex
	events []recordedNotification
}

func (n *notifierRecorder) RideEvent(_ context.Context, from, to Status, r *Ride, actor identity.Actor) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedNotification{From: from, To: to, Ride: *r, Actor: actor})
}

func (n *notifierRecorder) all() []recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]recordedNotification, len(n.events))
	copy(out, n.events)
	return out
}

type matcherRecorder struct {
	mu       sync.Mutex
	proposed []types.ID
	aborted  []types.ID
}

func (m *matcherRecorder) Propose(r *Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposed = append(m.proposed, r.ID)
}

func (m *matcherRecorder) Abort(rideID types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = append(m.aborted, rideID)
}

// failingStore wraps a real store and fails every call once armed. Used to
// check that persistence failures surface and leave state untouched.
type failingStore struct {
	Store
	fail bool
}

func (f *failingStore) SaveActive(ctx context.Context, r *Ride) error {
	if f.fail {
		return fmt.Errorf("%w: boom", ErrPersistence)
	}
	return f.Store.SaveActive(ctx, r)
}

func (f *failingStore) AppendHistory(ctx context.Context, r *Ride) error {
	if f.fail {
		return fmt.Errorf("%w: boom", ErrPersistence)
	}
	return f.Store.AppendHistory(ctx, r)
}

type testEnv struct {
	svc      *Service
	store    *KVStore
	notifier *notifierRecorder
	matcher  *matcherRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := NewKVStore(kv.NewMemoryStore())
	notifier := &notifierRecorder{}
	matcher := &matcherRecorder{}
	svc := NewService(Deps{
		Store:    store,
		Calc:     geo.NewCalculator(geo.DefaultRates),
		Matcher:  matcher,
		Notifier: notifier,
	})
	return &testEnv{svc: svc, store: store, notifier: notifier, matcher: matcher}
}

func riderCtx(id types.ID) context.Context {
	return identity.WithActor(context.Background(), identity.Actor{ID: id, Role: identity.RoleRider})
}

func driverCtx(id types.ID) context.Context {
	return identity.WithActor(context.Background(), identity.Actor{ID: id, Role: identity.RoleDriver})
}

func mustRequest(t *testing.T, env *testEnv, rider types.ID) *Ride {
	t.Helper()
	r, err := env.svc.Request(riderCtx(rider), RequestCommand{
		Pickup:  types.Point{Lat: 40.0, Lng: -73.0},
		Dropoff: types.Point{Lat: 40.1, Lng: -73.1},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return r
}

func mustAccept(t *testing.T, env *testEnv, rideID, driver types.ID) *Ride {
	t.Helper()
	r, err := env.svc.Accept(driverCtx(driver), AcceptCommand{RideID: rideID})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return r
}

func assertStatus(t *testing.T, env *testEnv, rideID types.ID, want Status) {
	t.Helper()
	r, err := env.store.LoadByID(context.Background(), rideID)
	if err != nil {
		t.Fatalf("LoadByID(%s): %v", rideID, err)
	}
	if r.Status != want {
		t.Fatalf("ride %s status = %q, want %q", rideID, r.Status, want)
	}
}

func TestRequestComputesDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	if r.Status != StatusRequested {
		t.Errorf("status = %q, want requested", r.Status)
	}
	if r.ID == "" {
		t.Error("ride id not assigned")
	}
	if r.DriverID != nil {
		t.Error("driver assigned at request time")
	}
	if math.Abs(r.DistanceKm-13.96) > 0.05 {
		t.Errorf("distance = %.2f km, want about 13.96", r.DistanceKm)
	}
	if math.Abs(r.Fare-23.44) > 0.08 {
		t.Errorf("fare = %.2f, want about 23.44", r.Fare)
	}
	if r.DurationMin != 21 {
		t.Errorf("duration = %d min, want 21", r.DurationMin)
	}
	if r.RequestedAt.IsZero() {
		t.Error("requested_at not stamped")
	}

	if got := env.matcher.proposed; len(got) != 1 || got[0] != r.ID {
		t.Errorf("matcher proposals = %v, want [%s]", got, r.ID)
	}
}

func TestRequestRejectsSecondActiveRide(t *testing.T) {
	env := newTestEnv(t)
	mustRequest(t, env, "rider-1")

	_, err := env.svc.Request(riderCtx("rider-1"), RequestCommand{
		Pickup:  types.Point{Lat: 41.0, Lng: -74.0},
		Dropoff: types.Point{Lat: 41.1, Lng: -74.1},
	})
	if !errors.Is(err, ErrRideExists) {
		t.Errorf("second request error = %v, want ErrRideExists", err)
	}
}

func TestRequestRequiresRiderRole(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Request(driverCtx("driver-1"), RequestCommand{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("driver request error = %v, want ErrUnauthorized", err)
	}
}

func TestRequestRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Request(context.Background(), RequestCommand{})
	if !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Errorf("anonymous request error = %v, want ErrNotAuthenticated", err)
	}
}

func TestAcceptAssignsDriver(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	accepted := mustAccept(t, env, r.ID, "driver-1")
	if accepted.Status != StatusAccepted {
		t.Errorf("status = %q, want accepted", accepted.Status)
	}
	if accepted.DriverID == nil || *accepted.DriverID != "driver-1" {
		t.Errorf("driver id = %v, want driver-1", accepted.DriverID)
	}
	if accepted.AcceptedAt == nil {
		t.Error("accepted_at not stamped")
	}
	assertStatus(t, env, r.ID, StatusAccepted)
}

func TestAcceptRequiresDriverRole(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	_, err := env.svc.Accept(riderCtx("rider-1"), AcceptCommand{RideID: r.ID})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("rider accept error = %v, want ErrUnauthorized", err)
	}
	assertStatus(t, env, r.ID, StatusRequested)
}

func TestAcceptTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")

	_, err := env.svc.Accept(driverCtx("driver-2"), AcceptCommand{RideID: r.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second accept error = %v, want ErrInvalidTransition", err)
	}

	got, _ := env.store.LoadByID(context.Background(), r.ID)
	if got.DriverID == nil || *got.DriverID != "driver-1" {
		t.Errorf("driver id = %v, want driver-1 preserved", got.DriverID)
	}
}

func TestConcurrentAcceptsExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	const drivers = 8
	var wg sync.WaitGroup
	errs := make([]error, drivers)
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			driver := types.ID(fmt.Sprintf("driver-%d", i))
			_, errs[i] = env.svc.Accept(driverCtx(driver), AcceptCommand{RideID: r.ID})
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Errorf("driver-%d unexpected error: %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	assertStatus(t, env, r.ID, StatusAccepted)
}

func TestArriveStampsNoTimestamp(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")

	arrived, err := env.svc.Arrive(driverCtx("driver-1"), ArriveCommand{RideID: r.ID})
	if err != nil {
		t.Fatalf("Arrive: %v", err)
	}
	if arrived.Status != StatusDriverArrived {
		t.Errorf("status = %q, want driver_arrived", arrived.Status)
	}
	if arrived.StartedAt != nil || arrived.CompletedAt != nil || arrived.CancelledAt != nil {
		t.Error("arrival stamped a timestamp it should not")
	}
}

func TestArriveFromRequestedFails(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	_, err := env.svc.Arrive(driverCtx("driver-1"), ArriveCommand{RideID: r.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("arrive error = %v, want ErrInvalidTransition", err)
	}
	assertStatus(t, env, r.ID, StatusRequested)
}

func TestStartFromAcceptedAndFromArrived(t *testing.T) {
	env := newTestEnv(t)

	// Straight from accepted.
	r1 := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r1.ID, "driver-1")
	started, err := env.svc.Start(driverCtx("driver-1"), StartCommand{RideID: r1.ID})
	if err != nil {
		t.Fatalf("Start from accepted: %v", err)
	}
	if started.StartedAt == nil {
		t.Error("started_at not stamped")
	}

	// Via driver_arrived.
	r2 := mustRequest(t, env, "rider-2")
	mustAccept(t, env, r2.ID, "driver-2")
	if _, err := env.svc.Arrive(driverCtx("driver-2"), ArriveCommand{RideID: r2.ID}); err != nil {
		t.Fatalf("Arrive: %v", err)
	}
	if _, err := env.svc.Start(driverCtx("driver-2"), StartCommand{RideID: r2.ID}); err != nil {
		t.Fatalf("Start from driver_arrived: %v", err)
	}
	assertStatus(t, env, r2.ID, StatusInProgress)
}

func TestCompleteMovesRideToHistory(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")
	if _, err := env.svc.Start(driverCtx("driver-1"), StartCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done, err := env.svc.Complete(driverCtx("driver-1"), CompleteCommand{RideID: r.ID})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}

	if _, err := env.store.LoadActive(context.Background(), "rider-1"); !errors.Is(err, ErrNoActiveRide) {
		t.Errorf("active slot not cleared: %v", err)
	}
	history, err := env.svc.History(riderCtx("rider-1"))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != r.ID || history[0].Status != StatusCompleted {
		t.Errorf("history = %+v, want one completed ride %s", history, r.ID)
	}

	// Rider may request again once the slot is free.
	mustRequest(t, env, "rider-1")
}

func TestCompleteFromAcceptedFails(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")

	_, err := env.svc.Complete(driverCtx("driver-1"), CompleteCommand{RideID: r.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete error = %v, want ErrInvalidTransition", err)
	}
	assertStatus(t, env, r.ID, StatusAccepted)
}

func TestCancelRequestedRide(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	cancelled, err := env.svc.Cancel(riderCtx("rider-1"), CancelCommand{RideID: r.ID})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at not stamped")
	}
	if cancelled.DriverID != nil {
		t.Error("cancelled requested ride has a driver")
	}
	if cancelled.AcceptedAt != nil {
		t.Error("cancelled requested ride has accepted_at")
	}

	if _, err := env.store.LoadActive(context.Background(), "rider-1"); !errors.Is(err, ErrNoActiveRide) {
		t.Errorf("active slot not cleared: %v", err)
	}
	if got := env.matcher.aborted; len(got) != 1 || got[0] != r.ID {
		t.Errorf("matcher aborts = %v, want [%s]", got, r.ID)
	}
}

func TestCancelInProgressRide(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")
	if _, err := env.svc.Start(driverCtx("driver-1"), StartCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancelled, err := env.svc.Cancel(driverCtx("driver-1"), CancelCommand{RideID: r.ID, Reason: "vehicle issue"})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.DriverID == nil || *cancelled.DriverID != "driver-1" {
		t.Error("driver id dropped on cancel")
	}
	if cancelled.StartedAt == nil {
		t.Error("started_at dropped on cancel")
	}
}

func TestCancelCompletedRideFails(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")
	if _, err := env.svc.Start(driverCtx("driver-1"), StartCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := env.svc.Complete(driverCtx("driver-1"), CompleteCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	_, err := env.svc.Cancel(riderCtx("rider-1"), CancelCommand{RideID: r.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel after complete error = %v, want ErrInvalidTransition", err)
	}

	got, err := env.store.LoadByID(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if got.Status != StatusCompleted || got.CancelledAt != nil {
		t.Errorf("completed ride mutated by rejected cancel: %+v", got)
	}
}

func TestCancelUnknownRide(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Cancel(riderCtx("rider-1"), CancelCommand{RideID: "ghost"})
	if !errors.Is(err, ErrNoActiveRide) {
		t.Errorf("cancel unknown error = %v, want ErrNoActiveRide", err)
	}
}

func TestConcurrentAcceptAndCancel(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")

	var wg sync.WaitGroup
	var acceptErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = env.svc.Accept(driverCtx("driver-1"), AcceptCommand{RideID: r.ID})
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = env.svc.Cancel(riderCtx("rider-1"), CancelCommand{RideID: r.ID})
	}()
	wg.Wait()

	// Cancel is valid from both requested and accepted, so it succeeds in
	// either interleaving and the ride ends cancelled. Accept either wins
	// the lock first or fails the status guard.
	if cancelErr != nil {
		t.Errorf("cancel error = %v, want success", cancelErr)
	}
	if acceptErr != nil && !errors.Is(acceptErr, ErrInvalidTransition) {
		t.Errorf("accept error = %v, want nil or ErrInvalidTransition", acceptErr)
	}
	got, err := env.store.LoadByID(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("final status = %q, want cancelled", got.Status)
	}
}

func TestPersistenceFailureLeavesStateUntouched(t *testing.T) {
	store := NewKVStore(kv.NewMemoryStore())
	failing := &failingStore{Store: store}
	notifier := &notifierRecorder{}
	svc := NewService(Deps{Store: failing, Notifier: notifier})

	failing.fail = false
	r, err := svc.Request(riderCtx("rider-1"), RequestCommand{
		Pickup:  types.Point{Lat: 40.0, Lng: -73.0},
		Dropoff: types.Point{Lat: 40.1, Lng: -73.1},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	failing.fail = true
	if _, err := svc.Accept(driverCtx("driver-1"), AcceptCommand{RideID: r.ID}); !errors.Is(err, ErrPersistence) {
		t.Errorf("accept error = %v, want ErrPersistence", err)
	}

	got, err := store.LoadByID(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if got.Status != StatusRequested || got.DriverID != nil {
		t.Errorf("stored ride mutated despite save failure: %+v", got)
	}

	// No notification for the failed intent.
	for _, ev := range notifier.all() {
		if ev.To == StatusAccepted {
			t.Error("notification emitted for failed accept")
		}
	}
}

func TestNotificationsFollowTransitions(t *testing.T) {
	env := newTestEnv(t)
	r := mustRequest(t, env, "rider-1")
	mustAccept(t, env, r.ID, "driver-1")
	if _, err := env.svc.Arrive(driverCtx("driver-1"), ArriveCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Arrive: %v", err)
	}
	if _, err := env.svc.Start(driverCtx("driver-1"), StartCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := env.svc.Complete(driverCtx("driver-1"), CompleteCommand{RideID: r.ID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	events := env.notifier.all()
	want := []Status{StatusRequested, StatusAccepted, StatusDriverArrived, StatusInProgress, StatusCompleted}
	if len(events) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(events), len(want))
	}
	for i, to := range want {
		if events[i].To != to {
			t.Errorf("notification %d to = %q, want %q", i, events[i].To, to)
		}
	}
	final := events[len(events)-1]
	if math.Abs(final.Ride.Fare-23.44) > 0.08 {
		t.Errorf("completion notification fare = %.2f, want about 23.44", final.Ride.Fare)
	}
}

func TestCurrentRide(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.CurrentRide(riderCtx("rider-1")); !errors.Is(err, ErrNoActiveRide) {
		t.Errorf("CurrentRide error = %v, want ErrNoActiveRide", err)
	}
	r := mustRequest(t, env, "rider-1")
	got, err := env.svc.CurrentRide(riderCtx("rider-1"))
	if err != nil {
		t.Fatalf("CurrentRide: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("current ride = %s, want %s", got.ID, r.ID)
	}
}
