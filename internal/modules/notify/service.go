// README: Notification dispatch: inbox append plus best-effort fan-out to sinks.
package notify

import (
	"context"
	"log/slog"

	"uride/internal/identity"
	"uride/internal/modules/ride"
	"uride/internal/types"
)

// Sink delivers a message over one channel (websocket, push). Broadcast
// messages carry an empty RecipientID.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// NameResolver turns a driver id into a display name for message bodies.
type NameResolver func(types.ID) string

type Service struct {
	inbox *Inbox
	names NameResolver
	sinks []Sink
	log   *slog.Logger
}

func NewService(inbox *Inbox, names NameResolver, log *slog.Logger, sinks ...Sink) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{inbox: inbox, names: names, sinks: sinks, log: log}
}

// RideEvent delivers the notification for a committed transition. Every
// failure here is logged and swallowed; notification delivery never affects
// the ride lifecycle.
func (s *Service) RideEvent(ctx context.Context, from, to ride.Status, r *ride.Ride, actor identity.Actor) {
	driverName := "Your driver"
	if r.DriverID != nil && s.names != nil {
		if name := s.names(*r.DriverID); name != "" {
			driverName = name
		}
	}

	msg, ok := HookFor(from, to, r, actor, driverName)
	if !ok {
		return
	}

	if s.inbox != nil && msg.RecipientID != "" {
		if _, err := s.inbox.Append(ctx, msg.RecipientID, msg); err != nil {
			s.log.Warn("inbox append failed", "user_id", msg.RecipientID, "type", msg.Type, "error", err)
		}
	}

	for _, sink := range s.sinks {
		if err := sink.Send(ctx, msg); err != nil {
			s.log.Warn("notification delivery failed", "type", msg.Type, "error", err)
		}
	}
}
