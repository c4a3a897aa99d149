// README: Notification message and inbox record shapes.
package notify

import (
	"time"

	"uride/internal/identity"
	"uride/internal/types"
)

const (
	TypeRideRequest   = "ride_request"
	TypeRideAccepted  = "ride_accepted"
	TypeRideStarted   = "ride_started"
	TypeRideCompleted = "ride_completed"
	TypeGeneral       = "general"
)

// Message is an outbound notification. An empty RecipientID means broadcast
// to every connected user with the Recipient role.
type Message struct {
	Recipient   identity.Role
	RecipientID types.ID
	Title       string
	Body        string
	Type        string
	Payload     map[string]any
}

// Record is a delivered notification as stored in a user's inbox.
type Record struct {
	ID        types.ID       `json:"id"`
	UserID    types.ID       `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Type      string         `json:"type"`
	Read      bool           `json:"read"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
