// README: Firebase Cloud Messaging sink and device-token registry.
package notify

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"uride/internal/kv"
	"uride/internal/types"
)

// DeviceTokens maps users to their registered FCM device token.
type DeviceTokens struct {
	kv kv.Store
}

func NewDeviceTokens(store kv.Store) *DeviceTokens {
	return &DeviceTokens{kv: store}
}

func tokenKey(userID types.ID) string { return "notify:token:" + string(userID) }

func (t *DeviceTokens) Save(ctx context.Context, userID types.ID, token string) error {
	return t.kv.Set(ctx, tokenKey(userID), []byte(token))
}

// Lookup returns the user's device token, or "" when none is registered.
func (t *DeviceTokens) Lookup(ctx context.Context, userID types.ID) (string, error) {
	b, err := t.kv.Get(ctx, tokenKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Topic drivers subscribe to for broadcast ride requests.
const driverTopic = "drivers"

type FCMSink struct {
	client *messaging.Client
	tokens *DeviceTokens
}

func NewFCMSink(client *messaging.Client, tokens *DeviceTokens) *FCMSink {
	return &FCMSink{client: client, tokens: tokens}
}

func (s *FCMSink) Send(ctx context.Context, msg Message) error {
	out := &messaging.Message{
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: stringifyPayload(msg),
	}

	if msg.RecipientID == "" {
		out.Topic = driverTopic
	} else {
		token, err := s.tokens.Lookup(ctx, msg.RecipientID)
		if err != nil {
			return err
		}
		if token == "" {
			// User has no registered device; nothing to push.
			return nil
		}
		out.Token = token
	}

	_, err := s.client.Send(ctx, out)
	return err
}

func stringifyPayload(msg Message) map[string]string {
	data := map[string]string{"type": msg.Type}
	for k, v := range msg.Payload {
		data[k] = fmt.Sprint(v)
	}
	return data
}
