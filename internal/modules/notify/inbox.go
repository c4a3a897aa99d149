// README: Per-user notification inbox backed by the kv list contract.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"uride/internal/kv"
	"uride/internal/types"
)

var ErrRecordNotFound = errors.New("notification not found")

type Inbox struct {
	kv kv.Store
}

func NewInbox(store kv.Store) *Inbox {
	return &Inbox{kv: store}
}

func inboxKey(userID types.ID) string { return "notify:inbox:" + string(userID) }

// Append stores msg in userID's inbox and returns the stored record.
func (i *Inbox) Append(ctx context.Context, userID types.ID, msg Message) (*Record, error) {
	rec := &Record{
		ID:        types.ID("notif_" + uuid.NewString()),
		UserID:    userID,
		Title:     msg.Title,
		Body:      msg.Body,
		Type:      msg.Type,
		Payload:   msg.Payload,
		CreatedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	if err := i.kv.LPush(ctx, inboxKey(userID), b); err != nil {
		return nil, fmt.Errorf("append notification: %w", err)
	}
	return rec, nil
}

// List returns the user's notifications, most recent first.
func (i *Inbox) List(ctx context.Context, userID types.ID) ([]*Record, error) {
	items, err := i.kv.LRange(ctx, inboxKey(userID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	records := make([]*Record, 0, len(items))
	for _, b := range items {
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

func (i *Inbox) UnreadCount(ctx context.Context, userID types.ID) (int, error) {
	records, err := i.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range records {
		if !rec.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags one notification as read.
func (i *Inbox) MarkRead(ctx context.Context, userID, recordID types.ID) error {
	items, err := i.kv.LRange(ctx, inboxKey(userID), 0, -1)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	for idx, b := range items {
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("decode notification: %w", err)
		}
		if rec.ID != recordID {
			continue
		}
		if rec.Read {
			return nil
		}
		rec.Read = true
		updated, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		if err := i.kv.LSet(ctx, inboxKey(userID), int64(idx), updated); err != nil {
			return fmt.Errorf("update notification: %w", err)
		}
		return nil
	}
	return ErrRecordNotFound
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID types.ID) error {
	items, err := i.kv.LRange(ctx, inboxKey(userID), 0, -1)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	for idx, b := range items {
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("decode notification: %w", err)
		}
		if rec.Read {
			continue
		}
		rec.Read = true
		updated, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		if err := i.kv.LSet(ctx, inboxKey(userID), int64(idx), updated); err != nil {
			return fmt.Errorf("update notification: %w", err)
		}
	}
	return nil
}
