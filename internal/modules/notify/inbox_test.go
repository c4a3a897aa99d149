package notify

import (
	"context"
	"errors"
	"testing"

	"uride/internal/kv"
	"uride/internal/types"
)

func newTestInbox(t *testing.T) *Inbox {
	t.Helper()
	return NewInbox(kv.NewMemoryStore())
}

func mustAppend(t *testing.T, inbox *Inbox, user types.ID, title string) *Record {
	t.Helper()
	rec, err := inbox.Append(context.Background(), user, Message{
		Title: title,
		Body:  "body",
		Type:  TypeGeneral,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return rec
}

func TestInboxListMostRecentFirst(t *testing.T) {
	inbox := newTestInbox(t)
	ctx := context.Background()

	mustAppend(t, inbox, "user-1", "first")
	mustAppend(t, inbox, "user-1", "second")
	mustAppend(t, inbox, "user-1", "third")

	records, err := inbox.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	want := []string{"third", "second", "first"}
	for i, title := range want {
		if records[i].Title != title {
			t.Errorf("records[%d].Title = %q, want %q", i, records[i].Title, title)
		}
	}
}

func TestInboxIsolatedPerUser(t *testing.T) {
	inbox := newTestInbox(t)
	mustAppend(t, inbox, "user-1", "for one")

	records, err := inbox.List(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("user-2 sees %d notifications, want 0", len(records))
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	inbox := newTestInbox(t)
	ctx := context.Background()

	a := mustAppend(t, inbox, "user-1", "a")
	mustAppend(t, inbox, "user-1", "b")

	count, err := inbox.UnreadCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if err := inbox.MarkRead(ctx, "user-1", a.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = inbox.UnreadCount(ctx, "user-1")
	if count != 1 {
		t.Errorf("unread after mark = %d, want 1", count)
	}

	// Idempotent.
	if err := inbox.MarkRead(ctx, "user-1", a.ID); err != nil {
		t.Fatalf("MarkRead twice: %v", err)
	}
}

func TestMarkReadUnknownRecord(t *testing.T) {
	inbox := newTestInbox(t)
	err := inbox.MarkRead(context.Background(), "user-1", "notif_ghost")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("MarkRead error = %v, want ErrRecordNotFound", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	inbox := newTestInbox(t)
	ctx := context.Background()

	mustAppend(t, inbox, "user-1", "a")
	mustAppend(t, inbox, "user-1", "b")
	mustAppend(t, inbox, "user-1", "c")

	if err := inbox.MarkAllRead(ctx, "user-1"); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	count, err := inbox.UnreadCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}
}
