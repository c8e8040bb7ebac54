package database

import (
	"context"
	"testing"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/models"
)

func TestPinRepo_PinTwiceCreatesOneNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pins := NewPinRepository(f.pool)

	author := f.user(t)
	_, channelID := f.guildChannel(t, author)
	msg := f.message(t, channelID, author, "pin me", time.Now().Add(-time.Minute))

	pin := func() bool {
		t.Helper()
		content := "marker"
		notif := &models.Message{
			MessageID:       nextID(),
			UserID:          models.SystemUserID,
			ChannelID:       channelID,
			Content:         &content,
			Date:            time.Now(),
			IsSystemMessage: true,
			Metadata:        &models.Metadata{Type: "pin_notification", PinnerUserID: author},
		}
		inserted, err := pins.PinWithNotification(ctx,
			&models.ChannelPinnedMessage{ChannelID: channelID, MessageID: msg.MessageID, PinnedByUserID: author, PinnedAt: time.Now()},
			notif,
		)
		if err != nil {
			t.Fatalf("PinWithNotification: %v", err)
		}
		return inserted
	}

	if !pin() {
		t.Fatal("first pin should insert")
	}
	if pin() {
		t.Fatal("second pin should be a no-op")
	}

	page, err := f.messages.GetPage(ctx, models.MessagePageQuery{ChannelID: channelID, Limit: 50})
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	var system, pinned int
	for _, m := range page {
		if m.IsSystemMessage {
			system++
		}
		if m.IsPinned {
			pinned++
		}
	}
	if system != 1 {
		t.Errorf("system messages = %d, want 1", system)
	}
	if pinned != 1 {
		t.Errorf("pinned messages = %d, want 1", pinned)
	}

	list, err := f.messages.ListPinned(ctx, channelID)
	if err != nil {
		t.Fatalf("ListPinned: %v", err)
	}
	if len(list) != 1 || list[0].MessageID != msg.MessageID {
		t.Errorf("ListPinned = %+v", list)
	}
}

func TestPinRepo_Unpin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pins := NewPinRepository(f.pool)

	author := f.user(t)
	_, channelID := f.guildChannel(t, author)
	msg := f.message(t, channelID, author, "pin me", time.Now())

	removed, err := pins.Unpin(ctx, channelID, msg.MessageID)
	if err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if removed {
		t.Error("Unpin of an unpinned message should report false")
	}

	notif := &models.Message{MessageID: nextID(), UserID: models.SystemUserID, ChannelID: channelID, Date: time.Now(), IsSystemMessage: true}
	if _, err := pins.PinWithNotification(ctx,
		&models.ChannelPinnedMessage{ChannelID: channelID, MessageID: msg.MessageID, PinnedByUserID: author, PinnedAt: time.Now()},
		notif,
	); err != nil {
		t.Fatalf("PinWithNotification: %v", err)
	}
	removed, err = pins.Unpin(ctx, channelID, msg.MessageID)
	if err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if !removed {
		t.Error("Unpin should remove the pin")
	}
}
