package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/service"
)

func (env *testEnv) readStateHandler() *ReadStateHandler {
	return NewReadStateHandler(service.NewReadStateService(env.readStates, env.channels, env.perms()))
}

func TestMarkChannelRead_Success(t *testing.T) {
	env := newTestEnv(t)
	latest := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	env.readStates.LatestMessageDateFn = func(context.Context, string) (*time.Time, error) {
		return &latest, nil
	}
	var saved time.Time
	env.readStates.UpsertFn = func(_ context.Context, userID, channelID string, lastRead time.Time) error {
		if userID != testUserID || channelID != testChannelID {
			t.Errorf("unexpected upsert %s %s", userID, channelID)
		}
		saved = lastRead
		return nil
	}

	c, rec := newTestContext(http.MethodPost, "/", nil)
	setAuthUser(c, testUserID)
	setParams(c, "channelId", testChannelID)

	if err := env.readStateHandler().MarkChannelRead(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !saved.Equal(latest) {
		t.Errorf("expected marker %v, got %v", latest, saved)
	}
	var resp channelReadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ChannelID != testChannelID || resp.LastRead == nil || !resp.LastRead.Equal(latest) {
		t.Errorf("unexpected response %s", rec.Body.String())
	}
}

func TestMarkChannelRead_EmptyChannel(t *testing.T) {
	env := newTestEnv(t)
	env.readStates.UpsertFn = func(context.Context, string, string, time.Time) error {
		t.Error("expected no write for an empty channel")
		return nil
	}

	c, rec := newTestContext(http.MethodPost, "/", nil)
	setAuthUser(c, testUserID)
	setParams(c, "channelId", testChannelID)

	if err := env.readStateHandler().MarkChannelRead(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp channelReadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.LastRead != nil {
		t.Errorf("expected null lastRead, got %v", resp.LastRead)
	}
}

func TestMarkChannelRead_Access(t *testing.T) {
	dmID := testUserID + "_" + testFriendID
	tests := []struct {
		name      string
		user      string
		channelID string
		status    int
	}{
		{"guild member", testUserID, testChannelID, http.StatusOK},
		{"non member", testStrangerID, testChannelID, http.StatusNotFound},
		{"dm participant", testFriendID, dmID, http.StatusOK},
		{"dm outsider", testStrangerID, dmID, http.StatusNotFound},
		{"unknown channel", testUserID, "2000000000000000999", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			base := env.channels.GetByIDFn
			env.channels.GetByIDFn = func(ctx context.Context, id string) (*models.Channel, error) {
				if id == dmID {
					return &models.Channel{ChannelID: dmID, IsDM: true}, nil
				}
				return base(ctx, id)
			}

			c, rec := newTestContext(http.MethodPost, "/", nil)
			setAuthUser(c, tt.user)
			setParams(c, "channelId", tt.channelID)

			if err := env.readStateHandler().MarkChannelRead(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMarkGuildRead(t *testing.T) {
	env := newTestEnv(t)
	first := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	env.readStates.LatestMessageDatesByGuildFn = func(context.Context, string) ([]models.ReadState, error) {
		return []models.ReadState{
			{ChannelID: testChannelID, LastRead: first},
			{ChannelID: "2000000000000000003", LastRead: second},
		}, nil
	}
	var batch []models.ReadState
	env.readStates.UpsertManyFn = func(_ context.Context, _ string, states []models.ReadState) error {
		batch = states
		return nil
	}

	c, rec := newTestContext(http.MethodPost, "/", nil)
	setAuthUser(c, testUserID)
	setParams(c, "guildId", testGuildID)

	if err := env.readStateHandler().MarkGuildRead(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(batch) != 2 || batch[0].UserID != testUserID {
		t.Fatalf("expected one batch of 2 states for the user, got %+v", batch)
	}

	var resp guildReadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.GuildID != testGuildID || len(resp.Channels) != 2 {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
	if !resp.Channels[1].LastRead.Equal(second) {
		t.Errorf("expected second channel at %v, got %v", second, resp.Channels[1].LastRead)
	}
}

func TestGetReadState(t *testing.T) {
	env := newTestEnv(t)
	read := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	env.readStates.GetFn = func(_ context.Context, userID, channelID string) (*models.ReadState, error) {
		return &models.ReadState{UserID: userID, ChannelID: channelID, LastRead: read}, nil
	}

	c, rec := newTestContext(http.MethodGet, "/", nil)
	setAuthUser(c, testUserID)
	setParams(c, "channelId", testChannelID)

	if err := env.readStateHandler().GetReadState(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp channelReadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.LastRead == nil || !resp.LastRead.Equal(read) {
		t.Errorf("unexpected response %s", rec.Body.String())
	}
}

func TestGetUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	env.readStates.CountUnreadFn = func(context.Context, string, string) (int, error) { return 7, nil }

	c, rec := newTestContext(http.MethodGet, "/", nil)
	setAuthUser(c, testUserID)
	setParams(c, "channelId", testChannelID)

	if err := env.readStateHandler().GetUnreadCount(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp unreadCountResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ChannelID != testChannelID || resp.Count != 7 {
		t.Errorf("unexpected response %s", rec.Body.String())
	}
}

func TestGetGuildUnreadCounts(t *testing.T) {
	env := newTestEnv(t)

	c, rec := newTestContext(http.MethodGet, "/", nil)
	setAuthUser(c, testUserID)
	setParams(c, "guildId", testGuildID)

	if err := env.readStateHandler().GetGuildUnreadCounts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("expected an empty array, got %q", got)
	}
}
