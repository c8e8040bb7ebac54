package database

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

// testPool returns a pgxpool.Pool connected to the test database.
// It skips the test if DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testIDCounter provides unique IDs across all tests in the package.
// Starts near the top of the 19-digit range to stay clear of generated ids.
var testIDCounter int64 = 9_000_000_000_000_000_000

// nextID returns a unique 19-digit id.
func nextID() string {
	return fmt.Sprintf("%d", atomic.AddInt64(&testIDCounter, 1))
}

// nextUserID returns a unique 18-character user id.
func nextUserID() string {
	return fmt.Sprintf("u%017d", atomic.AddInt64(&testIDCounter, 1)%100_000_000_000_000_000)
}

type fixture struct {
	pool     *pgxpool.Pool
	users    UserRepository
	guilds   GuildRepository
	members  MemberRepository
	channels ChannelRepository
	messages MessageRepository
}

func newFixture(t *testing.T) *fixture {
	pool := testPool(t)
	return &fixture{
		pool:     pool,
		users:    NewUserRepository(pool),
		guilds:   NewGuildRepository(pool),
		members:  NewMemberRepository(pool),
		channels: NewChannelRepository(pool),
		messages: NewMessageRepository(pool),
	}
}

func (f *fixture) user(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	u := &models.User{UserID: nextUserID(), Nickname: "tester", CreatedAt: time.Now()}
	if err := f.users.Create(ctx, u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	t.Cleanup(func() { _ = f.users.Delete(ctx, u.UserID) })
	return u.UserID
}

// guildChannel creates a guild owned by ownerID with one text channel.
func (f *fixture) guildChannel(t *testing.T, ownerID string) (guildID, channelID string) {
	t.Helper()
	ctx := context.Background()
	g := &models.Guild{GuildID: nextID(), Name: "Test Guild", OwnerID: ownerID, CreatedAt: time.Now()}
	if err := f.guilds.Create(ctx, g); err != nil {
		t.Fatalf("creating guild: %v", err)
	}
	t.Cleanup(func() { _ = f.guilds.Delete(ctx, g.GuildID) })

	if err := f.members.Create(ctx, &models.Member{GuildID: g.GuildID, UserID: ownerID, JoinedAt: time.Now()}); err != nil {
		t.Fatalf("creating member: %v", err)
	}
	ch := &models.Channel{ChannelID: nextID(), GuildID: &g.GuildID, Name: "general"}
	if err := f.channels.Create(ctx, ch); err != nil {
		t.Fatalf("creating channel: %v", err)
	}
	return g.GuildID, ch.ChannelID
}

func (f *fixture) message(t *testing.T, channelID, userID, content string, date time.Time) *models.Message {
	t.Helper()
	msg := &models.Message{
		MessageID: nextID(),
		UserID:    userID,
		ChannelID: channelID,
		Content:   &content,
		Date:      date.Truncate(time.Microsecond),
	}
	if err := f.messages.Create(context.Background(), msg); err != nil {
		t.Fatalf("creating message: %v", err)
	}
	return msg
}

func (f *fixture) version(t *testing.T, channelID string) int {
	t.Helper()
	ch, err := f.channels.GetByID(context.Background(), channelID)
	if err != nil || ch == nil {
		t.Fatalf("GetByID(%s): %v", channelID, err)
	}
	return ch.Version
}
