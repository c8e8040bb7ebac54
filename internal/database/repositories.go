package database

import (
	"context"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// EnsurePlaceholder creates a placeholder row for id unless one exists.
	EnsurePlaceholder(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type GuildRepository interface {
	Create(ctx context.Context, guild *models.Guild) error
	GetByID(ctx context.Context, id string) (*models.Guild, error)
	Delete(ctx context.Context, id string) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	IsMember(ctx context.Context, guildID, userID string) (bool, error)
	GetUserIDs(ctx context.Context, guildID string) ([]string, error)
	GetGuildIDsByUser(ctx context.Context, userID string) ([]string, error)
	SharesGuild(ctx context.Context, userA, userB string) (bool, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetDefault(ctx context.Context, guildID string) (*models.Role, error)
	GetByMember(ctx context.Context, guildID, userID string) ([]models.Role, error)
}

type FriendRepository interface {
	Add(ctx context.Context, userID, friendID string, accepted bool) error
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	// EnsureDM returns the DM channel with id, creating it on first contact.
	EnsureDM(ctx context.Context, id string) (*models.Channel, error)
	GetIDsByGuild(ctx context.Context, guildID string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Every mutating MessageRepository method bumps the owning channel's version
// in the same transaction as the write.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	GetExisting(ctx context.Context, ids []string) (map[string]*models.Message, error)
	GetPage(ctx context.Context, q models.MessagePageQuery) ([]models.Message, error)
	// UpdateContent edits a message only when authorID wrote it. It reports
	// whether a row changed.
	UpdateContent(ctx context.Context, channelID, messageID, authorID, content string, editedAt time.Time) (bool, error)
	UpdateBotMessage(ctx context.Context, msg *models.Message, replaceEmbeds bool) error
	UpdateMetadata(ctx context.Context, messageID string, md *models.Metadata) error
	// Delete removes the message with its attachments, pin and URL records and
	// returns the removed attachments. found is false when no row matched.
	Delete(ctx context.Context, channelID, messageID string) (removed []models.Attachment, found bool, err error)
	Search(ctx context.Context, s models.MessageSearch) ([]models.Message, int, error)
	ListPinned(ctx context.Context, channelID string) ([]models.Message, error)
	ListWithURLs(ctx context.Context, channelID string, limit int) ([]models.Message, error)
}

type AttachmentRepository interface {
	GetByMessageID(ctx context.Context, messageID string) ([]models.Attachment, error)
	ListMedia(ctx context.Context, guildID, channelID string, limit, offset int) ([]models.AttachmentListing, int, error)
	// AddProxied attaches externally hosted media unless the message already
	// carries the same proxy URL.
	AddProxied(ctx context.Context, channelID string, a *models.Attachment) (bool, error)
}

type PinRepository interface {
	IsPinned(ctx context.Context, channelID, messageID string) (bool, error)
	// PinWithNotification stores the pin and its system message together.
	// It reports false without writing when the message is already pinned.
	PinWithNotification(ctx context.Context, pin *models.ChannelPinnedMessage, notification *models.Message) (bool, error)
	Unpin(ctx context.Context, channelID, messageID string) (bool, error)
}

type MessageURLRepository interface {
	// Merge records urls for the message, appending only ones not stored yet.
	// It returns the resulting URL list.
	Merge(ctx context.Context, rec *models.MessageURL) ([]string, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.MessageURL, error)
	ListReferencing(ctx context.Context, url string) ([]models.MessageURL, error)
}

type MediaURLRepository interface {
	Upsert(ctx context.Context, m *models.MediaURL) error
	GetByURL(ctx context.Context, url string) (*models.MediaURL, error)
}

type ReadStateRepository interface {
	Get(ctx context.Context, userID, channelID string) (*models.ReadState, error)
	Upsert(ctx context.Context, userID, channelID string, lastRead time.Time) error
	UpsertMany(ctx context.Context, userID string, states []models.ReadState) error
	LatestMessageDate(ctx context.Context, channelID string) (*time.Time, error)
	// LatestMessageDatesByGuild returns the newest message date per channel.
	// UserID is left empty on the returned rows.
	LatestMessageDatesByGuild(ctx context.Context, guildID string) ([]models.ReadState, error)
	CountUnread(ctx context.Context, userID, channelID string) (int, error)
	GuildUnreadCounts(ctx context.Context, userID, guildID string) ([]models.UnreadCount, error)
}

type URLMetadataRepository interface {
	Exists(ctx context.Context, domain, routePath string) (bool, error)
	CountDomainSince(ctx context.Context, domain string, since time.Time) (int, error)
	Create(ctx context.Context, m *models.URLMetadata) error
}
