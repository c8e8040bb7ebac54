package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/gateway"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/permissions"
	"github.com/liventcord/LiventCord-sub002/internal/redis"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
	"golang.org/x/sync/errgroup"
)

// Mode selects between guild channels and DM channels.
type Mode int

const (
	ModeGuild Mode = iota
	ModeDM
)

const (
	maxContentLength = 2000
	messagePageSize  = 50
	blobDeleteLimit  = 4
)

// MessageServiceDeps lists the collaborators of a MessageService. Cache,
// Files, Events and Enricher may be nil.
type MessageServiceDeps struct {
	Messages    database.MessageRepository
	Attachments database.AttachmentRepository
	Pins        database.PinRepository
	Channels    database.ChannelRepository
	Users       database.UserRepository
	Perms       *PermissionChecker
	Cache       MessageCache
	Files       FileStorage
	Events      EventPublisher
	Enricher    Enqueuer
	IDs         *snowflake.Generator
	MaxFileSize int64
}

// MessageService runs every message mutation: validation, persistence, cache
// invalidation, broadcast and the hand-off to background enrichment.
type MessageService struct {
	messages    database.MessageRepository
	attachments database.AttachmentRepository
	pins        database.PinRepository
	channels    database.ChannelRepository
	users       database.UserRepository
	perms       *PermissionChecker
	cache       MessageCache
	files       FileStorage
	events      EventPublisher
	enricher    Enqueuer
	ids         *snowflake.Generator
	maxFileSize int64
	now         func() time.Time
}

func NewMessageService(d MessageServiceDeps) *MessageService {
	return &MessageService{
		messages:    d.Messages,
		attachments: d.Attachments,
		pins:        d.Pins,
		channels:    d.Channels,
		users:       d.Users,
		perms:       d.Perms,
		cache:       d.Cache,
		files:       d.Files,
		events:      d.Events,
		enricher:    d.Enricher,
		ids:         d.IDs,
		maxFileSize: d.MaxFileSize,
		now:         time.Now,
	}
}

// PostInput is a new message. ChannelID is used in guild mode, RecipientID in
// DM mode.
type PostInput struct {
	GuildID     string
	ChannelID   string
	RecipientID string
	AuthorID    string
	Content     *string
	ReplyToID   string
	TemporaryID string
	Files       []IncomingFile
}

// PostMessage validates, stores and broadcasts a new message, then queues
// link enrichment for it.
func (s *MessageService) PostMessage(ctx context.Context, mode Mode, in PostInput) (*models.Message, error) {
	var channelID string
	switch mode {
	case ModeGuild:
		if in.GuildID == "" {
			return nil, BadRequest("MISSING_GUILD", "Missing guildId")
		}
		if in.ChannelID == "" {
			return nil, BadRequest("MISSING_CHANNEL", "Missing channelId")
		}
		if _, err := s.guildChannel(ctx, in.GuildID, in.ChannelID, in.AuthorID, permissions.PermSendMessages); err != nil {
			return nil, err
		}
		channelID = in.ChannelID
	case ModeDM:
		if in.RecipientID == "" {
			return nil, BadRequest("MISSING_RECIPIENT", "Missing recipient id")
		}
		if err := s.perms.RequireDM(ctx, in.AuthorID, in.RecipientID); err != nil {
			return nil, err
		}
		channelID = snowflake.DMChannelID(in.AuthorID, in.RecipientID)
	}

	content := normalizeContent(in.Content)
	if content == nil && len(in.Files) == 0 {
		return nil, BadRequest("EMPTY_MESSAGE", "message must have content or attachments")
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}
	replyTo, err := s.checkReply(ctx, channelID, in.ReplyToID)
	if err != nil {
		return nil, err
	}
	if err := s.checkFileSizes(in.Files); err != nil {
		return nil, err
	}

	if mode == ModeDM {
		if err := s.users.EnsurePlaceholder(ctx, in.RecipientID); err != nil {
			return nil, internalError("provisioning recipient", err, "userID", in.RecipientID)
		}
		if _, err := s.channels.EnsureDM(ctx, channelID); err != nil {
			return nil, internalError("provisioning dm channel", err, "channelID", channelID)
		}
	}

	attachments, err := s.uploadFiles(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		MessageID:   s.ids.NextID(),
		UserID:      in.AuthorID,
		ChannelID:   channelID,
		Content:     content,
		Date:        s.now().UTC(),
		ReplyToID:   replyTo,
		Embeds:      []models.Embed{},
		Attachments: attachments,
	}
	if len(in.TemporaryID) == snowflake.IDLength {
		tmp := in.TemporaryID
		msg.TemporaryID = &tmp
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		s.deleteBlobs(ctx, attachments)
		return nil, internalError("creating message", err, "channelID", channelID)
	}

	guildID := ""
	if mode == ModeGuild {
		guildID = in.GuildID
	}
	invalidate(ctx, s.cache, guildID, channelID)

	if s.events != nil {
		if mode == ModeGuild {
			s.events.ToGuild(ctx, in.GuildID, in.AuthorID, gateway.EventSendMessageGuild, gateway.GuildMessageCreate{
				GuildID:   in.GuildID,
				ChannelID: channelID,
				UserID:    in.AuthorID,
				Messages:  []models.Message{*msg},
			})
		} else {
			s.events.ToUsers(ctx, channelID, []string{in.RecipientID}, gateway.EventSendMessageDM, gateway.DMMessageCreate{
				Message:   *msg,
				ChannelID: in.AuthorID,
			})
		}
	}

	if content != nil && s.enricher != nil {
		s.enricher.Enqueue(EnrichJob{
			MessageID: msg.MessageID,
			ChannelID: channelID,
			GuildID:   guildID,
			UserID:    in.AuthorID,
			Content:   *content,
		})
	}

	return msg, nil
}

// EditInput targets a message by guild channel (guild mode) or DM peer.
type EditInput struct {
	GuildID     string
	ChannelID   string
	RecipientID string
	ActorID     string
	MessageID   string
	Content     string
}

// EditMessage replaces the content of a message written by the actor. An edit
// of someone else's message matches no row and silently changes nothing.
func (s *MessageService) EditMessage(ctx context.Context, mode Mode, in EditInput) (*gateway.MessageEdit, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, BadRequest("EMPTY_MESSAGE", "content is required")
	}
	if err := validateContent(&in.Content); err != nil {
		return nil, err
	}

	payload := &gateway.MessageEdit{
		IsDM:      mode == ModeDM,
		MessageID: in.MessageID,
		Content:   in.Content,
	}
	var channelID, guildID string
	if mode == ModeGuild {
		if _, err := s.guildChannel(ctx, in.GuildID, in.ChannelID, in.ActorID, 0); err != nil {
			return nil, err
		}
		channelID, guildID = in.ChannelID, in.GuildID
		payload.GuildID = in.GuildID
		payload.ChannelID = in.ChannelID
	} else {
		channelID = snowflake.DMChannelID(in.ActorID, in.RecipientID)
		payload.ChannelID = in.ActorID
	}

	changed, err := s.messages.UpdateContent(ctx, channelID, in.MessageID, in.ActorID, in.Content, s.now().UTC())
	if err != nil {
		return nil, internalError("editing message", err, "messageID", in.MessageID)
	}
	if !changed {
		return payload, nil
	}

	invalidate(ctx, s.cache, guildID, channelID)
	if s.events != nil {
		if mode == ModeGuild {
			s.events.ToGuild(ctx, guildID, in.ActorID, gateway.EventEditMessageGuild, payload)
		} else {
			s.events.ToUsers(ctx, channelID, []string{in.RecipientID}, gateway.EventEditMessageDM, payload)
		}
	}

	if s.enricher != nil {
		s.enricher.Enqueue(EnrichJob{
			MessageID: in.MessageID,
			ChannelID: channelID,
			GuildID:   guildID,
			UserID:    in.ActorID,
			Content:   in.Content,
		})
	}
	return payload, nil
}

// DeleteGuildMessage removes a guild message. Authors who can still send may
// delete their own messages, MANAGE_MESSAGES deletes anyone's.
func (s *MessageService) DeleteGuildMessage(ctx context.Context, actorID, guildID, channelID, messageID string) (*gateway.GuildMessageDelete, error) {
	perms, err := s.perms.GuildPermissions(ctx, guildID, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.channelInGuild(ctx, guildID, channelID); err != nil {
		return nil, err
	}

	msg, err := s.messageInChannel(ctx, channelID, messageID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanDeleteMessage(perms, actorID, msg.UserID) {
		return nil, Forbidden("MISSING_PERMISSIONS", "you cannot delete this message")
	}

	if err := s.removeMessage(ctx, guildID, channelID, messageID); err != nil {
		return nil, err
	}

	payload := &gateway.GuildMessageDelete{GuildID: guildID, ChannelID: channelID, MessageID: messageID}
	if s.events != nil {
		s.events.ToGuild(ctx, guildID, actorID, gateway.EventDeleteMessageGuild, payload)
	}
	return payload, nil
}

// DeleteDMMessage removes a DM message written by the actor.
func (s *MessageService) DeleteDMMessage(ctx context.Context, actorID, peerID, messageID string) (*gateway.DMMessageDelete, error) {
	channelID := snowflake.DMChannelID(actorID, peerID)
	msg, err := s.messageInChannel(ctx, channelID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.UserID != actorID {
		return nil, Forbidden("NOT_AUTHOR", "you can only delete your own messages")
	}

	if err := s.removeMessage(ctx, "", channelID, messageID); err != nil {
		return nil, err
	}

	payload := &gateway.DMMessageDelete{
		ChannelID: actorID,
		UserID:    actorID,
		MessageID: messageID,
		Date:      msg.Date,
	}
	if s.events != nil {
		s.events.ToUsers(ctx, channelID, []string{peerID}, gateway.EventDeleteMessageDM, payload)
	}
	return payload, nil
}

// removeMessage deletes the row with its dependents, then the uploaded blobs.
// A message that vanished concurrently is a 404.
func (s *MessageService) removeMessage(ctx context.Context, guildID, channelID, messageID string) error {
	removed, found, err := s.messages.Delete(ctx, channelID, messageID)
	if err != nil {
		return internalError("deleting message", err, "messageID", messageID)
	}
	if !found {
		return NotFound("UNKNOWN_MESSAGE", "message not found")
	}
	s.deleteBlobs(ctx, removed)
	invalidate(ctx, s.cache, guildID, channelID)
	return nil
}

// MessagePage is one page of channel history, newest first.
type MessagePage struct {
	Messages          []models.Message
	OldestMessageDate *time.Time
	IsOldMessages     bool
}

// GetGuildMessages returns up to 50 messages of a guild channel older than
// before, or the single message messageID when set.
func (s *MessageService) GetGuildMessages(ctx context.Context, userID, guildID, channelID string, before *time.Time, messageID string) (*MessagePage, error) {
	channel, err := s.guildChannel(ctx, guildID, channelID, userID, permissions.PermReadMessages)
	if err != nil {
		return nil, err
	}
	return s.loadPage(ctx, guildID, channel, before, messageID)
}

// GetDMMessages returns DM history with peerID. A conversation that was never
// started is an empty page.
func (s *MessageService) GetDMMessages(ctx context.Context, userID, peerID string, before *time.Time, messageID, guildID string) (*MessagePage, error) {
	channelID := snowflake.DMChannelID(userID, peerID)
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, internalError("loading dm channel", err, "channelID", channelID)
	}
	if channel == nil {
		return &MessagePage{Messages: []models.Message{}, IsOldMessages: before != nil}, nil
	}
	return s.loadPage(ctx, guildID, channel, before, messageID)
}

func (s *MessageService) loadPage(ctx context.Context, guildID string, channel *models.Channel, before *time.Time, messageID string) (*MessagePage, error) {
	key := redis.MessageCacheKey(guildID, channel.ChannelID, channel.Version, before, messageID)

	msgs, ok := s.cachedPage(ctx, key)
	if !ok {
		var err error
		msgs, err = s.messages.GetPage(ctx, models.MessagePageQuery{
			ChannelID: channel.ChannelID,
			GuildID:   guildID,
			MessageID: messageID,
			Before:    before,
			Limit:     messagePageSize,
		})
		if err != nil {
			return nil, internalError("loading messages", err, "channelID", channel.ChannelID)
		}
		if msgs == nil {
			msgs = []models.Message{}
		}
		for i := range msgs {
			if msgs[i].Metadata.IsEmpty() {
				msgs[i].Metadata = nil
			}
		}
		s.storePage(ctx, guildID, channel.ChannelID, key, msgs)
	}

	page := &MessagePage{Messages: msgs, IsOldMessages: before != nil}
	if n := len(msgs); n > 0 {
		oldest := msgs[n-1].Date
		page.OldestMessageDate = &oldest
	}
	return page, nil
}

// cachedPage returns a cached page. Unreadable entries count as misses.
func (s *MessageService) cachedPage(ctx context.Context, key string) ([]models.Message, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.GetMessagePage(ctx, key)
	if err != nil {
		slog.Warn("reading message cache", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		slog.Warn("discarding corrupt cached page", "key", key, "error", err)
		return nil, false
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, true
}

func (s *MessageService) storePage(ctx context.Context, guildID, channelID, key string, msgs []models.Message) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		slog.Warn("encoding message page", "channelID", channelID, "error", err)
		return
	}
	if err := s.cache.SetMessagePage(ctx, guildID, channelID, key, data); err != nil {
		slog.Warn("writing message cache", "channelID", channelID, "error", err)
	}
}

// GetAttachments lists the image and video attachments of a guild channel.
func (s *MessageService) GetAttachments(ctx context.Context, userID, guildID, channelID string, page, pageSize int) ([]models.AttachmentListing, int, error) {
	if page < 1 {
		return nil, 0, BadRequest("INVALID_PAGE", "page must be at least 1")
	}
	if pageSize < 1 || pageSize > maxAttachmentPageSize {
		return nil, 0, BadRequest("INVALID_PAGE_SIZE", fmt.Sprintf("pageSize must be between 1 and %d", maxAttachmentPageSize))
	}
	if _, err := s.guildChannel(ctx, guildID, channelID, userID, 0); err != nil {
		return nil, 0, err
	}

	items, total, err := s.attachments.ListMedia(ctx, guildID, channelID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, internalError("listing attachments", err, "channelID", channelID)
	}
	if items == nil {
		items = []models.AttachmentListing{}
	}
	return items, total, nil
}

// GetLinkMessages returns the newest messages of a guild channel that contain
// links.
func (s *MessageService) GetLinkMessages(ctx context.Context, userID, guildID, channelID string) ([]models.Message, error) {
	if _, err := s.guildChannel(ctx, guildID, channelID, userID, permissions.PermReadMessages); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListWithURLs(ctx, channelID, maxLinkMessages)
	if err != nil {
		return nil, internalError("listing link messages", err, "channelID", channelID)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

const (
	maxAttachmentPageSize = 500
	maxLinkMessages       = 100
)

// guildChannel checks that userID holds perm in the guild and that channelID
// belongs to it. perm 0 only requires membership.
func (s *MessageService) guildChannel(ctx context.Context, guildID, channelID, userID string, perm permissions.Permission) (*models.Channel, error) {
	if _, err := s.perms.RequireGuildPermission(ctx, guildID, userID, perm); err != nil {
		return nil, err
	}
	return s.channelInGuild(ctx, guildID, channelID)
}

func (s *MessageService) channelInGuild(ctx context.Context, guildID, channelID string) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, internalError("loading channel", err, "channelID", channelID)
	}
	if channel == nil || !channel.InGuild(guildID) {
		return nil, NotFound("UNKNOWN_CHANNEL", "channel not found")
	}
	return channel, nil
}

func (s *MessageService) messageInChannel(ctx context.Context, channelID, messageID string) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, internalError("loading message", err, "messageID", messageID)
	}
	if msg == nil || msg.ChannelID != channelID {
		return nil, NotFound("UNKNOWN_MESSAGE", "message not found")
	}
	return msg, nil
}

func (s *MessageService) checkReply(ctx context.Context, channelID, replyToID string) (*string, error) {
	if replyToID == "" {
		return nil, nil
	}
	if len(replyToID) != snowflake.IDLength {
		return nil, BadRequest("INVALID_REPLY", "Reply id should be 19 characters long")
	}
	target, err := s.messages.GetByID(ctx, replyToID)
	if err != nil {
		return nil, internalError("loading reply target", err, "messageID", replyToID)
	}
	if target == nil || target.ChannelID != channelID {
		return nil, BadRequest("INVALID_REPLY", "Reply target not found")
	}
	return &replyToID, nil
}

func (s *MessageService) checkFileSizes(files []IncomingFile) error {
	var total int64
	for _, f := range files {
		if f.Size > s.maxFileSize {
			return BadRequest("FILE_TOO_LARGE", "One of the files exceeds the size limit.")
		}
		total += f.Size
	}
	if total > s.maxFileSize {
		return BadRequest("FILES_TOO_LARGE", "Total file size exceeds the size limit.")
	}
	return nil
}

// uploadFiles pushes every file to the blob store. On failure the files
// already uploaded are removed again.
func (s *MessageService) uploadFiles(ctx context.Context, files []IncomingFile) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, 0, len(files))
	if len(files) == 0 {
		return attachments, nil
	}
	if s.files == nil {
		return nil, BadRequest("UPLOADS_DISABLED", "file uploads are not available")
	}

	for _, f := range files {
		fileID := s.ids.NextID()
		if err := s.uploadFile(ctx, fileID, f); err != nil {
			s.deleteBlobs(ctx, attachments)
			return nil, internalError("uploading attachment", err, "fileName", f.Name)
		}
		isImage, isVideo := classifyFile(f.Name, f.ContentType)
		attachments = append(attachments, models.Attachment{
			FileID:      fileID,
			FileName:    f.Name,
			FileSize:    f.Size,
			IsImageFile: isImage,
			IsVideoFile: isVideo,
			IsSpoiler:   f.Spoiler,
		})
	}
	return attachments, nil
}

func (s *MessageService) uploadFile(ctx context.Context, fileID string, f IncomingFile) error {
	if f.Open == nil {
		return errors.New("file has no content")
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	return s.files.Upload(ctx, fileID, r, f.Size, contentTypeOf(f))
}

// deleteBlobs removes uploaded attachment objects. Proxied attachments have
// no blob. Failures are logged.
func (s *MessageService) deleteBlobs(ctx context.Context, attachments []models.Attachment) {
	if s.files == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(blobDeleteLimit)
	for _, a := range attachments {
		if a.IsProxyFile {
			continue
		}
		a := a
		g.Go(func() error {
			if err := s.files.Delete(ctx, a.FileID); err != nil {
				return fmt.Errorf("deleting blob %s: %w", a.FileID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("removing attachment blobs", "error", err)
	}
}

func normalizeContent(content *string) *string {
	if content == nil || strings.TrimSpace(*content) == "" {
		return nil
	}
	return content
}

func validateContent(content *string) error {
	if content != nil && utf8.RuneCountInString(*content) > maxContentLength {
		return BadRequest("CONTENT_TOO_LONG", fmt.Sprintf("message content must be at most %d characters", maxContentLength))
	}
	return nil
}
