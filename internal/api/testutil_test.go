package api

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/permissions"
	redisclient "github.com/liventcord/LiventCord-sub002/internal/redis"
	"github.com/liventcord/LiventCord-sub002/internal/service"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const (
	testGuildID   = "1000000000000000001"
	testChannelID = "2000000000000000002"
	testMsgID     = "3000000000000000003"
	testUserID    = "100000000000000001"
	testFriendID  = "200000000000000002"
	testOwnerID   = "900000000000000009"
)

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID string) {
	c.Set("user_id", userID)
}

func setParams(c echo.Context, kv ...string) {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func testSnowflake() *snowflake.Generator {
	sf, _ := snowflake.NewGenerator(1, 1)
	return sf
}

func newTestRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redisclient.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("connecting to miniredis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Mock event publisher, blob store and enqueuer
// ---------------------------------------------------------------------------

type publishedEvent struct {
	GuildID       string
	ChannelID     string
	ExcludeUserID string
	UserIDs       []string
	Event         string
	Payload       any
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) ToGuild(_ context.Context, guildID, excludeUserID, event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{GuildID: guildID, ExcludeUserID: excludeUserID, Event: event, Payload: payload})
}

func (m *mockPublisher) ToUsers(_ context.Context, channelID string, userIDs []string, event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{ChannelID: channelID, UserIDs: userIDs, Event: event, Payload: payload})
}

func (m *mockPublisher) all() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.events...)
}

type mockStorage struct {
	mu       sync.Mutex
	uploaded map[string]int64
	deleted  []string
	UploadFn func(ctx context.Context, fileID string, reader io.Reader, size int64, contentType string) error
}

func (m *mockStorage) Upload(ctx context.Context, fileID string, reader io.Reader, size int64, contentType string) error {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, fileID, reader, size, contentType)
	}
	n, err := io.Copy(io.Discard, reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploaded == nil {
		m.uploaded = make(map[string]int64)
	}
	m.uploaded[fileID] = n
	return nil
}

func (m *mockStorage) Delete(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fileID)
	return nil
}

type mockEnqueuer struct {
	mu   sync.Mutex
	jobs []service.EnrichJob
}

func (m *mockEnqueuer) Enqueue(job service.EnrichJob) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return true
}

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

// mockUserRepo implements database.UserRepository.
type mockUserRepo struct {
	CreateFn            func(ctx context.Context, user *models.User) error
	GetByIDFn           func(ctx context.Context, id string) (*models.User, error)
	EnsurePlaceholderFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) EnsurePlaceholder(ctx context.Context, id string) error {
	if m.EnsurePlaceholderFn != nil {
		return m.EnsurePlaceholderFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) Delete(context.Context, string) error { return nil }

// mockGuildRepo implements database.GuildRepository.
type mockGuildRepo struct {
	GetByIDFn func(ctx context.Context, id string) (*models.Guild, error)
}

func (m *mockGuildRepo) Create(context.Context, *models.Guild) error { return nil }

func (m *mockGuildRepo) GetByID(ctx context.Context, id string) (*models.Guild, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockGuildRepo) Delete(context.Context, string) error { return nil }

// mockMemberRepo implements database.MemberRepository.
type mockMemberRepo struct {
	IsMemberFn          func(ctx context.Context, guildID, userID string) (bool, error)
	GetUserIDsFn        func(ctx context.Context, guildID string) ([]string, error)
	GetGuildIDsByUserFn func(ctx context.Context, userID string) ([]string, error)
	SharesGuildFn       func(ctx context.Context, userA, userB string) (bool, error)
}

func (m *mockMemberRepo) Create(context.Context, *models.Member) error { return nil }

func (m *mockMemberRepo) IsMember(ctx context.Context, guildID, userID string) (bool, error) {
	if m.IsMemberFn != nil {
		return m.IsMemberFn(ctx, guildID, userID)
	}
	return false, nil
}

func (m *mockMemberRepo) GetUserIDs(ctx context.Context, guildID string) ([]string, error) {
	if m.GetUserIDsFn != nil {
		return m.GetUserIDsFn(ctx, guildID)
	}
	return nil, nil
}

func (m *mockMemberRepo) GetGuildIDsByUser(ctx context.Context, userID string) ([]string, error) {
	if m.GetGuildIDsByUserFn != nil {
		return m.GetGuildIDsByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockMemberRepo) SharesGuild(ctx context.Context, userA, userB string) (bool, error) {
	if m.SharesGuildFn != nil {
		return m.SharesGuildFn(ctx, userA, userB)
	}
	return false, nil
}

func (m *mockMemberRepo) AddRole(context.Context, string, string, string) error { return nil }

// mockRoleRepo implements database.RoleRepository.
type mockRoleRepo struct {
	GetDefaultFn  func(ctx context.Context, guildID string) (*models.Role, error)
	GetByMemberFn func(ctx context.Context, guildID, userID string) ([]models.Role, error)
}

func (m *mockRoleRepo) Create(context.Context, *models.Role) error { return nil }

func (m *mockRoleRepo) GetDefault(ctx context.Context, guildID string) (*models.Role, error) {
	if m.GetDefaultFn != nil {
		return m.GetDefaultFn(ctx, guildID)
	}
	return nil, nil
}

func (m *mockRoleRepo) GetByMember(ctx context.Context, guildID, userID string) ([]models.Role, error) {
	if m.GetByMemberFn != nil {
		return m.GetByMemberFn(ctx, guildID, userID)
	}
	return nil, nil
}

// mockFriendRepo implements database.FriendRepository.
type mockFriendRepo struct {
	AreFriendsFn func(ctx context.Context, userA, userB string) (bool, error)
}

func (m *mockFriendRepo) Add(context.Context, string, string, bool) error { return nil }

func (m *mockFriendRepo) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	if m.AreFriendsFn != nil {
		return m.AreFriendsFn(ctx, userA, userB)
	}
	return false, nil
}

// mockChannelRepo implements database.ChannelRepository.
type mockChannelRepo struct {
	GetByIDFn       func(ctx context.Context, id string) (*models.Channel, error)
	EnsureDMFn      func(ctx context.Context, id string) (*models.Channel, error)
	GetIDsByGuildFn func(ctx context.Context, guildID string) ([]string, error)
}

func (m *mockChannelRepo) Create(context.Context, *models.Channel) error { return nil }

func (m *mockChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockChannelRepo) EnsureDM(ctx context.Context, id string) (*models.Channel, error) {
	if m.EnsureDMFn != nil {
		return m.EnsureDMFn(ctx, id)
	}
	return &models.Channel{ChannelID: id, IsDM: true}, nil
}

func (m *mockChannelRepo) GetIDsByGuild(ctx context.Context, guildID string) ([]string, error) {
	if m.GetIDsByGuildFn != nil {
		return m.GetIDsByGuildFn(ctx, guildID)
	}
	return nil, nil
}

func (m *mockChannelRepo) Delete(context.Context, string) error { return nil }

// mockMessageRepo implements database.MessageRepository.
type mockMessageRepo struct {
	CreateFn           func(ctx context.Context, msg *models.Message) error
	GetByIDFn          func(ctx context.Context, id string) (*models.Message, error)
	GetExistingFn      func(ctx context.Context, ids []string) (map[string]*models.Message, error)
	GetPageFn          func(ctx context.Context, q models.MessagePageQuery) ([]models.Message, error)
	UpdateContentFn    func(ctx context.Context, channelID, messageID, authorID, content string, editedAt time.Time) (bool, error)
	UpdateBotMessageFn func(ctx context.Context, msg *models.Message, replaceEmbeds bool) error
	UpdateMetadataFn   func(ctx context.Context, messageID string, md *models.Metadata) error
	DeleteFn           func(ctx context.Context, channelID, messageID string) ([]models.Attachment, bool, error)
	SearchFn           func(ctx context.Context, s models.MessageSearch) ([]models.Message, int, error)
	ListPinnedFn       func(ctx context.Context, channelID string) ([]models.Message, error)
	ListWithURLsFn     func(ctx context.Context, channelID string, limit int) ([]models.Message, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageRepo) GetExisting(ctx context.Context, ids []string) (map[string]*models.Message, error) {
	if m.GetExistingFn != nil {
		return m.GetExistingFn(ctx, ids)
	}
	return map[string]*models.Message{}, nil
}

func (m *mockMessageRepo) GetPage(ctx context.Context, q models.MessagePageQuery) ([]models.Message, error) {
	if m.GetPageFn != nil {
		return m.GetPageFn(ctx, q)
	}
	return nil, nil
}

func (m *mockMessageRepo) UpdateContent(ctx context.Context, channelID, messageID, authorID, content string, editedAt time.Time) (bool, error) {
	if m.UpdateContentFn != nil {
		return m.UpdateContentFn(ctx, channelID, messageID, authorID, content, editedAt)
	}
	return false, nil
}

func (m *mockMessageRepo) UpdateBotMessage(ctx context.Context, msg *models.Message, replaceEmbeds bool) error {
	if m.UpdateBotMessageFn != nil {
		return m.UpdateBotMessageFn(ctx, msg, replaceEmbeds)
	}
	return nil
}

func (m *mockMessageRepo) UpdateMetadata(ctx context.Context, messageID string, md *models.Metadata) error {
	if m.UpdateMetadataFn != nil {
		return m.UpdateMetadataFn(ctx, messageID, md)
	}
	return nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, channelID, messageID string) ([]models.Attachment, bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, channelID, messageID)
	}
	return nil, false, nil
}

func (m *mockMessageRepo) Search(ctx context.Context, s models.MessageSearch) ([]models.Message, int, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, s)
	}
	return nil, 0, nil
}

func (m *mockMessageRepo) ListPinned(ctx context.Context, channelID string) ([]models.Message, error) {
	if m.ListPinnedFn != nil {
		return m.ListPinnedFn(ctx, channelID)
	}
	return nil, nil
}

func (m *mockMessageRepo) ListWithURLs(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	if m.ListWithURLsFn != nil {
		return m.ListWithURLsFn(ctx, channelID, limit)
	}
	return nil, nil
}

// mockAttachmentRepo implements database.AttachmentRepository.
type mockAttachmentRepo struct {
	GetByMessageIDFn func(ctx context.Context, messageID string) ([]models.Attachment, error)
	ListMediaFn      func(ctx context.Context, guildID, channelID string, limit, offset int) ([]models.AttachmentListing, int, error)
	AddProxiedFn     func(ctx context.Context, channelID string, a *models.Attachment) (bool, error)
}

func (m *mockAttachmentRepo) GetByMessageID(ctx context.Context, messageID string) ([]models.Attachment, error) {
	if m.GetByMessageIDFn != nil {
		return m.GetByMessageIDFn(ctx, messageID)
	}
	return nil, nil
}

func (m *mockAttachmentRepo) ListMedia(ctx context.Context, guildID, channelID string, limit, offset int) ([]models.AttachmentListing, int, error) {
	if m.ListMediaFn != nil {
		return m.ListMediaFn(ctx, guildID, channelID, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockAttachmentRepo) AddProxied(ctx context.Context, channelID string, a *models.Attachment) (bool, error) {
	if m.AddProxiedFn != nil {
		return m.AddProxiedFn(ctx, channelID, a)
	}
	return true, nil
}

// mockPinRepo implements database.PinRepository.
type mockPinRepo struct {
	IsPinnedFn            func(ctx context.Context, channelID, messageID string) (bool, error)
	PinWithNotificationFn func(ctx context.Context, pin *models.ChannelPinnedMessage, notification *models.Message) (bool, error)
	UnpinFn               func(ctx context.Context, channelID, messageID string) (bool, error)
}

func (m *mockPinRepo) IsPinned(ctx context.Context, channelID, messageID string) (bool, error) {
	if m.IsPinnedFn != nil {
		return m.IsPinnedFn(ctx, channelID, messageID)
	}
	return false, nil
}

func (m *mockPinRepo) PinWithNotification(ctx context.Context, pin *models.ChannelPinnedMessage, notification *models.Message) (bool, error) {
	if m.PinWithNotificationFn != nil {
		return m.PinWithNotificationFn(ctx, pin, notification)
	}
	return true, nil
}

func (m *mockPinRepo) Unpin(ctx context.Context, channelID, messageID string) (bool, error) {
	if m.UnpinFn != nil {
		return m.UnpinFn(ctx, channelID, messageID)
	}
	return false, nil
}

// mockMessageURLRepo implements database.MessageURLRepository.
type mockMessageURLRepo struct {
	MergeFn           func(ctx context.Context, rec *models.MessageURL) ([]string, error)
	ListReferencingFn func(ctx context.Context, url string) ([]models.MessageURL, error)
}

func (m *mockMessageURLRepo) Merge(ctx context.Context, rec *models.MessageURL) ([]string, error) {
	if m.MergeFn != nil {
		return m.MergeFn(ctx, rec)
	}
	return rec.URLs, nil
}

func (m *mockMessageURLRepo) GetByMessageID(context.Context, string) (*models.MessageURL, error) {
	return nil, nil
}

func (m *mockMessageURLRepo) ListReferencing(ctx context.Context, url string) ([]models.MessageURL, error) {
	if m.ListReferencingFn != nil {
		return m.ListReferencingFn(ctx, url)
	}
	return nil, nil
}

// mockMediaURLRepo implements database.MediaURLRepository.
type mockMediaURLRepo struct {
	mu     sync.Mutex
	stored []models.MediaURL
}

func (m *mockMediaURLRepo) Upsert(_ context.Context, media *models.MediaURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, *media)
	return nil
}

func (m *mockMediaURLRepo) GetByURL(context.Context, string) (*models.MediaURL, error) {
	return nil, nil
}

// mockReadStateRepo implements database.ReadStateRepository.
type mockReadStateRepo struct {
	GetFn                       func(ctx context.Context, userID, channelID string) (*models.ReadState, error)
	UpsertFn                    func(ctx context.Context, userID, channelID string, lastRead time.Time) error
	UpsertManyFn                func(ctx context.Context, userID string, states []models.ReadState) error
	LatestMessageDateFn         func(ctx context.Context, channelID string) (*time.Time, error)
	LatestMessageDatesByGuildFn func(ctx context.Context, guildID string) ([]models.ReadState, error)
	CountUnreadFn               func(ctx context.Context, userID, channelID string) (int, error)
	GuildUnreadCountsFn         func(ctx context.Context, userID, guildID string) ([]models.UnreadCount, error)
}

func (m *mockReadStateRepo) Get(ctx context.Context, userID, channelID string) (*models.ReadState, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, channelID)
	}
	return nil, nil
}

func (m *mockReadStateRepo) Upsert(ctx context.Context, userID, channelID string, lastRead time.Time) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, userID, channelID, lastRead)
	}
	return nil
}

func (m *mockReadStateRepo) UpsertMany(ctx context.Context, userID string, states []models.ReadState) error {
	if m.UpsertManyFn != nil {
		return m.UpsertManyFn(ctx, userID, states)
	}
	return nil
}

func (m *mockReadStateRepo) LatestMessageDate(ctx context.Context, channelID string) (*time.Time, error) {
	if m.LatestMessageDateFn != nil {
		return m.LatestMessageDateFn(ctx, channelID)
	}
	return nil, nil
}

func (m *mockReadStateRepo) LatestMessageDatesByGuild(ctx context.Context, guildID string) ([]models.ReadState, error) {
	if m.LatestMessageDatesByGuildFn != nil {
		return m.LatestMessageDatesByGuildFn(ctx, guildID)
	}
	return nil, nil
}

func (m *mockReadStateRepo) CountUnread(ctx context.Context, userID, channelID string) (int, error) {
	if m.CountUnreadFn != nil {
		return m.CountUnreadFn(ctx, userID, channelID)
	}
	return 0, nil
}

func (m *mockReadStateRepo) GuildUnreadCounts(ctx context.Context, userID, guildID string) ([]models.UnreadCount, error) {
	if m.GuildUnreadCountsFn != nil {
		return m.GuildUnreadCountsFn(ctx, userID, guildID)
	}
	return nil, nil
}

// mockURLMetadataRepo implements database.URLMetadataRepository.
type mockURLMetadataRepo struct {
	ExistsFn           func(ctx context.Context, domain, routePath string) (bool, error)
	CountDomainSinceFn func(ctx context.Context, domain string, since time.Time) (int, error)
	CreateFn           func(ctx context.Context, m *models.URLMetadata) error
}

func (m *mockURLMetadataRepo) Exists(ctx context.Context, domain, routePath string) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, domain, routePath)
	}
	return false, nil
}

func (m *mockURLMetadataRepo) CountDomainSince(ctx context.Context, domain string, since time.Time) (int, error) {
	if m.CountDomainSinceFn != nil {
		return m.CountDomainSinceFn(ctx, domain, since)
	}
	return 0, nil
}

func (m *mockURLMetadataRepo) Create(ctx context.Context, rec *models.URLMetadata) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, rec)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Wired test environment
// ---------------------------------------------------------------------------

// testEnv holds the mocks behind a fully wired set of handlers. By default
// testUserID is a member of testGuildID whose @everyone role carries
// everyonePerms, testChannelID belongs to testGuildID and testUserID is
// friends with testFriendID.
type testEnv struct {
	guilds      *mockGuildRepo
	members     *mockMemberRepo
	roles       *mockRoleRepo
	friends     *mockFriendRepo
	channels    *mockChannelRepo
	users       *mockUserRepo
	messages    *mockMessageRepo
	attachments *mockAttachmentRepo
	pins        *mockPinRepo
	urls        *mockMessageURLRepo
	media       *mockMediaURLRepo
	readStates  *mockReadStateRepo
	metadata    *mockURLMetadataRepo

	events   *mockPublisher
	files    *mockStorage
	enricher *mockEnqueuer
	cache    service.MessageCache

	everyonePerms permissions.Permission
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		friends:       &mockFriendRepo{},
		users:         &mockUserRepo{},
		messages:      &mockMessageRepo{},
		attachments:   &mockAttachmentRepo{},
		pins:          &mockPinRepo{},
		urls:          &mockMessageURLRepo{},
		media:         &mockMediaURLRepo{},
		readStates:    &mockReadStateRepo{},
		metadata:      &mockURLMetadataRepo{},
		events:        &mockPublisher{},
		files:         &mockStorage{},
		enricher:      &mockEnqueuer{},
		everyonePerms: permissions.DefaultEveryonePerms,
	}
	env.guilds = &mockGuildRepo{
		GetByIDFn: func(_ context.Context, id string) (*models.Guild, error) {
			if id != testGuildID {
				return nil, nil
			}
			return &models.Guild{GuildID: testGuildID, OwnerID: testOwnerID}, nil
		},
	}
	env.members = &mockMemberRepo{
		IsMemberFn: func(_ context.Context, guildID, userID string) (bool, error) {
			return guildID == testGuildID && (userID == testUserID || userID == testFriendID), nil
		},
	}
	env.roles = &mockRoleRepo{
		GetDefaultFn: func(_ context.Context, guildID string) (*models.Role, error) {
			return &models.Role{RoleID: guildID, GuildID: guildID, Permissions: int64(env.everyonePerms), IsDefault: true}, nil
		},
	}
	env.friends.AreFriendsFn = func(_ context.Context, a, b string) (bool, error) {
		pair := map[string]bool{a: true, b: true}
		return pair[testUserID] && pair[testFriendID], nil
	}
	env.channels = &mockChannelRepo{
		GetByIDFn: func(_ context.Context, id string) (*models.Channel, error) {
			if id == testChannelID {
				guildID := testGuildID
				return &models.Channel{ChannelID: testChannelID, GuildID: &guildID, Name: "general", Version: 1}, nil
			}
			return nil, nil
		},
	}
	return env
}

func (env *testEnv) perms() *service.PermissionChecker {
	return service.NewPermissionChecker(env.guilds, env.members, env.roles, env.friends)
}

func (env *testEnv) messageService(maxFileSize int64) *service.MessageService {
	return service.NewMessageService(service.MessageServiceDeps{
		Messages:    env.messages,
		Attachments: env.attachments,
		Pins:        env.pins,
		Channels:    env.channels,
		Users:       env.users,
		Perms:       env.perms(),
		Cache:       env.cache,
		Files:       env.files,
		Events:      env.events,
		Enricher:    env.enricher,
		IDs:         testSnowflake(),
		MaxFileSize: maxFileSize,
	})
}

func (env *testEnv) messageHandler() *MessageHandler {
	return NewMessageHandler(env.messageService(30 * 1024 * 1024))
}

// storedMessage makes GetByID return msg for its id.
func (env *testEnv) storedMessage(msg models.Message) {
	env.messages.GetByIDFn = func(_ context.Context, id string) (*models.Message, error) {
		if id != msg.MessageID {
			return nil, nil
		}
		m := msg
		return &m, nil
	}
}
