package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/database"
)

const (
	replayBufferSize = 100
	lookupTimeout    = 5 * time.Second
)

// Manager tracks the WebSocket connections of this instance and which guilds
// each connected user receives events for.
type Manager struct {
	mu            sync.RWMutex
	connections   map[string]*Connection         // userID → connection
	subscriptions map[string]map[string]struct{} // guildID → set of userIDs
	sessions      map[string]*Connection         // sessionID → connection

	replayMu     sync.RWMutex
	replayBuffer map[string]*ringBuffer // guildID → recent events

	tokens  *auth.TokenService
	members database.MemberRepository
}

func NewManager(tokens *auth.TokenService, members database.MemberRepository) *Manager {
	return &Manager{
		connections:   make(map[string]*Connection),
		subscriptions: make(map[string]map[string]struct{}),
		sessions:      make(map[string]*Connection),
		replayBuffer:  make(map[string]*ringBuffer),
		tokens:        tokens,
		members:       members,
	}
}

// register adds a connection, displacing any older connection of the user.
func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.connections[c.UserID]; ok && old != c {
		old.SendPayload(GatewayPayload{Op: OpReconnect})
		old.Close()
		delete(m.sessions, old.SessionID)
	}

	m.connections[c.UserID] = c
	m.sessions[c.SessionID] = c
	c.identified.Store(true)
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.connections[c.UserID]; ok && existing == c {
		delete(m.connections, c.UserID)
		for guildID, members := range m.subscriptions {
			delete(members, c.UserID)
			if len(members) == 0 {
				delete(m.subscriptions, guildID)
			}
		}
	}
	delete(m.sessions, c.SessionID)
}

func (m *Manager) SubscribeToGuild(userID, guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subscriptions[guildID] == nil {
		m.subscriptions[guildID] = make(map[string]struct{})
	}
	m.subscriptions[guildID][userID] = struct{}{}
}

func (m *Manager) UnsubscribeFromGuild(userID, guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, ok := m.subscriptions[guildID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(m.subscriptions, guildID)
		}
	}
}

// Online reports whether userID has a connection on this instance.
func (m *Manager) Online(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connections[userID]
	return ok
}

func (m *Manager) DispatchToUser(userID string, event string, data any) {
	m.mu.RLock()
	c, ok := m.connections[userID]
	m.mu.RUnlock()

	if ok {
		c.SendEvent(event, data)
	}
}

func (m *Manager) DispatchToGuild(guildID string, event string, data any) {
	m.DispatchToGuildExcept(guildID, "", event, data)
}

// DispatchToGuildExcept sends to every subscriber of the guild other than
// exceptUserID and records the event for resuming sessions.
func (m *Manager) DispatchToGuildExcept(guildID string, exceptUserID string, event string, data any) {
	m.mu.RLock()
	members := m.subscriptions[guildID]
	conns := make([]*Connection, 0, len(members))
	for userID := range members {
		if userID == exceptUserID {
			continue
		}
		if c, ok := m.connections[userID]; ok {
			conns = append(conns, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range conns {
		c.SendEvent(event, data)
	}
	m.storeReplayEvent(guildID, Event{Name: event, Data: data})
}

func (m *Manager) handleIdentify(c *Connection, data json.RawMessage) {
	var identify IdentifyData
	if err := json.Unmarshal(data, &identify); err != nil {
		slog.Warn("invalid identify data", "error", err)
		c.Close()
		return
	}

	claims, err := m.tokens.ValidateAccessToken(identify.Token)
	if err != nil {
		slog.Warn("invalid token in identify", "error", err)
		c.Close()
		return
	}

	guildIDs, err := m.guildsOf(claims.UserID)
	if err != nil {
		slog.Error("loading guilds for identify", "userID", claims.UserID, "error", err)
		c.Close()
		return
	}

	c.UserID = claims.UserID
	c.SessionID = uuid.NewString()
	m.register(c)
	for _, guildID := range guildIDs {
		m.SubscribeToGuild(c.UserID, guildID)
	}

	if guildIDs == nil {
		guildIDs = []string{}
	}
	c.SendEvent(EventReady, ReadyData{
		SessionID: c.SessionID,
		UserID:    c.UserID,
		Guilds:    guildIDs,
	})
}

// handleResume re-registers a session and replays guild events the client
// missed since its last sequence number.
func (m *Manager) handleResume(c *Connection, data json.RawMessage) {
	var resume ResumeData
	if err := json.Unmarshal(data, &resume); err != nil {
		slog.Warn("invalid resume data", "error", err)
		c.SendPayload(GatewayPayload{Op: OpReconnect})
		c.Close()
		return
	}

	claims, err := m.tokens.ValidateAccessToken(resume.Token)
	if err != nil {
		slog.Warn("invalid token in resume", "error", err)
		c.Close()
		return
	}

	guildIDs, err := m.guildsOf(claims.UserID)
	if err != nil {
		slog.Error("loading guilds for resume", "userID", claims.UserID, "error", err)
		c.SendPayload(GatewayPayload{Op: OpReconnect})
		c.Close()
		return
	}

	c.UserID = claims.UserID
	c.SessionID = resume.SessionID
	m.register(c)

	for _, guildID := range guildIDs {
		m.SubscribeToGuild(c.UserID, guildID)

		m.replayMu.RLock()
		rb, ok := m.replayBuffer[guildID]
		var missed []Event
		if ok {
			missed = rb.since(resume.Sequence)
		}
		m.replayMu.RUnlock()

		for _, ev := range missed {
			c.SendEvent(ev.Name, ev.Data)
		}
	}
}

func (m *Manager) guildsOf(userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	return m.members.GetGuildIDsByUser(ctx, userID)
}

func (m *Manager) storeReplayEvent(guildID string, event Event) {
	m.replayMu.Lock()
	defer m.replayMu.Unlock()

	rb, ok := m.replayBuffer[guildID]
	if !ok {
		rb = newRingBuffer(replayBufferSize)
		m.replayBuffer[guildID] = rb
	}
	rb.add(event)
}

type sequencedEvent struct {
	Sequence int64
	Event
}

// ringBuffer is a fixed-size circular buffer of recent events.
type ringBuffer struct {
	events []sequencedEvent
	size   int
	pos    int
	seq    int64
	full   bool
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		events: make([]sequencedEvent, size),
		size:   size,
	}
}

func (rb *ringBuffer) add(event Event) {
	rb.seq++
	rb.events[rb.pos] = sequencedEvent{Sequence: rb.seq, Event: event}
	rb.pos = (rb.pos + 1) % rb.size
	if rb.pos == 0 {
		rb.full = true
	}
}

// since returns the buffered events with a sequence above afterSeq, oldest first.
func (rb *ringBuffer) since(afterSeq int64) []Event {
	count, start := rb.pos, 0
	if rb.full {
		count, start = rb.size, rb.pos
	}

	var result []Event
	for i := 0; i < count; i++ {
		ev := rb.events[(start+i)%rb.size]
		if ev.Sequence > afterSeq {
			result = append(result, ev.Event)
		}
	}
	return result
}
