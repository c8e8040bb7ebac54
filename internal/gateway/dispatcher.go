package gateway

// Dispatcher delivers events to WebSocket clients connected to this instance.
// The concrete Manager implements this interface.
type Dispatcher interface {
	DispatchToGuild(guildID string, event string, data any)
	DispatchToUser(userID string, event string, data any)
	DispatchToGuildExcept(guildID string, exceptUserID string, event string, data any)
	SubscribeToGuild(userID, guildID string)
	UnsubscribeFromGuild(userID, guildID string)
}
