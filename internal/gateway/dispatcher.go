package gateway

// Dispatcher is the interface used by services to push events to connected
// WebSocket clients. The concrete Manager implements this interface.
type Dispatcher interface {
	DispatchToChannel(channelID int64, event string, data any)
	DispatchToChannelExcept(channelID, exceptUserID int64, event string, data any)
	DispatchToUser(userID int64, event string, data any)
	DispatchToAll(event string, data any)
	SubscribeToChannel(userID, channelID int64)
	UnsubscribeFromChannel(userID, channelID int64)
	// DropChannel forgets every subscription and buffered event of a deleted channel.
	DropChannel(channelID int64)
	// DisconnectUser closes the user's connection after their session ends.
	DisconnectUser(userID int64)
}
