package api

import "context"

// Channel defines the standardized lifecycle interface for command transports
// (local console, web, telegram).
type Channel interface {
	ID() string
	Start(ctx ChannelContext) error
	Stop() error
	Send(session SessionContext, message string) error
}

// ImageChannel is an optional extension of the Channel interface for
// platforms that can display a captured screenshot directly.
type ImageChannel interface {
	Channel
	SendImage(session SessionContext, path string) error
}

// ChannelContext provides the interface for a Channel implementation to
// communicate back with the Gateway core.
type ChannelContext interface {
	MessageResponder
	// OnMessage handles one shell-style command line.
	OnMessage(channelID string, msg *UnifiedMessage)
	// Dispatch runs a structured request and returns its result synchronously.
	Dispatch(ctx context.Context, session SessionContext, req ToolRequest) *Result
	// Catalog lists the registered operations.
	Catalog() []ToolInfo
}

// MessageResponder defines the capabilities for sending responses back to a channel.
type MessageResponder interface {
	SendReply(session SessionContext, content string) error
	SendImage(session SessionContext, path string) error
}

// Dispatcher is the part of the gateway the command handler depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, session SessionContext, req ToolRequest) *Result
	Catalog() []ToolInfo
}

// ToolRequest is a structured invocation coming from a transport.
type ToolRequest struct {
	Tool   string `json:"tool"`
	Params Params `json:"params,omitempty"`
}

// ToolInfo describes one registered operation for introspection.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema,omitempty"`
}

// UnifiedMessage is the standardized command line received from any channel.
type UnifiedMessage struct {
	Session      SessionContext // Contextual information about the source (User, Chat)
	Content      string         // Raw command line
	Raw          any            // Optional storage for the original platform-specific payload object
	InvocationID string         // Groups the log lines of one command
}

// SessionContext encapsulates identity and routing information for a specific
// conversation unit on a specific channel.
type SessionContext struct {
	ChannelID string // Identifier of the channel that originated the session (e.g., "telegram")
	UserID    string // Platform-specific unique identifier for the user
	ChatID    string // Platform-specific identifier for the chat (may match UserID for DMs)
	Username  string // Display name or nickname of the user as provided by the platform
}

// MessageHandler defines the function signature for processing incoming messages.
// It implements the MessageProcessor interface.
type MessageHandler func(*UnifiedMessage)

// OnMessage allows MessageHandler to satisfy the MessageProcessor interface.
func (h MessageHandler) OnMessage(msg *UnifiedMessage) {
	h(msg)
}

// MessageProcessor defines the interface for components that can process incoming messages.
type MessageProcessor interface {
	OnMessage(msg *UnifiedMessage)
}

// ResponderAware defines an interface for components that require a MessageResponder to be injected.
type ResponderAware interface {
	SetResponder(responder MessageResponder)
}

// DispatcherAware defines an interface for components that require a Dispatcher to be injected.
type DispatcherAware interface {
	SetDispatcher(d Dispatcher)
}
