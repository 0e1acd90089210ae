package domain

import "encoding/json"

// UserID is the application-level identity assigned by the authenticator.
// One user may hold several live connections at once.
type UserID int64

// Envelope is the outer wire frame. On the inbound side Data carries a
// second JSON document encoded as a string; outbound messages are encoded
// in a single pass and never use this shape.
type Envelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Frame is a fully decoded inbound message, both envelope layers parsed.
type Frame struct {
	Type string
	Data json.RawMessage
}

// Outbound is a gateway-to-client message, serialized once.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Inbound is a client message enriched with the sender's identity,
// as handed to the processor.
type Inbound struct {
	Type string
	Data json.RawMessage
	ID   UserID
}

// RegRequest is the decoded payload of a "reg" frame.
type RegRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegResponse is the registration acknowledgment payload, sent on both
// success (Error=false, Index=assigned id) and failure (Error=true, Index=0).
type RegResponse struct {
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
	Index     UserID `json:"index"`
	Name      string `json:"name"`
}

// Connection is one accepted transport session with its gateway-side state:
// a liveness flag driven by the heartbeat protocol and an optional user
// identity set once at registration.
type Connection interface {
	ID() string
	UserID() (UserID, bool)
	// Bind sets the user identity. It reports false if the connection
	// already carries one; a bound connection never rebinds.
	Bind(id UserID) bool
	Alive() bool
	SetAlive(alive bool)
	Send(data []byte) error
	Ping() error
	// Terminate drops the transport without a close handshake.
	Terminate() error
	Close() error
}

// Registry tracks every accepted connection and the buckets of connections
// bound to each user.
type Registry interface {
	Track(conn Connection)
	Forget(conn Connection)
	Bind(id UserID, conn Connection)
	Unbind(id UserID, conn Connection)
	ConnectionsFor(id UserID) []Connection
	AllConnections() []Connection
	Stats() (users, connections int)
}

// Authenticator turns registration credentials into a user identity.
type Authenticator interface {
	Verify(req RegRequest) (UserID, error)
}

// Processor consumes enriched messages from registered connections. It
// receives a SendToClient at construction and may push at any time.
type Processor interface {
	Process(msg Inbound)
}

// MessageHandler consumes raw inbound frames from a connection.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

// SendToClient dispatches a message to the connections of the listed users,
// or to every accepted connection when no ids are given.
type SendToClient func(msg Outbound, users ...UserID)
