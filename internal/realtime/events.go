package realtime

// Event names carried on the wire. Every mutation publishes exactly one of these
// after its write commits and its cache prefixes are invalidated.
const (
	EventThreadCreated = "thread.created"
	EventThreadDeleted = "thread.deleted"
	EventReplyCreated  = "reply.created"
	EventReplyDeleted  = "reply.deleted"
	EventLikeToggled   = "like.toggled"
	EventFollowToggled = "follow.toggled"
	EventUserUpdated   = "user.updated"
)

// Event is a single fan-out notification. Data holds the event payload and is
// serialized as-is to every connected client.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Publisher delivers mutation events to connected clients. Services publish on a
// best-effort basis: a failed or dropped delivery is never retried and never fails
// the mutation that produced it.
type Publisher interface {
	Publish(event Event)
}
