package services

// Notice types sent to websocket clients. Notices only say that something
// changed; clients re-read state through the API.
const (
	MsgStatus       = "status_changed"
	MsgEvent        = "event_changed"
	MsgPresentation = "presentation_changed"
	MsgTimer        = "timer_changed"
	MsgReveal       = "reveal_changed"
	MsgConfetti     = "confetti"
	MsgVotes        = "votes_changed"
	MsgGroups       = "groups_changed"
	MsgParticipants = "participants_changed"
)

// Broadcaster defines the interface for broadcasting messages to clients of an event
type Broadcaster interface {
	BroadcastEvent(eventID int64, msgType string, payload interface{})
}

// notifier is embedded by services that emit change notices
type notifier struct {
	broadcaster Broadcaster
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (n *notifier) SetBroadcaster(b Broadcaster) {
	n.broadcaster = b
}

func (n *notifier) notify(eventID int64, msgType string, payload interface{}) {
	if n.broadcaster != nil {
		n.broadcaster.BroadcastEvent(eventID, msgType, payload)
	}
}
