package session

// ActionState is the phase of the rep's interaction with the current
// queue item. Exactly one state is active per session; every command
// checks the state before touching the gateway.
type ActionState string

const (
	// StatePending - an item (or an empty queue) is on display, nothing in flight
	StatePending ActionState = "pending"
	// StateAccepting - accept call in flight, commands are blocked
	StateAccepting ActionState = "accepting"
	// StateAwaitingContactConfirm - accepted, waiting for the rep to
	// confirm who to dial (two-stage confirmation only)
	StateAwaitingContactConfirm ActionState = "awaiting_contact_confirm"
	// StateAwaitingDisposition - call placed, disposition form open
	StateAwaitingDisposition ActionState = "awaiting_disposition"
	// StateComposing - email accepted, composer open
	StateComposing ActionState = "composing"
	// StateAwaitingMeetingDisposition - meeting/event accepted, outcome form open
	StateAwaitingMeetingDisposition ActionState = "awaiting_meeting_disposition"
)

// InProgress reports whether an accepted action is still open, meaning
// auto-refresh must not replace the item underneath the rep.
func (s ActionState) InProgress() bool {
	return s != StatePending
}
