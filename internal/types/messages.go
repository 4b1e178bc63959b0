package types

import "time"

// Message types pushed to browser clients over the websocket
const (
	MsgSnapshot      = "snapshot"
	MsgDial          = "dial"
	MsgNavigate      = "navigate"
	MsgToast         = "toast"
	MsgAlert         = "alert"
	MsgTitleFlash    = "title_flash"
	MsgContextChange = "context_change"
)

// DialCommand asks the browser to trigger click-to-dial for a number
type DialCommand struct {
	Type        string    `json:"type"` // "dial"
	PhoneNumber string    `json:"phoneNumber"`
	RecordID    string    `json:"recordId,omitempty"`
	RecordName  string    `json:"recordName,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NavigateCommand asks the browser to open a CRM record page
type NavigateCommand struct {
	Type       string `json:"type"`   // "navigate"
	RecordID   string `json:"recordId"`
	ObjectType string `json:"objectType,omitempty"`
	Action     string `json:"action"` // "view" or "new"
}

// ToastCommand surfaces a transient notice in the browser
type ToastCommand struct {
	Type    string `json:"type"`    // "toast"
	Title   string `json:"title"`
	Message string `json:"message"`
	Variant string `json:"variant"` // success | error | warning | info
}

// AlertCommand fires one best-effort notification channel in the browser
type AlertCommand struct {
	Type    string `json:"type"`    // "alert"
	Channel string `json:"channel"` // blink | browser | tone
	Body    string `json:"body,omitempty"`
}

// TitleFlashCommand toggles the page title during an alert cycle
type TitleFlashCommand struct {
	Type  string `json:"type"` // "title_flash"
	Title string `json:"title"`
	Reset bool   `json:"reset,omitempty"`
}

// ContextChange announces that the current deal context moved to a new
// record, so sibling components can refresh their detail views
type ContextChange struct {
	Type       string    `json:"type"` // "context_change"
	RecordID   string    `json:"recordId"`
	ObjectType string    `json:"objectType"`
	UserID     string    `json:"userId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
