package platform

import (
	"strings"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/session"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// Publisher delivers a message to every connected tab of one rep
type Publisher interface {
	SendToUser(userID string, message any)
}

// Frontend turns session intents into UI commands on the rep's tabs.
// Delivery is best-effort: a rep with no connected tab loses the
// command, and the next snapshot catches the tab up.
type Frontend struct {
	pub    Publisher
	logger zerolog.Logger
}

// NewFrontend creates the UI command adapter
func NewFrontend(pub Publisher, logger zerolog.Logger) *Frontend {
	return &Frontend{pub: pub, logger: logger}
}

// PushSnapshot sends the full view state to the rep's tabs
func (f *Frontend) PushSnapshot(userID string, snap session.Snapshot) {
	f.pub.SendToUser(userID, snap)
}

// Dial asks the browser to place a click-to-dial call. The number is
// normalized so the softphone receives a consistent format.
func (f *Frontend) Dial(userID, phoneNumber, recordID, recordName string) {
	normalized := NormalizePhone(phoneNumber)
	if normalized == "" {
		f.logger.Warn().Str("user_id", userID).Str("phone", phoneNumber).Msg("unusable phone number, dial dropped")
		return
	}
	f.pub.SendToUser(userID, types.DialCommand{
		Type:        types.MsgDial,
		PhoneNumber: normalized,
		RecordID:    recordID,
		RecordName:  recordName,
		Timestamp:   time.Now().UTC(),
	})
	f.logger.Info().Str("user_id", userID).Str("record_id", recordID).Msg("dial command sent")
}

// NavigateToRecord asks the browser to open a record page
func (f *Frontend) NavigateToRecord(userID, recordID, objectType string) {
	f.pub.SendToUser(userID, types.NavigateCommand{
		Type:       types.MsgNavigate,
		RecordID:   recordID,
		ObjectType: objectType,
		Action:     "view",
	})
}

// Toast surfaces a transient notice on the rep's tabs
func (f *Frontend) Toast(userID, title, message, variant string) {
	f.pub.SendToUser(userID, types.ToastCommand{
		Type:    types.MsgToast,
		Title:   title,
		Message: message,
		Variant: variant,
	})
}

// NormalizePhone strips formatting and prefixes ten-digit North
// American numbers with +1. Numbers that keep an explicit country code
// pass through with a bare + prefix. Returns "" when fewer than seven
// digits remain.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) < 7:
		return ""
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && d[0] == '1':
		return "+" + d
	case strings.HasPrefix(strings.TrimSpace(raw), "+"):
		return "+" + d
	default:
		return d
	}
}
