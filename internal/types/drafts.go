package types

import "time"

// Call disposition outcome codes
const (
	DispositionConnectedDM   = "Connected - DM"
	DispositionConnectedGK   = "Connected - GK"
	DispositionLeftVoicemail = "Attempted - Left Voicemail"
	DispositionNoVoicemail   = "Attempted - No Voicemail"
	DispositionInvalidNumber = "Invalid Number"
	DispositionNotInterested = "Not Interested"
)

// CallDispositionOptions returns the selectable call outcome codes
func CallDispositionOptions() []string {
	return []string{
		DispositionConnectedDM,
		DispositionConnectedGK,
		DispositionLeftVoicemail,
		DispositionNoVoicemail,
		DispositionInvalidNumber,
		DispositionNotInterested,
	}
}

// Meeting disposition outcome codes
const (
	MeetingAttended = "Attended"
	MeetingMissed   = "Missed"
)

// DispositionDraft is the transient call disposition form state. It
// exists only while the form is open and is discarded on save or
// cancel, never partially persisted.
type DispositionDraft struct {
	Disposition   string     `json:"disposition"`
	Notes         string     `json:"notes,omitempty"`
	NextStepDate  *time.Time `json:"nextStepDate,omitempty"`
	NextStepNotes string     `json:"nextStepNotes,omitempty"`
	LeadStatus    string     `json:"leadStatus,omitempty"`
}

// DismissalCategory is one of the mutually exclusive dismissal reasons
type DismissalCategory string

const (
	DismissOther         DismissalCategory = "Other"
	DismissCallScheduled DismissalCategory = "Call Scheduled"
	DismissTimeZone      DismissalCategory = "Time Zone"
)

// TimeZoneSnoozeHours is the fixed snooze offset for the Time Zone category
const TimeZoneSnoozeHours = 3

// DismissalDraft is the transient dismissal form state, same
// open/discard lifecycle as DispositionDraft
type DismissalDraft struct {
	Category    DismissalCategory `json:"category"`
	Reason      string            `json:"reason,omitempty"`
	ScheduledAt *time.Time        `json:"scheduledAt,omitempty"`
	SnoozeHours int               `json:"snoozeHours,omitempty"`
}

// EmailDraft is the transient inline composer state for email actions
type EmailDraft struct {
	To              string `json:"to,omitempty"`
	Subject         string `json:"subject,omitempty"`
	Body            string `json:"body,omitempty"`
	TemplateID      string `json:"templateId,omitempty"`
	SubjectOverride string `json:"subjectOverride,omitempty"`
}

// MeetingDraft is the transient meeting disposition form state
type MeetingDraft struct {
	Disposition string `json:"disposition"`
	Notes       string `json:"notes,omitempty"`
}
