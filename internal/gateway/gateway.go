package gateway

import (
	"context"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
)

// Gateway is the remote procedure surface of the platform backend that
// owns queue scoring, record selection, task creation and email
// delivery. All durable state lives behind it; this service only holds
// view state.
type Gateway interface {
	// FetchNextQueueItem returns the rep's current item with score
	// details, or nil when the queue is empty.
	FetchNextQueueItem(ctx context.Context, userID string) (*types.NextItemResult, error)

	// FetchUpNextItem returns a read-only preview of the item that
	// would follow the given one, or nil when there is none.
	FetchUpNextItem(ctx context.Context, userID, excludeID string) (*types.UpNextItem, error)

	// AcceptItem marks the item in progress and returns a task handle.
	AcceptItem(ctx context.Context, itemID, notes string) (taskID string, err error)

	DismissItem(ctx context.Context, itemID, reason string) error
	SnoozeItem(ctx context.Context, itemID string, category types.DismissalCategory, scheduledAt *time.Time, hours int) error

	SaveDisposition(ctx context.Context, itemID, disposition, notes string) error
	CancelDisposition(ctx context.Context, itemID string) error
	SaveNextSteps(ctx context.Context, itemID string, date *time.Time, notes, leadStatus string) error

	// ResolvePrimaryContact looks up the primary contact of a deal or
	// account record.
	ResolvePrimaryContact(ctx context.Context, recordID string) (*types.ContactResolution, error)
	FetchAccountPhone(ctx context.Context, accountID string) (string, error)
	FetchAccountContacts(ctx context.Context, accountID string) ([]types.ContactOption, error)

	// UpdateTracking persists the contact/phone chosen in the two-stage
	// confirmation as tracking fields, distinct from the original best
	// person/number.
	UpdateTracking(ctx context.Context, itemID, personCalledID, numberDialed string) error

	MarkViewed(ctx context.Context, itemID string) error

	AcceptEmail(ctx context.Context, itemID string) (*EmailAcceptResult, error)
	CompleteEmail(ctx context.Context, itemID string) error
	SendEmail(ctx context.Context, itemID, to, subject, body string) error
	SendEmailWithTemplate(ctx context.Context, itemID, templateID, whoID, whatID, subjectOverride string) error
	ListEmailTemplates(ctx context.Context, search string) ([]types.EmailTemplate, error)

	AcceptEvent(ctx context.Context, itemID string) (*EventAcceptResult, error)
	SaveMeetingDisposition(ctx context.Context, itemID, disposition, notes string) error
}

// EmailAcceptResult points at the record the rep should be taken to
// after accepting an email action
type EmailAcceptResult struct {
	EmailMessageID string `json:"emailMessageId,omitempty"`
	OpportunityID  string `json:"opportunityId,omitempty"`
}

// EventAcceptResult points at the record the rep should be taken to
// after accepting a meeting/event action
type EventAcceptResult struct {
	EventID       string `json:"eventId,omitempty"`
	OpportunityID string `json:"opportunityId,omitempty"`
}
