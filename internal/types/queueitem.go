package types

import (
	"strings"
	"time"
)

// ActionType represents the kind of next best action recommended to a rep
type ActionType string

const (
	ActionCall     ActionType = "Call"
	ActionEmail    ActionType = "Email"
	ActionMeeting  ActionType = "Meeting"
	ActionEvent    ActionType = "Event"
	ActionDemo     ActionType = "Demo"
	ActionProposal ActionType = "Proposal"
	ActionFollowUp ActionType = "Follow_Up"

	// Payroll-specific call variants, treated as calls everywhere
	ActionPayrollOpportunityCall ActionType = "Payroll Opportunity Call"
	ActionPayrollProspectingCall ActionType = "Payroll Prospecting Call"
)

// IsCall reports whether the action requires dialing a phone number
func (a ActionType) IsCall() bool {
	return strings.Contains(strings.ToLower(string(a)), "call")
}

// IsEmail reports whether the action is an email action
func (a ActionType) IsEmail() bool {
	return strings.Contains(strings.ToLower(string(a)), "email")
}

// IsEvent reports whether the action is a meeting/event action
func (a ActionType) IsEvent() bool {
	return a == ActionEvent || a == ActionMeeting
}

// ItemStatus represents the lifecycle status of a queue item
type ItemStatus string

const (
	StatusPending    ItemStatus = "Pending"
	StatusInProgress ItemStatus = "In Progress"
	StatusAccepted   ItemStatus = "Accepted"
	StatusDismissed  ItemStatus = "Dismissed"
	StatusSnoozed    ItemStatus = "Snoozed"
)

// Contact is a person reachable by phone or email
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// Opportunity is the deal record a queue item may be linked to
type Opportunity struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	StageName        string     `json:"stageName"`
	Description      string     `json:"description,omitempty"`
	PrimaryContactID string     `json:"primaryContactId,omitempty"`
	CurrentPayroll   string     `json:"currentPayroll,omitempty"`
	TimeZone         string     `json:"timeZone,omitempty"`
	CloseDate        *time.Time `json:"closeDate,omitempty"`
	LastCallAt       *time.Time `json:"lastCallAt,omitempty"`
}

// EarlyStage reports whether the deal is still in an early stage where
// the queue item's pre-computed best contact takes precedence over the
// deal's primary contact.
func (o *Opportunity) EarlyStage() bool {
	if o == nil {
		return false
	}
	return o.StageName == "New Opportunity" || o.StageName == "Attempted"
}

// Account is the company record a queue item may be linked to
type Account struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
	EmployeeCount int    `json:"employeeCount,omitempty"`
}

// Lead is the unqualified prospect record a queue item may be linked to
type Lead struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
	Status      string `json:"status,omitempty"`
	Source      string `json:"source,omitempty"`
}

// QueueItem is one recommended next action for a rep. It links to at
// most one of Lead, Opportunity, Account (priority in that order) and
// carries the pre-computed best contact and number to call.
type QueueItem struct {
	ID         string     `json:"id"`
	ActionType ActionType `json:"actionType"`
	Status     ItemStatus `json:"status"`
	Subject    string     `json:"subject,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CallScript string     `json:"callScript,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	CloseDate  *time.Time `json:"closeDate,omitempty"`

	Lead        *Lead        `json:"lead,omitempty"`
	Opportunity *Opportunity `json:"opportunity,omitempty"`
	Account     *Account     `json:"account,omitempty"`

	BestPersonToCall *Contact `json:"bestPersonToCall,omitempty"`
	BestNumberToCall string   `json:"bestNumberToCall,omitempty"`

	// Tracking fields written by the two-stage contact confirmation,
	// distinct from the original best person/number
	PersonCalledID string `json:"personCalledId,omitempty"`
	NumberDialed   string `json:"numberDialed,omitempty"`
}

// PrimaryRecord returns the id and object type of the record the item
// is anchored to: Lead, else Opportunity, else Account.
func (q *QueueItem) PrimaryRecord() (recordID, objectType string) {
	switch {
	case q == nil:
		return "", ""
	case q.Lead != nil:
		return q.Lead.ID, "Lead"
	case q.Opportunity != nil:
		return q.Opportunity.ID, "Opportunity"
	case q.Account != nil:
		return q.Account.ID, "Account"
	}
	return "", ""
}

// RecordName returns the display name of the primary record
func (q *QueueItem) RecordName() string {
	switch {
	case q == nil:
		return ""
	case q.Lead != nil:
		return q.Lead.Name
	case q.Opportunity != nil:
		return q.Opportunity.Name
	case q.Account != nil:
		return q.Account.Name
	}
	return ""
}

// ScoreDetails carries the priority score and the multiplier flags that
// produced the adjustment
type ScoreDetails struct {
	OriginalScore      float64 `json:"originalScore"`
	AdjustedScore      float64 `json:"adjustedScore"`
	WebUsageMultiplier float64 `json:"webUsageMultiplier,omitempty"`
	BestTimeMultiplier float64 `json:"bestTimeMultiplier,omitempty"`
	WebUsageApplied    bool    `json:"webUsageApplied"`
	BestTimeApplied    bool    `json:"bestTimeApplied"`
}

// NextItemResult is the gateway response for a next-item fetch
type NextItemResult struct {
	QueueItem *QueueItem   `json:"queueItem"`
	Score     ScoreDetails `json:"score"`
}

// UpNextItem is a read-only preview of the item that would follow the
// current one. Display only, never mutated.
type UpNextItem struct {
	ID            string     `json:"id"`
	ActionType    ActionType `json:"actionType"`
	Subject       string     `json:"subject,omitempty"`
	RecordName    string     `json:"recordName,omitempty"`
	LeadID        string     `json:"leadId,omitempty"`
	OpportunityID string     `json:"opportunityId,omitempty"`
	AccountID     string     `json:"accountId,omitempty"`
}

// ContactOption is one selectable entry in the contact confirmation picker
type ContactOption struct {
	ContactID   string `json:"contactId"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
	Title       string `json:"title,omitempty"`
}

// EmailTemplate is a selectable email template
type EmailTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject,omitempty"`
}
