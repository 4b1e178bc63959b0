package types

// ResolutionSource tags which step of the fallback chain produced a
// contact resolution
type ResolutionSource string

const (
	SourceBestContact    ResolutionSource = "best_contact"
	SourceDealPrimary    ResolutionSource = "deal_primary"
	SourceLeadPhone      ResolutionSource = "lead_phone"
	SourceAccountPrimary ResolutionSource = "account_primary"
	SourceAccountPhone   ResolutionSource = "account_phone"
	SourceNone           ResolutionSource = "none"
)

// ContactResolution is the best available person and phone number to
// contact for a queue item. Derived, never persisted; an empty
// resolution is a valid result, not an error.
type ContactResolution struct {
	ContactID    string           `json:"contactId,omitempty"`
	ContactName  string           `json:"contactName,omitempty"`
	ContactEmail string           `json:"contactEmail,omitempty"`
	ContactPhone string           `json:"contactPhone,omitempty"`
	Source       ResolutionSource `json:"source"`
}

// Empty reports whether the resolver exhausted its fallback chain
// without finding anything
func (r ContactResolution) Empty() bool {
	return r.ContactID == "" && r.ContactName == "" && r.ContactEmail == "" && r.ContactPhone == ""
}
