package resolver

import (
	"context"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// ContactLookup is the subset of gateway.Gateway needed by the Resolver
type ContactLookup interface {
	ResolvePrimaryContact(ctx context.Context, recordID string) (*types.ContactResolution, error)
	FetchAccountPhone(ctx context.Context, accountID string) (string, error)
}

// Resolver computes the best person and phone number to contact for a
// queue item through a priority-ordered fallback chain. Resolution
// never fails: remote sub-call errors degrade to the next fallback and
// the worst case is an empty tuple.
type Resolver struct {
	lookup ContactLookup
	logger zerolog.Logger
}

// New creates a new Resolver
func New(lookup ContactLookup, logger zerolog.Logger) *Resolver {
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve returns the best available contact tuple for the item.
// Priority order, first match wins:
//  1. the item's explicit best-person/best-number pair
//  2. early-stage deal: the deal's primary contact (covers the
//     best-number-absent fallback)
//  3. later-stage deal: the deal's primary contact, best-number ignored
//  4. lead: lead phone, falling back to mobile
//  5. bare account: account primary contact, then account-level phone
//
// The item snapshot is never mutated.
func (r *Resolver) Resolve(ctx context.Context, item *types.QueueItem) types.ContactResolution {
	if item == nil {
		return types.ContactResolution{Source: types.SourceNone}
	}

	if item.BestPersonToCall != nil && item.BestNumberToCall != "" {
		best := item.BestPersonToCall
		return types.ContactResolution{
			ContactID:    best.ID,
			ContactName:  best.Name,
			ContactEmail: best.Email,
			ContactPhone: item.BestNumberToCall,
			Source:       types.SourceBestContact,
		}
	}

	if item.Opportunity != nil {
		if res := r.primaryContact(ctx, item.Opportunity.ID); res != nil {
			res.Source = types.SourceDealPrimary
			return *res
		}
		// Early-stage deal with a known best person but no number and
		// no reachable primary contact: surface the person anyway so
		// the rep at least knows who to look for.
		if item.Opportunity.EarlyStage() && item.BestPersonToCall != nil {
			best := item.BestPersonToCall
			return types.ContactResolution{
				ContactID:    best.ID,
				ContactName:  best.Name,
				ContactEmail: best.Email,
				ContactPhone: best.Phone,
				Source:       types.SourceBestContact,
			}
		}
	}

	if item.Lead != nil {
		phone := item.Lead.Phone
		if phone == "" {
			phone = item.Lead.MobilePhone
		}
		return types.ContactResolution{
			ContactID:    item.Lead.ID,
			ContactName:  item.Lead.Name,
			ContactEmail: item.Lead.Email,
			ContactPhone: phone,
			Source:       types.SourceLeadPhone,
		}
	}

	if item.Opportunity == nil && item.Account != nil {
		if res := r.primaryContact(ctx, item.Account.ID); res != nil {
			res.Source = types.SourceAccountPrimary
			return *res
		}
		if phone, err := r.lookup.FetchAccountPhone(ctx, item.Account.ID); err == nil && phone != "" {
			return types.ContactResolution{
				ContactPhone: phone,
				Source:       types.SourceAccountPhone,
			}
		} else if err != nil {
			r.logger.Debug().Err(err).Str("account_id", item.Account.ID).Msg("account phone lookup failed")
		}
	}

	return types.ContactResolution{Source: types.SourceNone}
}

// primaryContact performs the remote primary-contact lookup, treating
// errors and empty results the same way: move on to the next fallback
func (r *Resolver) primaryContact(ctx context.Context, recordID string) *types.ContactResolution {
	res, err := r.lookup.ResolvePrimaryContact(ctx, recordID)
	if err != nil {
		r.logger.Debug().Err(err).Str("record_id", recordID).Msg("primary contact lookup failed")
		return nil
	}
	if res == nil || res.Empty() {
		return nil
	}
	return res
}
