package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/gateway"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// ContactResolver computes the best contact tuple for an item
type ContactResolver interface {
	Resolve(ctx context.Context, item *types.QueueItem) types.ContactResolution
}

// Frontend pushes snapshots and UI commands to the rep's browser tabs.
// Implementations are best-effort: a disconnected tab is not an error.
type Frontend interface {
	PushSnapshot(userID string, snap Snapshot)
	Dial(userID, phoneNumber, recordID, recordName string)
	NavigateToRecord(userID, recordID, objectType string)
	Toast(userID, title, message, variant string)
}

// Alerter announces a newly arrived item when the rep is looking away
type Alerter interface {
	NewItem(userID string, item *types.QueueItem)
	Clear(userID string)
}

// ContextPublisher announces deal context changes to sibling services
type ContextPublisher interface {
	PublishContextChange(ctx context.Context, change types.ContextChange)
}

// Options carries the tunables a session needs from config
type Options struct {
	DialDelay       time.Duration
	TwoStageConfirm bool
}

// Snapshot is the full view state pushed to the browser after every
// change. The browser renders it verbatim and holds no logic of its own.
type Snapshot struct {
	Type         string                  `json:"type"`
	State        ActionState             `json:"state"`
	Loading      bool                    `json:"loading"`
	Item         *types.QueueItem        `json:"item,omitempty"`
	Score        *types.ScoreDetails     `json:"score,omitempty"`
	UpNext       *types.UpNextItem       `json:"upNext,omitempty"`
	Resolution   types.ContactResolution `json:"resolution"`
	Contacts     []types.ContactOption   `json:"contacts,omitempty"`
	TaskID       string                  `json:"taskId,omitempty"`
	NotesPrefill string                  `json:"notesPrefill,omitempty"`
	GeneratedAt  time.Time               `json:"generatedAt"`
}

// Session is the per-rep action state machine. All durable state lives
// behind the gateway; the session owns only view state and forgets it
// on restart.
type Session struct {
	userID     string
	gw         gateway.Gateway
	resolver   ContactResolver
	ui         Frontend
	alerter    Alerter
	contextPub ContextPublisher
	opts       Options
	logger     zerolog.Logger

	mu           sync.Mutex
	state        ActionState
	loading      bool
	generation   uint64
	item         *types.QueueItem
	score        types.ScoreDetails
	upNext       *types.UpNextItem
	resolution   types.ContactResolution
	contacts     []types.ContactOption
	taskID       string
	notesPrefill string
	visible      bool
	lastItemID   string
	formTimer    *time.Timer
}

// New creates a session for one rep
func New(userID string, gw gateway.Gateway, resolver ContactResolver, ui Frontend, alerter Alerter, contextPub ContextPublisher, opts Options, logger zerolog.Logger) *Session {
	return &Session{
		userID:     userID,
		gw:         gw,
		resolver:   resolver,
		ui:         ui,
		alerter:    alerter,
		contextPub: contextPub,
		opts:       opts,
		state:      StatePending,
		visible:    true,
		logger:     logger.With().Str("user_id", userID).Logger(),
	}
}

// UserID returns the rep this session belongs to
func (s *Session) UserID() string { return s.userID }

// Busy reports whether auto-refresh should skip this session: a load is
// already in flight or an accepted action is still open.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || s.state.InProgress()
}

// SetVisible records whether any of the rep's tabs is foregrounded.
// Becoming visible clears any running alert cycle.
func (s *Session) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	if visible {
		s.alerter.Clear(s.userID)
	}
}

// Refresh loads the current item, its contact resolution and the
// up-next preview, then pushes a snapshot. Concurrent refreshes are
// safe: each load carries a generation number and a completed load is
// discarded if a later one started meanwhile.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state.InProgress() {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.pushSnapshot()

	result, err := s.gw.FetchNextQueueItem(ctx, s.userID)
	if err != nil {
		s.mu.Lock()
		if gen == s.generation {
			s.loading = false
		}
		s.mu.Unlock()
		s.pushSnapshot()
		s.ui.Toast(s.userID, "Queue unavailable", "Could not load your next action. It will retry shortly.", "error")
		return err
	}

	var (
		resolution types.ContactResolution
		upNext     *types.UpNextItem
	)
	if result != nil {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			resolution = s.resolver.Resolve(ctx, result.QueueItem)
		}()
		go func() {
			defer wg.Done()
			next, upErr := s.gw.FetchUpNextItem(ctx, s.userID, result.QueueItem.ID)
			if upErr != nil {
				s.logger.Warn().Err(upErr).Msg("up next preview unavailable")
				return
			}
			upNext = next
		}()
		wg.Wait()
	}

	s.mu.Lock()
	if gen != s.generation {
		// A later load started while this one was in flight
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("stale load discarded")
		return nil
	}
	s.loading = false
	if result != nil {
		s.item = result.QueueItem
		s.score = result.Score
	} else {
		s.item = nil
		s.score = types.ScoreDetails{}
	}
	s.resolution = resolution
	s.upNext = upNext
	s.contacts = nil
	// Call notes start from the deal description when one exists
	s.notesPrefill = ""
	if s.item != nil && s.item.Opportunity != nil {
		s.notesPrefill = s.item.Opportunity.Description
	}
	newItem := s.item != nil && s.item.ID != s.lastItemID
	if s.item != nil {
		s.lastItemID = s.item.ID
	}
	hidden := !s.visible
	item := s.item
	s.mu.Unlock()

	s.pushSnapshot()

	if newItem {
		s.announceItem(ctx, item, hidden)
	}
	return nil
}

// announceItem handles the side effects of a new item arriving: viewed
// tracking, context-change fan-out, and hidden-tab alerting. All are
// best-effort.
func (s *Session) announceItem(ctx context.Context, item *types.QueueItem, hidden bool) {
	if err := s.gw.MarkViewed(ctx, item.ID); err != nil {
		s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("viewed tracking failed")
	}
	if recordID, objectType := item.PrimaryRecord(); recordID != "" {
		s.contextPub.PublishContextChange(ctx, types.ContextChange{
			Type:       types.MsgContextChange,
			RecordID:   recordID,
			ObjectType: objectType,
			UserID:     s.userID,
			Timestamp:  time.Now().UTC(),
		})
	}
	if hidden {
		s.alerter.NewItem(s.userID, item)
	}
}

// Accept marks the current item in progress and advances to the state
// its action type demands. On gateway failure the session reverts to
// pending and nothing else happens.
func (s *Session) Accept(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return ErrWrongState
	}
	if s.item == nil {
		s.mu.Unlock()
		return ErrNoItem
	}
	item := s.item
	s.state = StateAccepting
	s.mu.Unlock()
	s.pushSnapshot()

	taskID, err := s.gw.AcceptItem(ctx, item.ID, item.Notes)
	if err != nil {
		s.revertToPending("")
		s.toastGatewayError("Accept failed", err)
		return err
	}

	s.mu.Lock()
	s.taskID = taskID
	s.mu.Unlock()

	switch {
	case item.ActionType.IsEmail():
		return s.acceptEmail(ctx, item)
	case item.ActionType.IsEvent():
		return s.acceptEvent(ctx, item)
	case item.ActionType.IsCall() && s.opts.TwoStageConfirm:
		s.enterContactConfirm(ctx, item)
		return nil
	case item.ActionType.IsCall():
		s.proceedToCall(ctx, item, s.currentResolution())
		return nil
	default:
		// Demo, proposal, follow-up: open the record and move straight
		// to the next item, no outcome to collect
		if recordID, objectType := item.PrimaryRecord(); recordID != "" {
			s.ui.NavigateToRecord(s.userID, recordID, objectType)
		}
		s.revertToPending("")
		return s.Refresh(ctx)
	}
}

// enterContactConfirm loads the account's contact picker options and
// waits for the rep to confirm who to dial
func (s *Session) enterContactConfirm(ctx context.Context, item *types.QueueItem) {
	var options []types.ContactOption
	if item.Account != nil {
		opts, err := s.gw.FetchAccountContacts(ctx, item.Account.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("account_id", item.Account.ID).Msg("contact picker options unavailable")
		} else {
			options = opts
		}
	}
	s.mu.Lock()
	s.contacts = options
	s.state = StateAwaitingContactConfirm
	s.mu.Unlock()
	s.pushSnapshot()
}

// ConfirmContact records who the rep chose to dial and proceeds to the
// call. Only valid while the confirmation dialog is open.
func (s *Session) ConfirmContact(ctx context.Context, contactID, contactName, phoneNumber string) error {
	if phoneNumber == "" {
		return &ValidationError{Field: "phoneNumber", Message: "a phone number is required to place the call"}
	}
	s.mu.Lock()
	if s.state != StateAwaitingContactConfirm {
		s.mu.Unlock()
		return ErrWrongState
	}
	item := s.item
	s.resolution = types.ContactResolution{
		ContactID:    contactID,
		ContactName:  contactName,
		ContactPhone: phoneNumber,
		Source:       s.resolution.Source,
	}
	res := s.resolution
	s.mu.Unlock()

	if err := s.gw.UpdateTracking(ctx, item.ID, contactID, phoneNumber); err != nil {
		s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("call tracking update failed")
	}
	s.proceedToCall(ctx, item, res)
	return nil
}

// CancelContactConfirm abandons the confirmation dialog, reverts the
// accept on the backend and returns to pending
func (s *Session) CancelContactConfirm(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAwaitingContactConfirm {
		s.mu.Unlock()
		return ErrWrongState
	}
	item := s.item
	s.mu.Unlock()

	if err := s.gw.CancelDisposition(ctx, item.ID); err != nil {
		s.toastGatewayError("Cancel failed", err)
		return err
	}
	s.revertToPending("")
	s.pushSnapshot()
	return nil
}

// proceedToCall opens the record, issues the dial right away and delays
// the disposition form so the softphone grabs focus first. The form
// appears only if the action is still open on the same item when the
// delay elapses.
func (s *Session) proceedToCall(ctx context.Context, item *types.QueueItem, res types.ContactResolution) {
	recordID, objectType := item.PrimaryRecord()
	if recordID != "" {
		s.ui.NavigateToRecord(s.userID, recordID, objectType)
	}
	if res.ContactPhone != "" {
		s.ui.Dial(s.userID, res.ContactPhone, recordID, item.RecordName())
	} else {
		s.logger.Info().Str("item_id", item.ID).Msg("no number resolved, dial skipped")
	}

	s.mu.Lock()
	if s.formTimer != nil {
		s.formTimer.Stop()
	}
	itemID := item.ID
	s.formTimer = time.AfterFunc(s.opts.DialDelay, func() {
		s.mu.Lock()
		ok := s.state.InProgress() && s.item != nil && s.item.ID == itemID
		if ok {
			s.state = StateAwaitingDisposition
		}
		s.mu.Unlock()
		if ok {
			s.pushSnapshot()
		}
	})
	s.mu.Unlock()
	s.pushSnapshot()
}

// SaveDisposition validates and persists the call outcome, then moves
// on to the next item. Validation failures never reach the gateway.
func (s *Session) SaveDisposition(ctx context.Context, draft types.DispositionDraft) error {
	if draft.Disposition == "" {
		return &ValidationError{Field: "disposition", Message: "select a call outcome"}
	}
	if draft.Disposition == types.DispositionConnectedDM {
		if draft.NextStepDate == nil {
			return &ValidationError{Field: "nextStepDate", Message: "a next step date is required when you reached the decision maker"}
		}
		if strings.TrimSpace(draft.NextStepNotes) == "" {
			return &ValidationError{Field: "nextStepNotes", Message: "next step notes are required when you reached the decision maker"}
		}
	}

	s.mu.Lock()
	if s.state != StateAwaitingDisposition {
		s.mu.Unlock()
		return ErrWrongState
	}
	item := s.item
	s.mu.Unlock()

	if err := s.gw.SaveDisposition(ctx, item.ID, draft.Disposition, draft.Notes); err != nil {
		s.toastGatewayError("Disposition not saved", err)
		return err
	}

	// Next steps ride behind the committed disposition, best-effort
	if draft.NextStepDate != nil || strings.TrimSpace(draft.NextStepNotes) != "" || draft.LeadStatus != "" {
		if err := s.gw.SaveNextSteps(ctx, item.ID, draft.NextStepDate, draft.NextStepNotes, draft.LeadStatus); err != nil {
			s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("next steps save failed")
		}
	}

	s.revertToPending("Disposition saved")
	return s.Refresh(ctx)
}

// CancelDisposition abandons the open form, reverts the accept on the
// backend and reloads. Calling it again in the pending state skips the
// revert and just reloads, so a double-clicked cancel reverts exactly
// once.
func (s *Session) CancelDisposition(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.InProgress() {
		s.mu.Unlock()
		return s.Refresh(ctx)
	}
	item := s.item
	s.mu.Unlock()

	if item != nil {
		if err := s.gw.CancelDisposition(ctx, item.ID); err != nil {
			s.toastGatewayError("Cancel failed", err)
			return err
		}
	}
	s.revertToPending("")
	return s.Refresh(ctx)
}

// Dismiss snoozes or dismisses the current item under one of the
// mutually exclusive categories, then loads the next one
func (s *Session) Dismiss(ctx context.Context, draft types.DismissalDraft) error {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return ErrWrongState
	}
	if s.item == nil {
		s.mu.Unlock()
		return ErrNoItem
	}
	item := s.item
	s.mu.Unlock()

	var err error
	switch draft.Category {
	case types.DismissOther:
		if strings.TrimSpace(draft.Reason) == "" {
			return &ValidationError{Field: "reason", Message: "a reason is required"}
		}
		err = s.gw.DismissItem(ctx, item.ID, draft.Reason)
	case types.DismissCallScheduled:
		if draft.ScheduledAt == nil {
			return &ValidationError{Field: "scheduledAt", Message: "pick when the call is scheduled"}
		}
		err = s.gw.SnoozeItem(ctx, item.ID, draft.Category, draft.ScheduledAt, 0)
	case types.DismissTimeZone:
		err = s.gw.SnoozeItem(ctx, item.ID, draft.Category, nil, types.TimeZoneSnoozeHours)
	default:
		return &ValidationError{Field: "category", Message: "unknown dismissal category"}
	}
	if err != nil {
		s.toastGatewayError("Dismiss failed", err)
		return err
	}

	s.revertToPending("")
	return s.Refresh(ctx)
}

// acceptEmail opens the composer for an email action
func (s *Session) acceptEmail(ctx context.Context, item *types.QueueItem) error {
	result, err := s.gw.AcceptEmail(ctx, item.ID)
	if err != nil {
		s.revertToPending("")
		s.toastGatewayError("Accept failed", err)
		return err
	}
	if result != nil && result.OpportunityID != "" {
		s.ui.NavigateToRecord(s.userID, result.OpportunityID, "Opportunity")
	}
	s.setState(StateComposing)
	s.pushSnapshot()
	return nil
}

// SendEmail sends the composed email, completes the action and moves on
func (s *Session) SendEmail(ctx context.Context, draft types.EmailDraft) error {
	if draft.TemplateID == "" {
		if draft.To == "" {
			return &ValidationError{Field: "to", Message: "a recipient is required"}
		}
		if draft.Subject == "" {
			return &ValidationError{Field: "subject", Message: "a subject is required"}
		}
	}

	s.mu.Lock()
	if s.state != StateComposing {
		s.mu.Unlock()
		return ErrWrongState
	}
	item := s.item
	res := s.resolution
	s.mu.Unlock()

	var err error
	if draft.TemplateID != "" {
		recordID, _ := item.PrimaryRecord()
		err = s.gw.SendEmailWithTemplate(ctx, item.ID, draft.TemplateID, res.ContactID, recordID, draft.SubjectOverride)
	} else {
		err = s.gw.SendEmail(ctx, item.ID, draft.To, draft.Subject, draft.Body)
	}
	if err != nil {
		s.toastGatewayError("Email not sent", err)
		return err
	}

	if err := s.gw.CompleteEmail(ctx, item.ID); err != nil {
		s.toastGatewayError("Email sent but not marked complete", err)
		return err
	}

	s.revertToPending("Email sent")
	return s.Refresh(ctx)
}

// CompleteEmail finishes an email action the rep sent outside the
// composer
func (s *Session) CompleteEmail(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateComposing {
		s.mu.Unlock()
		return ErrWrongState
	}
	item := s.item
	s.mu.Unlock()

	if err := s.gw.CompleteEmail(ctx, item.ID); err != nil {
		s.toastGatewayError("Email not marked complete", err)
		return err
	}
	s.revertToPending("")
	return s.Refresh(ctx)
}

// acceptEvent opens the meeting outcome flow for a meeting/event action
func (s *Session) acceptEvent(ctx context.Context, item *types.QueueItem) error {
	result, err := s.gw.AcceptEvent(ctx, item.ID)
	if err != nil {
		s.revertToPending("")
		s.toastGatewayError("Accept failed", err)
		return err
	}
	if result != nil && result.EventID != "" {
		s.ui.NavigateToRecord(s.userID, result.EventID, "Event")
	}
	s.setState(StateAwaitingMeetingDisposition)
	s.pushSnapshot()
	return nil
}

// SaveMeetingDisposition records whether the meeting happened
func (s *Session) SaveMeetingDisposition(ctx context.Context, draft types.MeetingDraft) error {
	if draft.Disposition != types.MeetingAttended && draft.Disposition != types.MeetingMissed {
		return &ValidationError{Field: "disposition", Message: "select whether the meeting was attended or missed"}
	}

	s.mu.Lock()
	if s.state != StateAwaitingMeetingDisposition {
		s.mu.Unlock()
		return ErrWrongState
	}
	item := s.item
	s.mu.Unlock()

	if err := s.gw.SaveMeetingDisposition(ctx, item.ID, draft.Disposition, draft.Notes); err != nil {
		s.toastGatewayError("Outcome not saved", err)
		return err
	}
	s.revertToPending("Meeting outcome saved")
	return s.Refresh(ctx)
}

// Close stops the session's timers
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.formTimer != nil {
		s.formTimer.Stop()
		s.formTimer = nil
	}
}

// currentResolution returns a copy of the resolved contact tuple
func (s *Session) currentResolution() types.ContactResolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

// setState transitions the state under the lock
func (s *Session) setState(state ActionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// revertToPending returns to the stable pending state, disarming any
// pending form reveal. A non-empty toast title surfaces a success
// notice.
func (s *Session) revertToPending(toastTitle string) {
	s.mu.Lock()
	s.state = StatePending
	s.taskID = ""
	s.contacts = nil
	if s.formTimer != nil {
		s.formTimer.Stop()
		s.formTimer = nil
	}
	s.mu.Unlock()
	if toastTitle != "" {
		s.ui.Toast(s.userID, toastTitle, "", "success")
	}
}

// toastGatewayError surfaces a failed or timed-out gateway call as a
// transient notice
func (s *Session) toastGatewayError(title string, err error) {
	msg := "The request failed. Please try again."
	if gateway.IsTimeout(err) {
		msg = "The request timed out. It may still complete in the background."
	}
	s.logger.Error().Err(err).Msg(title)
	s.ui.Toast(s.userID, title, msg, "error")
}

// pushSnapshot sends the current view state to the rep's tabs
func (s *Session) pushSnapshot() {
	s.mu.Lock()
	snap := Snapshot{
		Type:         types.MsgSnapshot,
		State:        s.state,
		Loading:      s.loading,
		Item:         s.item,
		UpNext:       s.upNext,
		Resolution:   s.resolution,
		Contacts:     s.contacts,
		TaskID:       s.taskID,
		NotesPrefill: s.notesPrefill,
		GeneratedAt:  time.Now().UTC(),
	}
	if s.item != nil {
		score := s.score
		snap.Score = &score
	}
	s.mu.Unlock()
	s.ui.PushSnapshot(s.userID, snap)
}

// Snapshot returns the current view state, for the HTTP read endpoint
// and for tabs that connect mid-session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Type:         types.MsgSnapshot,
		State:        s.state,
		Loading:      s.loading,
		Item:         s.item,
		UpNext:       s.upNext,
		Resolution:   s.resolution,
		Contacts:     s.contacts,
		TaskID:       s.taskID,
		NotesPrefill: s.notesPrefill,
		GeneratedAt:  time.Now().UTC(),
	}
	if s.item != nil {
		score := s.score
		snap.Score = &score
	}
	return snap
}
