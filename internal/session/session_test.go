package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/gateway"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	nextResults []*types.NextItemResult
	nextErr     error
	blockFetch  chan struct{} // when set, the first fetch waits on it

	acceptErr error
	saveErr   error
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// FetchNextQueueItem serves nextResults by call order so an overlapping
// fetch gets a deterministic result even when an earlier call is blocked
func (f *fakeGateway) FetchNextQueueItem(_ context.Context, _ string) (*types.NextItemResult, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls["fetchNext"]++
	idx := f.calls["fetchNext"] - 1
	block := f.blockFetch
	f.blockFetch = nil
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.nextErr != nil {
		return nil, f.nextErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx >= len(f.nextResults) {
		return nil, nil
	}
	return f.nextResults[idx], nil
}

func (f *fakeGateway) FetchUpNextItem(_ context.Context, _, _ string) (*types.UpNextItem, error) {
	f.record("fetchUpNext")
	return nil, nil
}

func (f *fakeGateway) AcceptItem(_ context.Context, _, _ string) (string, error) {
	f.record("accept")
	if f.acceptErr != nil {
		return "", f.acceptErr
	}
	return "task-1", nil
}

func (f *fakeGateway) DismissItem(_ context.Context, _, _ string) error {
	f.record("dismiss")
	return nil
}

func (f *fakeGateway) SnoozeItem(_ context.Context, _ string, _ types.DismissalCategory, _ *time.Time, hours int) error {
	f.record("snooze")
	f.mu.Lock()
	f.calls["snoozeHours"] = hours
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) SaveDisposition(_ context.Context, _, _, _ string) error {
	f.record("saveDisposition")
	return f.saveErr
}

func (f *fakeGateway) CancelDisposition(_ context.Context, _ string) error {
	f.record("cancelDisposition")
	return nil
}

func (f *fakeGateway) SaveNextSteps(_ context.Context, _ string, _ *time.Time, _, _ string) error {
	f.record("saveNextSteps")
	return nil
}

func (f *fakeGateway) ResolvePrimaryContact(_ context.Context, _ string) (*types.ContactResolution, error) {
	f.record("resolvePrimaryContact")
	return nil, nil
}

func (f *fakeGateway) FetchAccountPhone(_ context.Context, _ string) (string, error) {
	f.record("fetchAccountPhone")
	return "", nil
}

func (f *fakeGateway) FetchAccountContacts(_ context.Context, _ string) ([]types.ContactOption, error) {
	f.record("fetchAccountContacts")
	return []types.ContactOption{{ContactID: "c-2", Name: "Alt Contact", Phone: "555-0142"}}, nil
}

func (f *fakeGateway) UpdateTracking(_ context.Context, _, _, _ string) error {
	f.record("updateTracking")
	return nil
}

func (f *fakeGateway) MarkViewed(_ context.Context, _ string) error {
	f.record("markViewed")
	return nil
}

func (f *fakeGateway) AcceptEmail(_ context.Context, _ string) (*gateway.EmailAcceptResult, error) {
	f.record("acceptEmail")
	return &gateway.EmailAcceptResult{EmailMessageID: "em-1", OpportunityID: "opp-1"}, nil
}

func (f *fakeGateway) CompleteEmail(_ context.Context, _ string) error {
	f.record("completeEmail")
	return nil
}

func (f *fakeGateway) SendEmail(_ context.Context, _, _, _, _ string) error {
	f.record("sendEmail")
	return nil
}

func (f *fakeGateway) SendEmailWithTemplate(_ context.Context, _, _, _, _, _ string) error {
	f.record("sendEmailWithTemplate")
	return nil
}

func (f *fakeGateway) ListEmailTemplates(_ context.Context, _ string) ([]types.EmailTemplate, error) {
	f.record("listEmailTemplates")
	return nil, nil
}

func (f *fakeGateway) AcceptEvent(_ context.Context, _ string) (*gateway.EventAcceptResult, error) {
	f.record("acceptEvent")
	return &gateway.EventAcceptResult{EventID: "ev-1", OpportunityID: "opp-1"}, nil
}

func (f *fakeGateway) SaveMeetingDisposition(_ context.Context, _, _, _ string) error {
	f.record("saveMeetingDisposition")
	return nil
}

type fakeFrontend struct {
	mu        sync.Mutex
	snapshots []Snapshot
	dials     []string
	navs      []string
	toasts    []string
	events    []string // snapshots and dials in arrival order
}

func (f *fakeFrontend) PushSnapshot(_ string, snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	f.events = append(f.events, "snapshot:"+string(snap.State))
}

func (f *fakeFrontend) Dial(_, phoneNumber, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials = append(f.dials, phoneNumber)
	f.events = append(f.events, "dial")
}

func (f *fakeFrontend) NavigateToRecord(_, recordID, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navs = append(f.navs, recordID)
}

func (f *fakeFrontend) Toast(_, title, _, variant string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, variant+":"+title)
}

func (f *fakeFrontend) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dials)
}

func (f *fakeFrontend) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fakeAlerter struct {
	mu     sync.Mutex
	fired  []string
	clears int
}

func (f *fakeAlerter) NewItem(_ string, item *types.QueueItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, item.ID)
}

func (f *fakeAlerter) Clear(_ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []types.ContextChange
}

func (f *fakePublisher) PublishContextChange(_ context.Context, change types.ContextChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
}

type staticResolver struct {
	res types.ContactResolution
}

func (r staticResolver) Resolve(_ context.Context, _ *types.QueueItem) types.ContactResolution {
	return r.res
}

func callItem(id string) *types.NextItemResult {
	return &types.NextItemResult{
		QueueItem: &types.QueueItem{
			ID:         id,
			ActionType: types.ActionCall,
			Status:     types.StatusPending,
			Account:    &types.Account{ID: "acct-1", Name: "Acme"},
		},
		Score: types.ScoreDetails{OriginalScore: 50, AdjustedScore: 62.5},
	}
}

type fixture struct {
	session  *Session
	gw       *fakeGateway
	ui       *fakeFrontend
	alerter  *fakeAlerter
	contexts *fakePublisher
}

func newFixture(gw *fakeGateway, opts Options) *fixture {
	ui := &fakeFrontend{}
	alerter := &fakeAlerter{}
	contexts := &fakePublisher{}
	resolver := staticResolver{res: types.ContactResolution{
		ContactID:    "c-1",
		ContactName:  "Best Person",
		ContactPhone: "555-0100",
		Source:       types.SourceBestContact,
	}}
	s := New("user-1", gw, resolver, ui, alerter, contexts, opts, zerolog.Nop())
	return &fixture{session: s, gw: gw, ui: ui, alerter: alerter, contexts: contexts}
}

// waitForDispositionForm blocks until the delayed form reveal fires
func waitForDispositionForm(t *testing.T, fx *fixture) {
	t.Helper()
	require.Eventually(t, func() bool {
		return fx.session.Snapshot().State == StateAwaitingDisposition
	}, time.Second, time.Millisecond)
}

func TestAcceptCallThenDisposition(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1"), callItem("qi-2")}}
	fx := newFixture(gw, Options{DialDelay: 5 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))

	assert.Equal(t, 1, fx.ui.dialCount(), "the dial goes out with the accept")
	assert.Equal(t, "555-0100", fx.ui.dials[0])
	assert.Contains(t, fx.ui.navs, "acct-1")

	waitForDispositionForm(t, fx)
	assert.Equal(t, "task-1", fx.session.Snapshot().TaskID)

	require.NoError(t, fx.session.SaveDisposition(ctx, types.DispositionDraft{
		Disposition: types.DispositionLeftVoicemail,
	}))
	assert.Equal(t, 1, gw.count("saveDisposition"))
	assert.Zero(t, gw.count("saveNextSteps"))

	snap := fx.session.Snapshot()
	assert.Equal(t, StatePending, snap.State)
	assert.Equal(t, "qi-2", snap.Item.ID)
}

func TestDialPrecedesDispositionForm(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{DialDelay: 5 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	waitForDispositionForm(t, fx)

	events := fx.ui.eventLog()
	dialIdx := slices.Index(events, "dial")
	formIdx := slices.Index(events, "snapshot:"+string(StateAwaitingDisposition))
	require.GreaterOrEqual(t, dialIdx, 0)
	require.GreaterOrEqual(t, formIdx, 0)
	assert.Less(t, dialIdx, formIdx, "the dial must be issued before the disposition form shows")
}

func TestSaveDispositionValidatesBeforeGateway(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{DialDelay: time.Millisecond})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	waitForDispositionForm(t, fx)

	err := fx.session.SaveDisposition(ctx, types.DispositionDraft{})
	assert.True(t, IsValidation(err))

	err = fx.session.SaveDisposition(ctx, types.DispositionDraft{Disposition: types.DispositionConnectedDM})
	assert.True(t, IsValidation(err), "decision maker outcome needs a next step date")

	date := time.Now().Add(48 * time.Hour)
	err = fx.session.SaveDisposition(ctx, types.DispositionDraft{
		Disposition:  types.DispositionConnectedDM,
		NextStepDate: &date,
	})
	assert.True(t, IsValidation(err), "decision maker outcome needs next step notes")

	err = fx.session.SaveDisposition(ctx, types.DispositionDraft{
		Disposition:   types.DispositionConnectedDM,
		NextStepDate:  &date,
		NextStepNotes: "   ",
	})
	assert.True(t, IsValidation(err), "whitespace-only notes are no notes")

	assert.Zero(t, gw.count("saveDisposition"), "validation failures must not reach the gateway")
	assert.Equal(t, StateAwaitingDisposition, fx.session.Snapshot().State)
}

func TestNextStepsSavedOnlyAfterDisposition(t *testing.T) {
	gw := &fakeGateway{
		nextResults: []*types.NextItemResult{callItem("qi-1")},
		saveErr:     errors.New("row locked"),
	}
	fx := newFixture(gw, Options{DialDelay: time.Millisecond})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	waitForDispositionForm(t, fx)

	date := time.Now().Add(48 * time.Hour)
	draft := types.DispositionDraft{
		Disposition:   types.DispositionConnectedDM,
		NextStepDate:  &date,
		NextStepNotes: "send pricing",
	}

	require.Error(t, fx.session.SaveDisposition(ctx, draft))
	assert.Zero(t, gw.count("saveNextSteps"), "a failed disposition save must leave no partial update behind")

	gw.saveErr = nil
	require.NoError(t, fx.session.SaveDisposition(ctx, draft))
	assert.Equal(t, 2, gw.count("saveDisposition"))
	assert.Equal(t, 1, gw.count("saveNextSteps"))
}

func TestCancelDispositionIsIdempotent(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{DialDelay: time.Hour})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))

	require.NoError(t, fx.session.CancelDisposition(ctx))
	fetches := gw.count("fetchNext")
	require.NoError(t, fx.session.CancelDisposition(ctx))

	assert.Equal(t, 1, gw.count("cancelDisposition"), "a double-clicked cancel must revert exactly once")
	assert.Equal(t, fetches+1, gw.count("fetchNext"), "the repeated cancel still reloads")
	assert.Equal(t, StatePending, fx.session.Snapshot().State)
}

func TestFormDoesNotAppearAfterCancel(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{DialDelay: 30 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	require.NoError(t, fx.session.CancelDisposition(ctx))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, StatePending, fx.session.Snapshot().State, "cancel must disarm the pending form reveal")
}

func TestAcceptOtherActionMovesStraightOn(t *testing.T) {
	demo := &types.NextItemResult{QueueItem: &types.QueueItem{
		ID:         "qi-1",
		ActionType: types.ActionDemo,
		Account:    &types.Account{ID: "acct-1", Name: "Acme"},
	}}
	gw := &fakeGateway{nextResults: []*types.NextItemResult{demo, callItem("qi-2")}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))

	assert.Contains(t, fx.ui.navs, "acct-1")
	assert.Zero(t, fx.ui.dialCount())
	assert.Equal(t, 2, gw.count("fetchNext"), "a non-call action reloads the queue on accept")

	snap := fx.session.Snapshot()
	assert.Equal(t, StatePending, snap.State, "no disposition form for a non-call action")
	assert.Equal(t, "qi-2", snap.Item.ID)
}

func TestNotesPrefillFollowsDealDescription(t *testing.T) {
	withDeal := callItem("qi-1")
	withDeal.QueueItem.Opportunity = &types.Opportunity{
		ID:          "opp-1",
		Name:        "Acme Payroll",
		StageName:   "Attempted",
		Description: "switching from ADP next quarter",
	}
	gw := &fakeGateway{nextResults: []*types.NextItemResult{withDeal, callItem("qi-2")}}
	fx := newFixture(gw, Options{DialDelay: time.Hour})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	assert.Equal(t, "switching from ADP next quarter", fx.session.Snapshot().NotesPrefill)

	require.NoError(t, fx.session.Refresh(ctx))
	assert.Empty(t, fx.session.Snapshot().NotesPrefill, "an item without a deal clears the prefill")
}

func TestRefreshSkippedWhileActionOpen(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{DialDelay: time.Hour})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	fetches := gw.count("fetchNext")

	require.NoError(t, fx.session.Refresh(ctx))
	assert.Equal(t, fetches, gw.count("fetchNext"), "refresh must not replace an item mid-action")
	assert.True(t, fx.session.Busy())
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	block := make(chan struct{})
	gw := &fakeGateway{
		nextResults: []*types.NextItemResult{callItem("qi-old"), callItem("qi-new")},
		blockFetch:  block,
	}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- fx.session.Refresh(ctx) }()

	// Wait until the first load is holding the fetch open
	require.Eventually(t, func() bool { return gw.count("fetchNext") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, fx.session.Refresh(ctx))
	assert.Equal(t, "qi-new", fx.session.Snapshot().Item.ID)

	close(block)
	require.NoError(t, <-done)

	assert.Equal(t, "qi-new", fx.session.Snapshot().Item.ID, "the older load must not overwrite the newer one")
}

func TestDismissCategories(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{
		callItem("qi-1"), callItem("qi-2"), callItem("qi-3"), callItem("qi-4"),
	}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()
	require.NoError(t, fx.session.Refresh(ctx))

	err := fx.session.Dismiss(ctx, types.DismissalDraft{Category: types.DismissOther})
	assert.True(t, IsValidation(err), "other requires a reason")

	err = fx.session.Dismiss(ctx, types.DismissalDraft{Category: types.DismissCallScheduled})
	assert.True(t, IsValidation(err), "call scheduled requires a date")

	err = fx.session.Dismiss(ctx, types.DismissalDraft{Category: "Weather"})
	assert.True(t, IsValidation(err))

	err = fx.session.Dismiss(ctx, types.DismissalDraft{Category: types.DismissOther, Reason: "   "})
	assert.True(t, IsValidation(err), "a whitespace-only reason is no reason")
	assert.Zero(t, gw.count("dismiss"), "rejected dismissals must not reach the gateway")

	require.NoError(t, fx.session.Dismiss(ctx, types.DismissalDraft{Category: types.DismissOther, Reason: "duplicate"}))
	assert.Equal(t, 1, gw.count("dismiss"))

	when := time.Now().Add(24 * time.Hour)
	require.NoError(t, fx.session.Dismiss(ctx, types.DismissalDraft{Category: types.DismissCallScheduled, ScheduledAt: &when}))

	require.NoError(t, fx.session.Dismiss(ctx, types.DismissalDraft{Category: types.DismissTimeZone}))
	assert.Equal(t, 2, gw.count("snooze"))
	assert.Equal(t, types.TimeZoneSnoozeHours, gw.count("snoozeHours"))
}

func TestAcceptFailureRevertsToPending(t *testing.T) {
	gw := &fakeGateway{
		nextResults: []*types.NextItemResult{callItem("qi-1")},
		acceptErr:   errors.New("locked"),
	}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	err := fx.session.Accept(ctx)
	require.Error(t, err)

	snap := fx.session.Snapshot()
	assert.Equal(t, StatePending, snap.State)
	assert.Equal(t, "qi-1", snap.Item.ID, "the item stays on display after a failed accept")
	assert.Contains(t, fx.ui.toasts, "error:Accept failed")
}

func TestTwoStageContactConfirm(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{DialDelay: 5 * time.Millisecond, TwoStageConfirm: true})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))

	snap := fx.session.Snapshot()
	require.Equal(t, StateAwaitingContactConfirm, snap.State)
	assert.NotEmpty(t, snap.Contacts, "picker options come from the account's contacts")
	assert.Zero(t, fx.ui.dialCount(), "no dial before the rep confirms")

	err := fx.session.ConfirmContact(ctx, "c-2", "Alt Contact", "")
	assert.True(t, IsValidation(err))

	require.NoError(t, fx.session.ConfirmContact(ctx, "c-2", "Alt Contact", "555-0142"))
	assert.Equal(t, 1, gw.count("updateTracking"))

	assert.Equal(t, 1, fx.ui.dialCount())
	assert.Equal(t, "555-0142", fx.ui.dials[0], "the confirmed number wins over the resolved one")
	waitForDispositionForm(t, fx)
}

func TestCancelContactConfirmRevertsAccept(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{TwoStageConfirm: true})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	require.NoError(t, fx.session.CancelContactConfirm(ctx))

	assert.Equal(t, 1, gw.count("cancelDisposition"))
	assert.Equal(t, StatePending, fx.session.Snapshot().State)
}

func TestHiddenTabAlerting(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1"), callItem("qi-2")}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	fx.session.SetVisible(false)
	require.NoError(t, fx.session.Refresh(ctx))
	assert.Equal(t, []string{"qi-1"}, fx.alerter.fired)

	fx.session.SetVisible(true)
	assert.Equal(t, 1, fx.alerter.clears)

	// Visible tab: a new item arrives silently
	require.NoError(t, fx.session.Refresh(ctx))
	assert.Equal(t, []string{"qi-1"}, fx.alerter.fired)
}

func TestNewItemPublishesContextChange(t *testing.T) {
	gw := &fakeGateway{nextResults: []*types.NextItemResult{callItem("qi-1")}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.Len(t, fx.contexts.changes, 1)
	assert.Equal(t, "acct-1", fx.contexts.changes[0].RecordID)
	assert.Equal(t, "Account", fx.contexts.changes[0].ObjectType)
	assert.Equal(t, 1, gw.count("markViewed"))

	// Queue drained: no further announcement
	require.NoError(t, fx.session.Refresh(ctx))
	assert.Len(t, fx.contexts.changes, 1)
}

func TestEmailFlow(t *testing.T) {
	item := &types.NextItemResult{QueueItem: &types.QueueItem{
		ID:          "qi-1",
		ActionType:  types.ActionEmail,
		Opportunity: &types.Opportunity{ID: "opp-1", Name: "Acme Deal", StageName: "Negotiation"},
	}}
	gw := &fakeGateway{nextResults: []*types.NextItemResult{item}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))

	assert.Equal(t, StateComposing, fx.session.Snapshot().State)
	assert.Contains(t, fx.ui.navs, "opp-1")

	err := fx.session.SendEmail(ctx, types.EmailDraft{Subject: "no recipient"})
	assert.True(t, IsValidation(err))

	require.NoError(t, fx.session.SendEmail(ctx, types.EmailDraft{
		To:      "dm@acme.example",
		Subject: "Following up",
		Body:    "Hi",
	}))
	assert.Equal(t, 1, gw.count("sendEmail"))
	assert.Equal(t, 1, gw.count("completeEmail"))
	assert.Equal(t, StatePending, fx.session.Snapshot().State)
}

func TestEmailTemplateSend(t *testing.T) {
	item := &types.NextItemResult{QueueItem: &types.QueueItem{
		ID:          "qi-1",
		ActionType:  types.ActionEmail,
		Opportunity: &types.Opportunity{ID: "opp-1", Name: "Acme Deal"},
	}}
	gw := &fakeGateway{nextResults: []*types.NextItemResult{item}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))
	require.NoError(t, fx.session.SendEmail(ctx, types.EmailDraft{TemplateID: "tmpl-1"}))

	assert.Equal(t, 1, gw.count("sendEmailWithTemplate"))
	assert.Zero(t, gw.count("sendEmail"))
}

func TestMeetingFlow(t *testing.T) {
	item := &types.NextItemResult{QueueItem: &types.QueueItem{
		ID:          "qi-1",
		ActionType:  types.ActionMeeting,
		Opportunity: &types.Opportunity{ID: "opp-1", Name: "Acme Deal"},
	}}
	gw := &fakeGateway{nextResults: []*types.NextItemResult{item}}
	fx := newFixture(gw, Options{})
	ctx := context.Background()

	require.NoError(t, fx.session.Refresh(ctx))
	require.NoError(t, fx.session.Accept(ctx))

	assert.Equal(t, StateAwaitingMeetingDisposition, fx.session.Snapshot().State)
	assert.Contains(t, fx.ui.navs, "ev-1")

	err := fx.session.SaveMeetingDisposition(ctx, types.MeetingDraft{Disposition: "Maybe"})
	assert.True(t, IsValidation(err))

	require.NoError(t, fx.session.SaveMeetingDisposition(ctx, types.MeetingDraft{Disposition: types.MeetingAttended}))
	assert.Equal(t, 1, gw.count("saveMeetingDisposition"))
	assert.Equal(t, StatePending, fx.session.Snapshot().State)
}

func TestManagerReusesSessions(t *testing.T) {
	gw := &fakeGateway{}
	m := NewManager(gw, staticResolver{}, &fakeFrontend{}, &fakeAlerter{}, &fakePublisher{}, Options{}, zerolog.Nop())

	a := m.Get("user-1")
	b := m.Get("user-1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Count())

	_, ok := m.Lookup("user-2")
	assert.False(t, ok)

	m.Remove("user-1")
	assert.Zero(t, m.Count())
}
