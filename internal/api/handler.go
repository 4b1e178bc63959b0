package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/auth"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/gateway"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/session"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/storage"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// Toucher resets a rep's auto-refresh countdown after a manual refresh
type Toucher interface {
	Touch(userID string)
}

// QueueHandler provides the REST command surface for the rep's browser.
// Every mutation goes through the rep's session so state checks and
// validation happen in one place; the socket only carries results back.
type QueueHandler struct {
	sessions *session.Manager
	toucher  Toucher
	gw       gateway.Gateway
	store    storage.Store
	logger   zerolog.Logger
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(sessions *session.Manager, toucher Toucher, gw gateway.Gateway, store storage.Store, logger zerolog.Logger) *QueueHandler {
	return &QueueHandler{
		sessions: sessions,
		toucher:  toucher,
		gw:       gw,
		store:    store,
		logger:   logger.With().Str("component", "queue_api").Logger(),
	}
}

// Refresh handles POST /api/queue/refresh
func (h *QueueHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	s := h.sessions.Get(claims.UserID)

	if err := s.Refresh(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.toucher.Touch(claims.UserID)
	h.writeJSON(w, s.Snapshot())
}

// Snapshot handles GET /api/queue/snapshot
func (h *QueueHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	h.writeJSON(w, h.sessions.Get(claims.UserID).Snapshot())
}

// Accept handles POST /api/queue/accept
func (h *QueueHandler) Accept(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	s := h.sessions.Get(claims.UserID)
	item := s.Snapshot().Item

	if err := s.Accept(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.audit(claims.UserID, item, "accepted", "", "")
	h.writeJSON(w, s.Snapshot())
}

// ConfirmContact handles POST /api/queue/contact/confirm
func (h *QueueHandler) ConfirmContact(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var req struct {
		ContactID   string `json:"contactId"`
		ContactName string `json:"contactName"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s := h.sessions.Get(claims.UserID)
	if err := s.ConfirmContact(r.Context(), req.ContactID, req.ContactName, req.PhoneNumber); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, s.Snapshot())
}

// CancelContactConfirm handles POST /api/queue/contact/cancel
func (h *QueueHandler) CancelContactConfirm(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	s := h.sessions.Get(claims.UserID)

	if err := s.CancelContactConfirm(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, s.Snapshot())
}

// SaveDisposition handles POST /api/queue/disposition
func (h *QueueHandler) SaveDisposition(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var draft types.DispositionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s := h.sessions.Get(claims.UserID)
	item := s.Snapshot().Item

	if err := s.SaveDisposition(r.Context(), draft); err != nil {
		h.writeError(w, err)
		return
	}
	h.audit(claims.UserID, item, "disposition", draft.Disposition, "")
	h.writeJSON(w, s.Snapshot())
}

// CancelDisposition handles POST /api/queue/disposition/cancel
func (h *QueueHandler) CancelDisposition(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	s := h.sessions.Get(claims.UserID)

	if err := s.CancelDisposition(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, s.Snapshot())
}

// Dismiss handles POST /api/queue/dismiss
func (h *QueueHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var draft types.DismissalDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s := h.sessions.Get(claims.UserID)
	item := s.Snapshot().Item

	if err := s.Dismiss(r.Context(), draft); err != nil {
		h.writeError(w, err)
		return
	}
	outcome := "dismissed"
	if draft.Category != types.DismissOther {
		outcome = "snoozed"
	}
	h.audit(claims.UserID, item, outcome, "", string(draft.Category))
	h.writeJSON(w, s.Snapshot())
}

// SendEmail handles POST /api/queue/email/send
func (h *QueueHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var draft types.EmailDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s := h.sessions.Get(claims.UserID)
	item := s.Snapshot().Item

	if err := s.SendEmail(r.Context(), draft); err != nil {
		h.writeError(w, err)
		return
	}
	h.audit(claims.UserID, item, "email_sent", "", "")
	h.writeJSON(w, s.Snapshot())
}

// CompleteEmail handles POST /api/queue/email/complete
func (h *QueueHandler) CompleteEmail(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	s := h.sessions.Get(claims.UserID)
	item := s.Snapshot().Item

	if err := s.CompleteEmail(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.audit(claims.UserID, item, "email_completed", "", "")
	h.writeJSON(w, s.Snapshot())
}

// EmailTemplates handles GET /api/email/templates
func (h *QueueHandler) EmailTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.gw.ListEmailTemplates(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if templates == nil {
		templates = []types.EmailTemplate{}
	}
	h.writeJSON(w, templates)
}

// SaveMeetingDisposition handles POST /api/queue/meeting-disposition
func (h *QueueHandler) SaveMeetingDisposition(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var draft types.MeetingDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s := h.sessions.Get(claims.UserID)
	item := s.Snapshot().Item

	if err := s.SaveMeetingDisposition(r.Context(), draft); err != nil {
		h.writeError(w, err)
		return
	}
	h.audit(claims.UserID, item, "disposition", draft.Disposition, "")
	h.writeJSON(w, s.Snapshot())
}

// Visibility handles POST /api/visibility, the fallback for tabs whose
// socket dropped
func (h *QueueHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.sessions.Get(claims.UserID).SetVisible(req.Visible)
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/history
func (h *QueueHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.store.GetActionHistory(claims.UserID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("action history query failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []storage.ActionRecord{}
	}
	h.writeJSON(w, records)
}

// audit writes a best-effort action record; failures are logged, never
// surfaced
func (h *QueueHandler) audit(userID string, item *types.QueueItem, outcome, disposition, category string) {
	record := storage.ActionRecord{
		UserID:      userID,
		Timestamp:   time.Now().UTC(),
		Outcome:     outcome,
		Disposition: disposition,
		Category:    category,
	}
	if item != nil {
		record.ItemID = item.ID
		record.ActionType = string(item.ActionType)
		record.RecordID, _ = item.PrimaryRecord()
		record.RecordName = item.RecordName()
	}
	if err := h.store.SaveActionRecord(record); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Msg("action audit write failed")
	}
}

func (h *QueueHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps session and gateway failures onto HTTP statuses
func (h *QueueHandler) writeError(w http.ResponseWriter, err error) {
	var ve *session.ValidationError
	if errors.As(err, &ve) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": ve.Message,
			"field": ve.Field,
		})
		return
	}

	if errors.Is(err, session.ErrWrongState) || errors.Is(err, session.ErrNoItem) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		status := http.StatusBadGateway
		if gateway.IsTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Error().Err(err).Msg("gateway call failed")
		http.Error(w, "upstream call failed", status)
		return
	}

	h.logger.Error().Err(err).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
