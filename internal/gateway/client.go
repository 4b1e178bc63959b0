package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// Client is an HTTP implementation of Gateway. Every call carries a
// bounded wait; late responses are abandoned by the caller via its own
// state checks.
type Client struct {
	baseURL     string
	callTimeout time.Duration
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewClient creates a new gateway client
func NewClient(baseURL string, callTimeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		callTimeout: callTimeout,
		httpClient: &http.Client{
			Timeout: callTimeout + 2*time.Second,
		},
		logger: logger,
	}
}

func (c *Client) FetchNextQueueItem(ctx context.Context, userID string) (*types.NextItemResult, error) {
	var result types.NextItemResult
	ok, err := c.getJSON(ctx, "fetchNextQueueItem", "/queue/next?userId="+url.QueryEscape(userID), &result)
	if err != nil || !ok {
		return nil, err
	}
	if result.QueueItem == nil {
		return nil, nil
	}
	return &result, nil
}

func (c *Client) FetchUpNextItem(ctx context.Context, userID, excludeID string) (*types.UpNextItem, error) {
	var result struct {
		UpNext *types.UpNextItem `json:"upNext"`
	}
	ok, err := c.getJSON(ctx, "fetchUpNextItem",
		fmt.Sprintf("/queue/upnext?userId=%s&excludeId=%s", url.QueryEscape(userID), url.QueryEscape(excludeID)), &result)
	if err != nil || !ok {
		return nil, err
	}
	return result.UpNext, nil
}

func (c *Client) AcceptItem(ctx context.Context, itemID, notes string) (string, error) {
	req := map[string]string{"notes": notes}
	var result struct {
		TaskID string `json:"taskId"`
	}
	if err := c.postJSON(ctx, "acceptItem", "/queue/"+itemID+"/accept", req, &result); err != nil {
		return "", err
	}
	return result.TaskID, nil
}

func (c *Client) DismissItem(ctx context.Context, itemID, reason string) error {
	req := map[string]string{"reason": reason}
	return c.postJSON(ctx, "dismissItem", "/queue/"+itemID+"/dismiss", req, nil)
}

func (c *Client) SnoozeItem(ctx context.Context, itemID string, category types.DismissalCategory, scheduledAt *time.Time, hours int) error {
	req := map[string]any{
		"category":    category,
		"scheduledAt": scheduledAt,
		"hours":       hours,
	}
	return c.postJSON(ctx, "snoozeItem", "/queue/"+itemID+"/snooze", req, nil)
}

func (c *Client) SaveDisposition(ctx context.Context, itemID, disposition, notes string) error {
	req := map[string]string{"disposition": disposition, "notes": notes}
	return c.postJSON(ctx, "saveDisposition", "/queue/"+itemID+"/disposition", req, nil)
}

func (c *Client) CancelDisposition(ctx context.Context, itemID string) error {
	return c.postJSON(ctx, "cancelDisposition", "/queue/"+itemID+"/disposition/cancel", nil, nil)
}

func (c *Client) SaveNextSteps(ctx context.Context, itemID string, date *time.Time, notes, leadStatus string) error {
	req := map[string]any{
		"nextStepDate": date,
		"nextSteps":    notes,
		"leadStatus":   leadStatus,
	}
	return c.postJSON(ctx, "saveNextSteps", "/queue/"+itemID+"/next-steps", req, nil)
}

func (c *Client) ResolvePrimaryContact(ctx context.Context, recordID string) (*types.ContactResolution, error) {
	var result types.ContactResolution
	ok, err := c.getJSON(ctx, "resolvePrimaryContact", "/records/"+recordID+"/primary-contact", &result)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}

func (c *Client) FetchAccountPhone(ctx context.Context, accountID string) (string, error) {
	var result struct {
		Phone string `json:"phone"`
	}
	ok, err := c.getJSON(ctx, "fetchAccountPhone", "/accounts/"+accountID+"/phone", &result)
	if err != nil || !ok {
		return "", err
	}
	return result.Phone, nil
}

func (c *Client) FetchAccountContacts(ctx context.Context, accountID string) ([]types.ContactOption, error) {
	var result []types.ContactOption
	if _, err := c.getJSON(ctx, "fetchAccountContacts", "/accounts/"+accountID+"/contacts", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) UpdateTracking(ctx context.Context, itemID, personCalledID, numberDialed string) error {
	req := map[string]string{"personCalledId": personCalledID, "numberDialed": numberDialed}
	return c.postJSON(ctx, "updateTracking", "/queue/"+itemID+"/tracking", req, nil)
}

func (c *Client) MarkViewed(ctx context.Context, itemID string) error {
	return c.postJSON(ctx, "markViewed", "/queue/"+itemID+"/viewed", nil, nil)
}

func (c *Client) AcceptEmail(ctx context.Context, itemID string) (*EmailAcceptResult, error) {
	var result EmailAcceptResult
	if err := c.postJSON(ctx, "acceptEmail", "/queue/"+itemID+"/accept-email", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CompleteEmail(ctx context.Context, itemID string) error {
	return c.postJSON(ctx, "completeEmail", "/queue/"+itemID+"/email/complete", nil, nil)
}

func (c *Client) SendEmail(ctx context.Context, itemID, to, subject, body string) error {
	req := map[string]string{"to": to, "subject": subject, "body": body}
	return c.postJSON(ctx, "sendEmail", "/queue/"+itemID+"/email", req, nil)
}

func (c *Client) SendEmailWithTemplate(ctx context.Context, itemID, templateID, whoID, whatID, subjectOverride string) error {
	req := map[string]string{
		"templateId":      templateID,
		"whoId":           whoID,
		"whatId":          whatID,
		"subjectOverride": subjectOverride,
	}
	return c.postJSON(ctx, "sendEmailWithTemplate", "/queue/"+itemID+"/email/template", req, nil)
}

func (c *Client) ListEmailTemplates(ctx context.Context, search string) ([]types.EmailTemplate, error) {
	var result []types.EmailTemplate
	if _, err := c.getJSON(ctx, "listEmailTemplates", "/email/templates?search="+url.QueryEscape(search), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AcceptEvent(ctx context.Context, itemID string) (*EventAcceptResult, error) {
	var result EventAcceptResult
	if err := c.postJSON(ctx, "acceptEvent", "/queue/"+itemID+"/accept-event", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SaveMeetingDisposition(ctx context.Context, itemID, disposition, notes string) error {
	req := map[string]string{"disposition": disposition, "notes": notes}
	return c.postJSON(ctx, "saveMeetingDisposition", "/queue/"+itemID+"/meeting-disposition", req, nil)
}

// getJSON issues a GET and decodes the body into out. Returns false
// without error on 404/204 so callers can treat absence as a valid
// empty result.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, &Error{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return true, nil
}

// postJSON issues a POST with an optional JSON body, decoding the
// response into out when out is non-nil
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Str("op", op).Err(err).Msg("gateway call failed")
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(respBody))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
