package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"

	"github.com/valyala/fasthttp"
)

// WebhookPayload là body JSON POST tới webhook của người nhận
type WebhookPayload struct {
	ID          string               `json:"id"`
	Type        string               `json:"type"`
	RecipientID string               `json:"recipientId"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Related     *notifmodels.Related `json:"related,omitempty"`
	Timestamp   int64                `json:"timestamp"`
}

// WebhookSender POST thông báo tới URL người nhận cấu hình
type WebhookSender struct {
	client  *fasthttp.Client
	timeout time.Duration
	now     func() time.Time
}

func NewWebhookSender(client *fasthttp.Client, timeout time.Duration) *WebhookSender {
	if client == nil {
		client = &fasthttp.Client{Name: "soug-elwahah-notifier"}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{client: client, timeout: timeout, now: time.Now}
}

func (s *WebhookSender) Send(ctx context.Context, item *notifmodels.QueueItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(WebhookPayload{
		ID:          item.DedupeKey,
		Type:        item.Type,
		RecipientID: item.RecipientID.Hex(),
		Title:       item.Title,
		Message:     item.Message,
		Related:     item.Related,
		Timestamp:   s.now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(item.Address)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return err
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("webhook returned status %d", code)
	}
	return nil
}
