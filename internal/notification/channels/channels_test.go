package channels

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/gomail.v2"
)

type memInbox struct {
	got []notifmodels.Notification
}

func (m *memInbox) Insert(_ context.Context, n *notifmodels.Notification) error {
	m.got = append(m.got, *n)
	return nil
}

func TestInAppSender(t *testing.T) {
	inbox := &memInbox{}
	uid := primitive.NewObjectID()
	err := NewInAppSender(inbox).Send(context.Background(), &notifmodels.QueueItem{
		RecipientID: uid,
		Type:        "order_status",
		Title:       "Đơn hàng",
		Message:     "Đơn hàng đã được xác nhận",
		Related:     &notifmodels.Related{Kind: notifmodels.RelatedOrder, ID: "abc"},
	})
	require.NoError(t, err)
	require.Len(t, inbox.got, 1)
	assert.Equal(t, uid, inbox.got[0].RecipientID)
	assert.False(t, inbox.got[0].IsRead)
	assert.Equal(t, "abc", inbox.got[0].Related.ID)
}

type fakeDialer struct {
	sent []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return nil
}

func TestEmailSender(t *testing.T) {
	d := &fakeDialer{}
	s := NewEmailSenderWithDialer(SMTPConfig{Host: "smtp.local", FromEmail: "noreply@example.com", FromName: "Shop"}, d)
	item := &notifmodels.QueueItem{Address: "c@example.com", Title: "Giao trễ", Message: "<b>trễ</b>"}

	require.NoError(t, s.Send(context.Background(), item))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"c@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Giao trễ"}, d.sent[0].GetHeader("Subject"))

	unconfigured := NewEmailSenderWithDialer(SMTPConfig{}, d)
	assert.Error(t, unconfigured.Send(context.Background(), item))
}

func startWebhookServer(t *testing.T, status int, got chan<- WebhookPayload) *fasthttp.Client {
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		var p WebhookPayload
		if err := json.Unmarshal(ctx.PostBody(), &p); err == nil {
			got <- p
		}
		ctx.SetStatusCode(status)
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func TestWebhookSender_Success(t *testing.T) {
	got := make(chan WebhookPayload, 1)
	s := NewWebhookSender(startWebhookServer(t, fasthttp.StatusOK, got), time.Second)
	uid := primitive.NewObjectID()

	err := s.Send(context.Background(), &notifmodels.QueueItem{
		DedupeKey: "k1", RecipientID: uid, Address: "http://hook.local/notify", Type: "late_delivery", Title: "t",
	})
	require.NoError(t, err)
	p := <-got
	assert.Equal(t, "late_delivery", p.Type)
	assert.Equal(t, uid.Hex(), p.RecipientID)
	assert.Equal(t, "k1", p.ID)
}

func TestWebhookSender_Non2xxIsError(t *testing.T) {
	got := make(chan WebhookPayload, 1)
	s := NewWebhookSender(startWebhookServer(t, fasthttp.StatusBadGateway, got), time.Second)
	err := s.Send(context.Background(), &notifmodels.QueueItem{Address: "http://hook.local/notify"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
