package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/notification/channels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakePrefs struct {
	pref *notifmodels.Preference
	err  error
}

func (f *fakePrefs) GetPreference(_ context.Context, userID primitive.ObjectID) (*notifmodels.Preference, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.pref == nil {
		return &notifmodels.Preference{UserID: userID}, nil
	}
	return f.pref, nil
}

// memQueue là outbox trong bộ nhớ, trùng dedupeKey thì bỏ qua
type memQueue struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*notifmodels.QueueItem
}

func newMemQueue() *memQueue {
	return &memQueue{items: map[primitive.ObjectID]*notifmodels.QueueItem{}}
}

func (q *memQueue) Enqueue(_ context.Context, item *notifmodels.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range q.items {
		if v.DedupeKey == item.DedupeKey {
			return nil
		}
	}
	cp := *item
	q.items[item.ID] = &cp
	return nil
}

func (q *memQueue) FindPending(_ context.Context, now int64, limit int) ([]notifmodels.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []notifmodels.QueueItem
	for _, v := range q.items {
		if v.Status == notifmodels.QueuePending && (v.NextRetryAt == nil || *v.NextRetryAt <= now) {
			out = append(out, *v)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *memQueue) Claim(_ context.Context, id primitive.ObjectID, now int64) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.items[id]
	if !ok || v.Status != notifmodels.QueuePending {
		return false, nil
	}
	v.Status = notifmodels.QueueProcessing
	v.UpdatedAt = now
	return true, nil
}

func (q *memQueue) Complete(_ context.Context, id primitive.ObjectID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.items, id)
	return nil
}

func (q *memQueue) ScheduleRetry(_ context.Context, id primitive.ObjectID, retryCount int, nextRetryAt int64, errMsg string, now int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	v := q.items[id]
	v.Status = notifmodels.QueuePending
	v.RetryCount = retryCount
	v.NextRetryAt = &nextRetryAt
	v.Error = errMsg
	v.UpdatedAt = now
	return nil
}

func (q *memQueue) MarkFailed(_ context.Context, id primitive.ObjectID, retryCount int, errMsg string, now int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	v := q.items[id]
	v.Status = notifmodels.QueueFailed
	v.RetryCount = retryCount
	v.Error = errMsg
	v.UpdatedAt = now
	return nil
}

func (q *memQueue) ResetStuck(_ context.Context, staleBefore int64, now int64) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for _, v := range q.items {
		if v.Status == notifmodels.QueueProcessing && v.UpdatedAt < staleBefore {
			v.Status = notifmodels.QueuePending
			v.NextRetryAt = nil
			v.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (q *memQueue) CleanupFailed(_ context.Context, before int64) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for id, v := range q.items {
		if v.Status == notifmodels.QueueFailed && v.UpdatedAt < before {
			delete(q.items, id)
			n++
		}
	}
	return n, nil
}

func (q *memQueue) all() []notifmodels.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []notifmodels.QueueItem
	for _, v := range q.items {
		out = append(out, *v)
	}
	return out
}

type memHistory struct {
	mu   sync.Mutex
	rows []notifmodels.History
}

func (h *memHistory) Record(_ context.Context, r *notifmodels.History) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rows = append(h.rows, *r)
	return nil
}

type stubSender struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, *notifmodels.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func TestBatch_SkipsActorAndZero(t *testing.T) {
	actor := primitive.NewObjectID()
	other := primitive.NewObjectID()

	var b Batch
	b.Add(actor, Message{RecipientID: actor, Type: TypeOrderStatus})
	b.Add(actor, Message{RecipientID: primitive.NilObjectID, Type: TypeOrderStatus})
	b.Add(actor, Message{RecipientID: other, Type: TypeOrderStatus})
	require.Len(t, b.Messages(), 1)
	assert.Equal(t, other, b.Messages()[0].RecipientID)

	b.Reset()
	assert.Empty(t, b.Messages())
}

func TestDispatcher_ChannelsFromPreference(t *testing.T) {
	uid := primitive.NewObjectID()
	q := newMemQueue()
	d := NewDispatcher(&fakePrefs{pref: &notifmodels.Preference{
		UserID:         uid,
		Email:          "a@example.com",
		EmailEnabled:   true,
		WebhookURL:     "http://hook.local/x",
		WebhookEnabled: false,
	}}, q, 0)

	d.Notify(context.Background(), Message{RecipientID: uid, Type: TypeNewOrder, Title: "t", DedupeKey: "order:1:new"})

	items := q.all()
	require.Len(t, items, 2)
	channelsSeen := map[string]string{}
	for _, it := range items {
		channelsSeen[it.Channel] = it.Address
		assert.Equal(t, 3, it.MaxRetries)
		assert.Equal(t, notifmodels.QueuePending, it.Status)
		assert.True(t, strings.HasPrefix(it.DedupeKey, "order:1:new:"))
	}
	assert.Equal(t, "a@example.com", channelsSeen[notifmodels.ChannelEmail])
	assert.Contains(t, channelsSeen, notifmodels.ChannelInApp)

	// cùng sự kiện gửi lại không tạo item mới
	d.Notify(context.Background(), Message{RecipientID: uid, Type: TypeNewOrder, Title: "t", DedupeKey: "order:1:new"})
	assert.Len(t, q.all(), 2)
}

func TestDispatcher_PreferenceErrorFallsBackToInApp(t *testing.T) {
	q := newMemQueue()
	d := NewDispatcher(&fakePrefs{err: errors.New("db down")}, q, 3)
	d.Notify(context.Background(), Message{RecipientID: primitive.NewObjectID(), Type: TypeOrderStatus})

	items := q.all()
	require.Len(t, items, 1)
	assert.Equal(t, notifmodels.ChannelInApp, items[0].Channel)
}

func TestRetryBackoff_Doubles(t *testing.T) {
	assert.Equal(t, int64(2000), RetryBackoff(1))
	assert.Equal(t, int64(4000), RetryBackoff(2))
	assert.Equal(t, int64(8000), RetryBackoff(3))
	assert.Equal(t, int64(1000), RetryBackoff(-1))
}

func newTestProcessor(q *memQueue, h *memHistory, s channels.Sender, clock *time.Time) *Processor {
	p := NewProcessor(q, h, map[string]channels.Sender{notifmodels.ChannelInApp: s}, ProcessorConfig{RatePerSecond: 1000})
	p.now = func() time.Time { return *clock }
	return p
}

func TestProcessor_SuccessDeletesItem(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := newMemQueue()
	h := &memHistory{}
	s := &stubSender{}
	require.NoError(t, q.Enqueue(context.Background(), &notifmodels.QueueItem{
		ID: primitive.NewObjectID(), DedupeKey: "k", Channel: notifmodels.ChannelInApp,
		Status: notifmodels.QueuePending, MaxRetries: 3,
	}))

	sent, err := newTestProcessor(q, h, s, &clock).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Empty(t, q.all())
	require.Len(t, h.rows, 1)
	assert.Equal(t, "sent", h.rows[0].Status)
	assert.NotNil(t, h.rows[0].SentAt)
}

func TestProcessor_RetriesThenFails(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := newMemQueue()
	h := &memHistory{}
	s := &stubSender{err: errors.New("smtp refused")}
	id := primitive.NewObjectID()
	require.NoError(t, q.Enqueue(context.Background(), &notifmodels.QueueItem{
		ID: id, DedupeKey: "k", Channel: notifmodels.ChannelInApp,
		Status: notifmodels.QueuePending, MaxRetries: 3,
	}))
	p := newTestProcessor(q, h, s, &clock)
	ctx := context.Background()

	_, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	item := q.all()[0]
	assert.Equal(t, 1, item.RetryCount)
	assert.Equal(t, notifmodels.QueuePending, item.Status)
	require.NotNil(t, item.NextRetryAt)
	assert.Equal(t, clock.UnixMilli()+2000, *item.NextRetryAt)

	// chưa tới hạn retry thì không gửi lại
	_, _ = p.ProcessBatch(ctx)
	assert.Equal(t, 1, s.calls)

	clock = clock.Add(2 * time.Second)
	_, _ = p.ProcessBatch(ctx)
	item = q.all()[0]
	assert.Equal(t, 2, item.RetryCount)
	assert.Equal(t, clock.UnixMilli()+4000, *item.NextRetryAt)

	clock = clock.Add(4 * time.Second)
	_, _ = p.ProcessBatch(ctx)
	item = q.all()[0]
	assert.Equal(t, 3, item.RetryCount)
	assert.Equal(t, notifmodels.QueueFailed, item.Status)
	assert.Equal(t, "smtp refused", item.Error)

	clock = clock.Add(time.Hour)
	_, _ = p.ProcessBatch(ctx)
	assert.Equal(t, 3, s.calls, "item failed không được gửi lại")
	assert.Len(t, h.rows, 3)
}

func TestProcessor_UnknownChannelCountsAsFailure(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := newMemQueue()
	require.NoError(t, q.Enqueue(context.Background(), &notifmodels.QueueItem{
		ID: primitive.NewObjectID(), DedupeKey: "k", Channel: "sms",
		Status: notifmodels.QueuePending, MaxRetries: 1,
	}))
	_, err := newTestProcessor(q, &memHistory{}, &stubSender{}, &clock).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notifmodels.QueueFailed, q.all()[0].Status)
}

func TestProcessor_Cleanup(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := newMemQueue()
	stuck := primitive.NewObjectID()
	oldFailed := primitive.NewObjectID()
	q.items[stuck] = &notifmodels.QueueItem{ID: stuck, Status: notifmodels.QueueProcessing, UpdatedAt: clock.Add(-10 * time.Minute).UnixMilli()}
	q.items[oldFailed] = &notifmodels.QueueItem{ID: oldFailed, Status: notifmodels.QueueFailed, UpdatedAt: clock.Add(-8 * 24 * time.Hour).UnixMilli()}

	newTestProcessor(q, &memHistory{}, &stubSender{}, &clock).Cleanup(context.Background())

	items := q.all()
	require.Len(t, items, 1)
	assert.Equal(t, stuck, items[0].ID)
	assert.Equal(t, notifmodels.QueuePending, items[0].Status)
}
