package notification

import (
	"context"
	"fmt"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification/channels"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// QueueStore là outbox mà Processor đọc và cập nhật
type QueueStore interface {
	FindPending(ctx context.Context, now int64, limit int) ([]notifmodels.QueueItem, error)
	Claim(ctx context.Context, id primitive.ObjectID, now int64) (bool, error)
	Complete(ctx context.Context, id primitive.ObjectID) error
	ScheduleRetry(ctx context.Context, id primitive.ObjectID, retryCount int, nextRetryAt int64, errMsg string, now int64) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, retryCount int, errMsg string, now int64) error
	ResetStuck(ctx context.Context, staleBefore int64, now int64) (int64, error)
	CleanupFailed(ctx context.Context, before int64) (int64, error)
}

// HistoryRecorder ghi lịch sử gửi
type HistoryRecorder interface {
	Record(ctx context.Context, h *notifmodels.History) error
}

// ProcessorConfig là tham số chạy của Processor
type ProcessorConfig struct {
	Interval      time.Duration // chu kỳ quét outbox
	BatchSize     int
	RatePerSecond float64 // giới hạn số lần gửi mỗi giây trên toàn processor
	StaleAfter    time.Duration
	FailedTTL     time.Duration
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 20
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Minute
	}
	if c.FailedTTL <= 0 {
		c.FailedTTL = 7 * 24 * time.Hour
	}
	return c
}

// Processor lấy item từ outbox và gửi qua kênh tương ứng, retry với backoff mũ
type Processor struct {
	queue   QueueStore
	history HistoryRecorder
	senders map[string]channels.Sender
	limiter *rate.Limiter
	cfg     ProcessorConfig
	now     func() time.Time
}

// NewProcessor tạo Processor; senders map theo channel (in_app, email, webhook)
func NewProcessor(queue QueueStore, history HistoryRecorder, senders map[string]channels.Sender, cfg ProcessorConfig) *Processor {
	cfg = cfg.withDefaults()
	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Processor{
		queue:   queue,
		history: history,
		senders: senders,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		cfg:     cfg,
		now:     time.Now,
	}
}

// RetryBackoff trả về độ trễ (ms) trước lần thử thứ retryCount: 2^retryCount giây
func RetryBackoff(retryCount int) int64 {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 16 {
		retryCount = 16
	}
	return int64(1<<uint(retryCount)) * 1000
}

// handleRetryOrFail tăng retryCount; chưa hết lượt thì hẹn lần thử sau, hết lượt thì đánh dấu failed
func (p *Processor) handleRetryOrFail(ctx context.Context, item *notifmodels.QueueItem, sendErr error) error {
	log := logger.GetAppLogger()
	now := p.now().UnixMilli()

	item.RetryCount++
	if item.RetryCount < item.MaxRetries {
		next := now + RetryBackoff(item.RetryCount)
		item.Status = notifmodels.QueuePending
		item.NextRetryAt = &next
		if err := p.queue.ScheduleRetry(ctx, item.ID, item.RetryCount, next, sendErr.Error(), now); err != nil {
			log.WithError(err).WithField("queueItemId", item.ID.Hex()).Error("📦 [NOTIFY] Failed to update queue item for retry")
			return fmt.Errorf("failed to update queue item for retry: %w", err)
		}
		return sendErr
	}

	item.Status = notifmodels.QueueFailed
	if err := p.queue.MarkFailed(ctx, item.ID, item.RetryCount, sendErr.Error(), now); err != nil {
		log.WithError(err).WithField("queueItemId", item.ID.Hex()).Error("📦 [NOTIFY] Failed to mark queue item as failed")
		return fmt.Errorf("failed to mark queue item as failed: %w", err)
	}
	return fmt.Errorf("max retries exceeded: %w", sendErr)
}

// ProcessItem gửi một item đã được claim và ghi lịch sử
func (p *Processor) ProcessItem(ctx context.Context, item *notifmodels.QueueItem) error {
	log := logger.GetAppLogger()

	sender, ok := p.senders[item.Channel]
	if !ok {
		return p.handleRetryOrFail(ctx, item, fmt.Errorf("unsupported channel: %s", item.Channel))
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	h := &notifmodels.History{
		ID:          primitive.NewObjectID(),
		QueueItemID: item.ID,
		Channel:     item.Channel,
		RecipientID: item.RecipientID,
		Address:     item.Address,
		Type:        item.Type,
		RetryCount:  item.RetryCount,
		CreatedAt:   p.now().UnixMilli(),
	}

	sendErr := sender.Send(ctx, item)
	if sendErr != nil {
		h.Status = "failed"
		h.Error = sendErr.Error()
	} else {
		h.Status = "sent"
		sentAt := p.now().UnixMilli()
		h.SentAt = &sentAt
	}

	if err := p.history.Record(ctx, h); err != nil {
		log.WithError(err).WithField("historyId", h.ID.Hex()).Warn("📦 [NOTIFY] Failed to save history")
	}

	if sendErr != nil {
		return p.handleRetryOrFail(ctx, item, sendErr)
	}
	if err := p.queue.Complete(ctx, item.ID); err != nil {
		log.WithError(err).WithField("queueItemId", item.ID.Hex()).Warn("📦 [NOTIFY] Failed to delete completed queue item")
	}
	return nil
}

// ProcessBatch claim và gửi một lô item tới hạn; trả về số item gửi thành công
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	items, err := p.queue.FindPending(ctx, p.now().UnixMilli(), p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range items {
		item := &items[i]
		claimed, err := p.queue.Claim(ctx, item.ID, p.now().UnixMilli())
		if err != nil || !claimed {
			continue
		}
		item.Status = notifmodels.QueueProcessing
		if err := p.ProcessItem(ctx, item); err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			logger.GetAppLogger().WithError(err).WithFields(logrus.Fields{
				"queueItemId": item.ID.Hex(),
				"channel":     item.Channel,
				"retryCount":  item.RetryCount,
			}).Warn("📦 [NOTIFY] Gửi thông báo thất bại")
			continue
		}
		sent++
	}
	return sent, nil
}

// Cleanup trả item kẹt ở processing về pending và xóa item failed quá hạn
func (p *Processor) Cleanup(ctx context.Context) {
	log := logger.GetAppLogger()
	now := p.now()

	reset, err := p.queue.ResetStuck(ctx, now.Add(-p.cfg.StaleAfter).UnixMilli(), now.UnixMilli())
	if err != nil {
		log.WithError(err).Error("📦 [CLEANUP] Failed to reset stuck queue items")
	} else if reset > 0 {
		log.WithField("count", reset).Warn("📦 [CLEANUP] Item processing quá lâu, reset về pending")
	}

	if _, err := p.queue.CleanupFailed(ctx, now.Add(-p.cfg.FailedTTL).UnixMilli()); err != nil {
		log.WithError(err).Error("📦 [CLEANUP] Failed to cleanup old failed items")
	}
}

// StartCleanupJob chạy Cleanup mỗi phút cho tới khi ctx bị hủy
func (p *Processor) StartCleanupJob(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							logger.GetAppLogger().WithField("panic", r).Error("📦 [CLEANUP] Panic khi cleanup")
						}
					}()
					p.Cleanup(ctx)
				}()
			}
		}
	}()
}

// Start chạy vòng xử lý outbox cho tới khi ctx bị hủy
func (p *Processor) Start(ctx context.Context) error {
	log := logger.GetAppLogger()
	log.WithField("interval", p.cfg.Interval.String()).Info("📦 [NOTIFY] Starting notification processor")

	p.StartCleanupJob(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("📦 [NOTIFY] Notification processor stopped")
			return nil
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithField("panic", r).Error("📦 [NOTIFY] Processor panic")
					}
				}()
				if _, err := p.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
					log.WithError(err).Error("📦 [NOTIFY] Failed to process queue batch")
				}
			}()
		}
	}
}
