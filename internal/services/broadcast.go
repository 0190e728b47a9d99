package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	broadcastQueueSize = 1000
	broadcastBatchSize = 50
	broadcastInterval  = 500 * time.Millisecond
)

// Broadcaster 异步把评论变更推送给实时订阅者
type Broadcaster struct {
	queue   chan uint // 待推送的评论 ID 队列
	pending map[uint]bool
	mu      sync.Mutex

	repo     CommentRepository
	feed     *FeedService
	hub      *Hub
	log      *zap.Logger
	interval time.Duration
}

func NewBroadcaster(repo CommentRepository, feed *FeedService, hub *Hub, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		queue:    make(chan uint, broadcastQueueSize), // 缓冲队列，防止阻塞
		pending:  make(map[uint]bool),
		repo:     repo,
		feed:     feed,
		hub:      hub,
		log:      log,
		interval: broadcastInterval,
	}
}

// Schedule 将评论加入推送队列（异步）
// 使用去重机制避免短时间内重复推送同一评论
func (b *Broadcaster) Schedule(commentID uint) {
	b.mu.Lock()
	if b.pending[commentID] {
		// 已在队列中，跳过
		b.mu.Unlock()
		return
	}
	b.pending[commentID] = true
	b.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case b.queue <- commentID:
	default:
		// 队列满了，移除 pending 标记
		b.mu.Lock()
		delete(b.pending, commentID)
		b.mu.Unlock()
		b.log.Warn("broadcast queue full, skipping", zap.Uint("comment_id", commentID))
	}
}

// Run 后台处理队列，ctx 结束时处理完剩余批次后返回
func (b *Broadcaster) Run(ctx context.Context) {
	// 批量处理：收集一批请求后统一处理
	batch := make([]uint, 0, broadcastBatchSize)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case id := <-b.queue:
			batch = append(batch, id)
			// 如果达到批量大小，立即处理
			if len(batch) >= broadcastBatchSize {
				b.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			// 定时处理剩余的
			if len(batch) > 0 {
				b.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			b.processBatch(context.Background(), b.drain(batch))
			return
		}
	}
}

// drain 非阻塞地取出队列中剩余的 ID，追加到 batch 后返回
func (b *Broadcaster) drain(batch []uint) []uint {
	for {
		select {
		case id := <-b.queue:
			batch = append(batch, id)
		default:
			return batch
		}
	}
}

func (b *Broadcaster) processBatch(ctx context.Context, ids []uint) {
	for _, id := range ids {
		// 先清除 pending，处理期间的新变更可以再次入队
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()

		b.publish(ctx, id)
	}
}

func (b *Broadcaster) publish(ctx context.Context, id uint) {
	comment, err := b.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		b.hub.Publish(Event{Type: EventCommentDelete, CommentID: id})
	case err != nil:
		b.log.Error("broadcast: failed to load comment", zap.Uint("comment_id", id), zap.Error(err))
	default:
		b.hub.Publish(Event{Type: EventCommentUpdate, Comment: b.feed.Render(*comment)})
	}
}
