package services

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventCommentUpdate = "comment_update"
	EventCommentDelete = "comment_delete"

	clientBuffer = 16
)

// Event 推送给实时订阅者的消息
type Event struct {
	Type      string    `json:"type"`
	Comment   *FeedNode `json:"comment,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
}

type Client struct {
	ID   string
	send chan Event
}

// Events 在客户端被注销或因过慢被丢弃后关闭
func (c *Client) Events() <-chan Event {
	return c.send
}

// Hub 管理所有实时连接，Publish 不会阻塞
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), log: log}
}

func (h *Hub) Register() *Client {
	c := &Client{ID: uuid.New().String(), send: make(chan Event, clientBuffer)}

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.log.Debug("live client registered", zap.String("client", c.ID))
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove 需要持有写锁
func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.send)
}

// Publish 广播事件，缓冲区已满的客户端会被直接断开
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.log.Warn("dropping slow live client", zap.String("client", c.ID))
			h.remove(c)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close 断开所有客户端
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.remove(c)
	}
}
