// Package collab 按文档分组的进程内事件中心，用于协作编辑的变更广播
package collab

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed 事件中心已关闭
var ErrClosed = errors.New("collaboration hub closed")

// EventType 事件类型
type EventType string

const (
	EventDocumentUpdated EventType = "document-updated"
	EventUserJoined      EventType = "user-joined"
	EventUserLeft        EventType = "user-left"
	EventCursorMoved     EventType = "cursor-moved"
)

// DefaultBuffer 每个订阅者的默认缓冲
const DefaultBuffer = 16

// Event 协作事件
type Event struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"userId,omitempty"`
	Content    string    `json:"content,omitempty"`
	Version    int       `json:"version,omitempty"`
	Position   int       `json:"position,omitempty"`
	At         time.Time `json:"at"`
	// Origin 发布者的订阅 ID，不会回送给自己
	Origin string `json:"-"`
}

// Subscription 一个文档上的订阅
type Subscription struct {
	ID         string
	DocumentID string
	UserID     string

	events chan Event
	hub    *Hub
	once   sync.Once
}

// Events 事件通道，订阅取消或中心关闭后被关闭
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Cancel 取消订阅并通知其他订阅者，可重复调用
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.hub.remove(s) {
			_ = s.hub.Publish(context.Background(), Event{
				Type:       EventUserLeft,
				DocumentID: s.DocumentID,
				UserID:     s.UserID,
				Origin:     s.ID,
			})
		}
	})
}

// Hub 事件中心，随服务启动创建、停止时关闭
type Hub struct {
	mu      sync.RWMutex
	docs    map[string]map[string]*Subscription
	closed  bool
	buffer  int
	dropped atomic.Int64
	now     func() time.Time
	logger  *zap.Logger
}

// NewHub 创建事件中心
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		docs:   make(map[string]map[string]*Subscription),
		buffer: buffer,
		now:    time.Now,
		logger: logger,
	}
}

// Subscribe 订阅文档事件，并向其他订阅者广播 user-joined
func (h *Hub) Subscribe(documentID, userID string) (*Subscription, error) {
	sub := &Subscription{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		events:     make(chan Event, h.buffer),
		hub:        h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	subs, ok := h.docs[documentID]
	if !ok {
		subs = make(map[string]*Subscription)
		h.docs[documentID] = subs
	}
	subs[sub.ID] = sub
	h.mu.Unlock()

	h.logger.Debug("subscriber joined",
		zap.String("document", documentID),
		zap.String("user", userID))

	if err := h.Publish(context.Background(), Event{
		Type:       EventUserJoined,
		DocumentID: documentID,
		UserID:     userID,
		Origin:     sub.ID,
	}); err != nil {
		return nil, err
	}
	return sub, nil
}

// Publish 非阻塞地广播事件，缓冲已满的订阅者会丢弃该事件
func (h *Hub) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.At.IsZero() {
		event.At = h.now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}

	for id, sub := range h.docs[event.DocumentID] {
		if id == event.Origin {
			continue
		}
		select {
		case sub.events <- event:
		default:
			h.dropped.Add(1)
			h.logger.Debug("slow subscriber, event dropped",
				zap.String("document", event.DocumentID),
				zap.String("subscriber", id),
				zap.String("type", string(event.Type)))
		}
	}
	return nil
}

// Subscribers 返回文档的当前订阅者数量
func (h *Hub) Subscribers(documentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.docs[documentID])
}

// Dropped 返回累计丢弃的事件数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close 关闭中心以及所有订阅通道
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.docs {
		for _, sub := range subs {
			close(sub.events)
		}
	}
	h.docs = make(map[string]map[string]*Subscription)
}

// remove 返回订阅是否仍然存在（中心关闭后订阅已被移除）
func (h *Hub) remove(sub *Subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	subs, ok := h.docs[sub.DocumentID]
	if !ok {
		return false
	}
	if _, ok := subs[sub.ID]; !ok {
		return false
	}
	delete(subs, sub.ID)
	close(sub.events)
	if len(subs) == 0 {
		delete(h.docs, sub.DocumentID)
	}
	return true
}
