// Package realtime 实现了向已连接客户端推送行级变更的 WebSocket 集线器。
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"amora-go/pkg/log"

	"github.com/gorilla/websocket"
)

// Event 是推送到客户端与内部订阅者的变更通知。
type Event struct {
	Type      string `json:"type"` // 如 "profile.analysis"、"chat.reply"
	UserID    uint   `json:"userId"`
	Payload   string `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// wsClient 为单个连接串行化写操作。
// gorilla/websocket 不允许并发调用 WriteMessage，而 Publish 可能同时
// 来自 HTTP 请求协程与 Kafka 消费协程。
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Hub 维护每个用户的 WebSocket 连接与进程内订阅通道。
// 发现流程的"推送"检测路径通过 Subscribe 获得的通道接收分析完成信号。
type Hub struct {
	mu          sync.RWMutex
	conns       map[uint][]*wsClient
	subscribers map[uint][]chan Event
}

// NewHub 创建一个新的 Hub。
func NewHub() *Hub {
	return &Hub{
		conns:       make(map[uint][]*wsClient),
		subscribers: make(map[uint][]chan Event),
	}
}

// Register 登记一个用户的 WebSocket 连接。
func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = append(h.conns[userID], &wsClient{conn: conn})
}

// Unregister 移除一个用户的 WebSocket 连接。
func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.conns[userID]
	for i, c := range clients {
		if c.conn == conn {
			h.conns[userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Subscribe 返回一个接收指定用户事件的通道。
// 通道带缓冲，投递是尽力而为：订阅者消费过慢时事件被丢弃，
// 轮询路径会兜底检测到同样的状态变化。
func (h *Hub) Subscribe(userID uint) chan Event {
	ch := make(chan Event, 4)
	h.mu.Lock()
	h.subscribers[userID] = append(h.subscribers[userID], ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe 移除订阅通道。
func (h *Hub) Unsubscribe(userID uint, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subscribers[userID]
	for i, s := range subs {
		if s == ch {
			h.subscribers[userID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subscribers[userID]) == 0 {
		delete(h.subscribers, userID)
	}
}

// Publish 向指定用户的所有连接与订阅者广播一个事件。
func (h *Hub) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	clients := append([]*wsClient(nil), h.conns[event.UserID]...)
	subs := append([]chan Event(nil), h.subscribers[event.UserID]...)
	h.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// 订阅者未及时消费，丢弃该事件
		}
	}

	if len(clients) == 0 {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		log.Errorf("序列化实时事件失败: %v", err)
		return
	}
	for _, c := range clients {
		if err := c.write(websocket.TextMessage, b); err != nil {
			log.Warnf("向用户 %d 推送实时事件失败: %v", event.UserID, err)
		}
	}
}
