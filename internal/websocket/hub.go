package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"capsule-im/internal/imtypes"
)

// Hub 维护在线用户到其连接的映射，每个用户最多一条连接。
// 所有方法都是并发安全的，Lookup 和 DeliverNewMessage 同步读取当前状态。
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]*Client
}

// NewHub creates a new Hub. 注册表在进程启动时为空，没有任何持久化。
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]*Client),
	}
}

// Register 将客户端登记为其用户的当前连接。
// 同一用户已有连接时，旧连接被替换，其发送通道被关闭以终结旧的 writePump。
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[client.UserID]; ok && existing != client {
		log.Printf("警告: 用户 %d 已有连接，关闭旧连接并注册新连接。", client.UserID)
		close(existing.send)
	}
	h.clients[client.UserID] = client
	log.Printf("客户端已注册: UserID %d", client.UserID)
}

// Unregister 移除客户端，但仅当它仍是该用户的当前连接时。
// 过期连接（已被新连接替换）的注销请求不会影响新连接。
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stored, ok := h.clients[client.UserID]; ok && stored == client {
		delete(h.clients, client.UserID)
		close(client.send)
		log.Printf("客户端已注销: UserID %d", client.UserID)
	} else {
		log.Printf("尝试注销一个不匹配或已过期的客户端连接: UserID %d", client.UserID)
	}
}

// Lookup 返回用户当前的连接，不在线时返回 nil。
func (h *Hub) Lookup(userID uint) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// OnlineCount 返回当前在线的连接数。
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DeliverNewMessage 将新消息推送给在线的接收者。
// 接收者不在线时静默丢弃；发送通道已满时视为客户端失联，移除该连接。
// 推送失败不影响已持久化的消息，调用方永远不会收到错误。
func (h *Hub) DeliverNewMessage(receiverID uint, message *imtypes.ChatMessage) {
	payload, err := json.Marshal(imtypes.Event{
		Event: imtypes.NewMessageEvent,
		Data:  message,
	})
	if err != nil {
		log.Printf("错误: 无法序列化推送事件 (消息ID %d): %v", message.ID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[receiverID]
	if !ok {
		return // 接收者不在线
	}

	select {
	case client.send <- payload:
	default:
		log.Printf("警告: UserID %d 的发送通道已满或关闭，移除客户端。", receiverID)
		close(client.send)
		delete(h.clients, receiverID)
	}
}
