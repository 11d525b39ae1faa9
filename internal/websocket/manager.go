package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"city.newnan/mc-status/internal/logger"
)

const (
	heartbeatInterval = 10 * time.Second
	heartbeatTimeout  = 60 * time.Second
)

// 设置 websocket 连接的配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域由 CORS 中间件统一处理
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 表示 WebSocket 客户端
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Room    string // 由 Manager 的锁保护
	Manager *Manager

	lastSeen atomic.Int64
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// Manager 管理 WebSocket 连接
// 客户端的注册、注销和发送通道的关闭都只在 run 协程中进行
type Manager struct {
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	mutex   sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
}

// BroadcastMessage 广播消息结构
// Target 非空时只发给该客户端；Room 为空时发给所有客户端
type BroadcastMessage struct {
	Room    string      `json:"room,omitempty"`
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
	Exclude string      `json:"exclude,omitempty"`
	Target  string      `json:"-"`
}

// NewManager 创建新的管理器
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 64),
		done:       make(chan struct{}),
	}
}

// Start 启动 WebSocket 管理器，ctx 结束时关闭所有连接
func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.mutex.RLock()
			clients := make([]*Client, 0, len(m.clients))
			for _, client := range m.clients {
				clients = append(clients, client)
			}
			m.mutex.RUnlock()
			for _, client := range clients {
				m.remove(client)
			}
			return

		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.joinLocked(client, client.Room)
			m.mutex.Unlock()
			logger.Infof("WebSocket客户端注册: %s, 房间: %s", client.ID, client.Room)

		case client := <-m.unregister:
			if m.remove(client) {
				logger.Infof("WebSocket客户端注销: %s", client.ID)
			}

		case message := <-m.broadcast:
			m.deliver(message)

		case <-ticker.C:
			m.checkHeartbeats()
		}
	}
}

// remove 删除客户端并关闭其发送通道，客户端不存在时返回 false
func (m *Manager) remove(client *Client) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return false
	}
	delete(m.clients, client.ID)
	m.leaveLocked(client)
	close(client.Send)
	return true
}

func (m *Manager) joinLocked(client *Client, room string) {
	client.Room = room
	if room == "" {
		return
	}
	if _, ok := m.rooms[room]; !ok {
		m.rooms[room] = make(map[string]*Client)
	}
	m.rooms[room][client.ID] = client
}

func (m *Manager) leaveLocked(client *Client) {
	if client.Room == "" {
		return
	}
	if room, ok := m.rooms[client.Room]; ok {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(m.rooms, client.Room)
		}
	}
	client.Room = ""
}

// switchRoom 把客户端移到新房间，room 为空表示接收全部推送
func (m *Manager) switchRoom(client *Client, room string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leaveLocked(client)
	m.joinLocked(client, room)
}

// deliver 按目标、房间分发消息；未加入房间的客户端接收所有房间的消息
func (m *Manager) deliver(message *BroadcastMessage) {
	payload := MarshalMessage(message.Type, message.Content)

	var targets []*Client
	m.mutex.RLock()
	if message.Target != "" {
		if client, ok := m.clients[message.Target]; ok {
			targets = append(targets, client)
		}
	} else {
		for id, client := range m.clients {
			if id == message.Exclude {
				continue
			}
			if message.Room != "" && client.Room != "" && client.Room != message.Room {
				continue
			}
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- payload:
		default:
			// 缓冲区已满，客户端处理过慢
			logger.Warnf("WebSocket客户端 %s 发送缓冲区已满，断开连接", client.ID)
			m.remove(client)
		}
	}
}

// checkHeartbeats 断开超时未响应的客户端
func (m *Manager) checkHeartbeats() {
	deadline := time.Now().Add(-heartbeatTimeout).UnixNano()

	var expired []*Client
	m.mutex.RLock()
	for _, client := range m.clients {
		if client.lastSeen.Load() < deadline {
			expired = append(expired, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range expired {
		logger.Warnf("WebSocket客户端 %s 心跳超时，正在断开连接", client.ID)
		m.remove(client)
		client.Conn.Close()
	}
}

// GetClientCount 获取连接的客户端总数
func (m *Manager) GetClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// GetRoomClientCount 获取房间中的客户端数
func (m *Manager) GetRoomClientCount(room string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[room])
}

// Broadcast 广播消息
func (m *Manager) Broadcast(message *BroadcastMessage) {
	select {
	case m.broadcast <- message:
	case <-m.done:
	}
}

// Publish 把数据推送到与主题同名的房间
func (m *Manager) Publish(topic string, data interface{}) {
	m.Broadcast(&BroadcastMessage{Room: topic, Type: topic, Content: data})
}

// Register 注册客户端，管理器已停止时返回 false
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister 注销客户端
func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}
