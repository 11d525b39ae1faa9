package sse

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"city.newnan/mc-status/internal/logger"
)

// Client SSE客户端
type Client struct {
	ID        string
	Channel   chan []byte
	Topic     string
	CreatedAt time.Time
}

// Message SSE消息结构
type Message struct {
	Topic string      `json:"topic"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	ID    string      `json:"id,omitempty"`
	Retry int         `json:"retry,omitempty"`
}

// Broker 管理所有SSE连接，按主题分发消息
// 未指定主题的客户端接收全部主题
type Broker struct {
	clients map[string]*Client
	topics  map[string]map[string]*Client
	mutex   sync.RWMutex

	newClients     chan *Client
	closingClients chan string
	messages       chan *Message
	done           chan struct{}
}

// NewBroker 创建新的SSE代理
func NewBroker() *Broker {
	return &Broker{
		clients:        make(map[string]*Client),
		topics:         make(map[string]map[string]*Client),
		newClients:     make(chan *Client),
		closingClients: make(chan string),
		messages:       make(chan *Message, 64),
		done:           make(chan struct{}),
	}
}

// Start 启动SSE代理，ctx 结束时断开所有客户端
func (b *Broker) Start(ctx context.Context) {
	go b.listen(ctx)
}

func (b *Broker) listen(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mutex.Lock()
			for id := range b.clients {
				b.removeClient(id)
			}
			b.mutex.Unlock()
			return

		case client := <-b.newClients:
			b.mutex.Lock()
			b.clients[client.ID] = client
			if client.Topic != "" {
				if _, ok := b.topics[client.Topic]; !ok {
					b.topics[client.Topic] = make(map[string]*Client)
				}
				b.topics[client.Topic][client.ID] = client
			}
			b.mutex.Unlock()
			logger.Infof("SSE客户端已连接: ID=%s, 主题=%s", client.ID, client.Topic)

		case clientID := <-b.closingClients:
			b.mutex.Lock()
			if client, ok := b.clients[clientID]; ok {
				b.removeClient(clientID)
				logger.Infof("SSE客户端已断开连接: ID=%s, 主题=%s", client.ID, client.Topic)
			}
			b.mutex.Unlock()

		case message := <-b.messages:
			b.dispatch(message)
		}
	}
}

// removeClient 调用方需持有写锁
func (b *Broker) removeClient(clientID string) {
	client, ok := b.clients[clientID]
	if !ok {
		return
	}
	if client.Topic != "" {
		if topicClients, ok := b.topics[client.Topic]; ok {
			delete(topicClients, client.ID)
			if len(topicClients) == 0 {
				delete(b.topics, client.Topic)
			}
		}
	}
	close(client.Channel)
	delete(b.clients, clientID)
}

func (b *Broker) dispatch(message *Message) {
	payload, err := formatMessage(message)
	if err != nil {
		logger.Errorf("编码SSE消息失败: %v", err)
		return
	}

	var slow []string
	b.mutex.RLock()
	for id, client := range b.clients {
		if client.Topic != "" && message.Topic != "" && client.Topic != message.Topic {
			continue
		}
		select {
		case client.Channel <- payload:
		default:
			slow = append(slow, id)
		}
	}
	b.mutex.RUnlock()

	if len(slow) == 0 {
		return
	}
	// 缓冲区已满的客户端直接断开
	b.mutex.Lock()
	for _, id := range slow {
		b.removeClient(id)
		logger.Warnf("SSE客户端处理过慢，已断开: ID=%s", id)
	}
	b.mutex.Unlock()
}

// formatMessage 格式化为 text/event-stream 帧
func formatMessage(message *Message) ([]byte, error) {
	var sb strings.Builder
	if message.Event != "" {
		fmt.Fprintf(&sb, "event: %s\n", message.Event)
	}
	if message.ID != "" {
		fmt.Fprintf(&sb, "id: %s\n", message.ID)
	}
	if message.Retry > 0 {
		fmt.Fprintf(&sb, "retry: %d\n", message.Retry)
	}
	data, err := sonic.Marshal(message.Data)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&sb, "data: %s\n\n", data)
	return []byte(sb.String()), nil
}

// ServeHTTP 处理SSE连接，topic 查询参数指定订阅的主题
func (b *Broker) ServeHTTP(c *gin.Context) {
	topic := c.Query("topic")

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // 禁用Nginx代理缓冲

	client := &Client{
		ID:        uuid.New().String(),
		Channel:   make(chan []byte, 256),
		Topic:     topic,
		CreatedAt: time.Now(),
	}

	welcome, _ := formatMessage(&Message{
		Event: "connected",
		Data: map[string]interface{}{
			"client_id": client.ID,
			"topic":     topic,
			"time":      time.Now().Format(time.RFC3339),
		},
	})
	client.Channel <- welcome

	select {
	case b.newClients <- client:
	case <-b.done:
		return
	}
	defer func() {
		select {
		case b.closingClients <- client.ID:
		case <-b.done:
		}
	}()

	reqCtx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client.Channel:
			if !ok {
				return false
			}
			if _, err := w.Write(msg); err != nil {
				return false
			}
			c.Writer.Flush()
			return true
		case <-reqCtx.Done():
			return false
		}
	})
}

// Publish 向订阅该主题的客户端推送数据
func (b *Broker) Publish(topic string, data interface{}) {
	b.PublishMessage(&Message{
		Topic: topic,
		Event: topic,
		Data:  data,
		ID:    uuid.New().String(),
	})
}

// PublishMessage 发布完整的SSE消息
func (b *Broker) PublishMessage(message *Message) {
	select {
	case b.messages <- message:
	case <-b.done:
	}
}

// GetClientCount 获取连接的客户端总数
func (b *Broker) GetClientCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.clients)
}

// GetTopicClientCount 获取特定主题的客户端数
func (b *Broker) GetTopicClientCount(topic string) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.topics[topic])
}
