package websocket

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"city.newnan/mc-status/internal/logger"
)

// MessageType 消息类型
const (
	MessageTypePing  = "ping"  // 心跳消息
	MessageTypePong  = "pong"  // 心跳响应
	MessageTypeJoin  = "join"  // 切换订阅的房间
	MessageTypeLeave = "leave" // 退出房间，接收全部推送
	MessageTypeError = "error" // 错误
)

// Message WebSocket消息结构
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

// ServeHTTP 升级为WebSocket连接，room 查询参数指定订阅的主题
func (m *Manager) ServeHTTP(c *gin.Context) {
	room := c.Query("room")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("升级WebSocket连接失败: %v", err)
		return
	}

	client := &Client{
		ID:      uuid.New().String(),
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Room:    room,
		Manager: m,
	}
	client.touch()

	// 注册前写入欢迎消息，保证它是客户端收到的第一条
	client.Send <- MarshalMessage(MessageTypeJoin, map[string]string{
		"client_id": client.ID,
		"room":      room,
	})

	if !m.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump 读取客户端消息，直到连接断开
func (c *Client) readPump() {
	defer func() {
		c.Manager.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(heartbeatTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		c.Conn.SetReadDeadline(time.Now().Add(heartbeatTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("读取WebSocket消息错误: %v", err)
			}
			return
		}
		c.touch()
		c.Conn.SetReadDeadline(time.Now().Add(heartbeatTimeout))
		c.handleMessage(message)
	}
}

// writePump 向WebSocket连接写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// 通道已关闭
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply 通过管理器回复当前客户端，避免在发送通道关闭后写入
func (c *Client) reply(msgType string, content interface{}) {
	c.Manager.Broadcast(&BroadcastMessage{Target: c.ID, Type: msgType, Content: content})
}

// handleMessage 处理客户端消息，推送通道只接受心跳和房间切换
func (c *Client) handleMessage(data []byte) {
	var message Message
	if err := sonic.Unmarshal(data, &message); err != nil {
		c.reply(MessageTypeError, "无效的消息格式")
		return
	}

	switch message.Type {
	case MessageTypePing:
		c.reply(MessageTypePong, nil)

	case MessageTypeJoin:
		content, _ := message.Content.(map[string]interface{})
		room, _ := content["room"].(string)
		if room == "" {
			c.reply(MessageTypeError, "缺少房间名称")
			return
		}
		c.Manager.switchRoom(c, room)
		c.reply(MessageTypeJoin, map[string]string{
			"room":    room,
			"message": fmt.Sprintf("已加入房间: %s", room),
		})

	case MessageTypeLeave:
		c.Manager.switchRoom(c, "")
		c.reply(MessageTypeLeave, map[string]string{"message": "已离开房间，接收全部推送"})

	default:
		c.reply(MessageTypeError, "不支持的消息类型")
	}
}

// MarshalMessage 将消息编码为JSON
func MarshalMessage(msgType string, content interface{}) []byte {
	data, err := sonic.Marshal(Message{Type: msgType, Content: content})
	if err != nil {
		logger.Errorf("编码消息失败: %v", err)
		return []byte(`{"type":"error","content":"消息编码失败"}`)
	}
	return data
}
