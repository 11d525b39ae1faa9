package mccontrol

import (
	"context"
	"time"
)

// CommandExecutor 命令执行器接口
type CommandExecutor interface {
	// Execute 执行命令并返回结果
	Execute(ctx context.Context, cmd string) (string, error)

	// IsConnected 检查是否已连接
	IsConnected() bool
}

// StatusQuerier 公开状态查询接口（Server List Ping）
type StatusQuerier interface {
	Query(ctx context.Context) (*ServerStatus, error)
}

// MinecraftStatusData 相关结构体 - 用于解析Ping返回的JSON数据

// MCDescriptionExtraItem 表示描述中的额外格式化文本项
type MCDescriptionExtraItem struct {
	Text  string `json:"text"`  // 文本内容
	Color string `json:"color"` // 颜色
}

// MCOnlinePlayer 表示在线玩家信息
type MCOnlinePlayer struct {
	ID   string `json:"id"`   // 玩家UUID
	Name string `json:"name"` // 玩家名称
}

// Version 表示服务器版本信息
type Version struct {
	Name     string `json:"name"`     // 版本名称
	Protocol int    `json:"protocol"` // 协议版本
}

// Players 表示玩家信息
type Players struct {
	Max    int              `json:"max"`    // 最大玩家数
	Online int              `json:"online"` // 在线玩家数
	Sample []MCOnlinePlayer `json:"sample"` // 在线玩家样本
}

// MinecraftStatus 表示Ping返回数据中用到的部分
type MinecraftStatus struct {
	Version     Version     `json:"version"`     // 版本信息
	Players     Players     `json:"players"`     // 玩家信息
	Description interface{} `json:"description"` // 服务器描述，可能是字符串或对象
}

// GetDescriptionText 从不同格式的描述字段中提取纯文本
func (m *MinecraftStatus) GetDescriptionText() string {
	switch desc := m.Description.(type) {
	case string:
		return desc
	case map[string]interface{}:
		text, _ := desc["text"].(string)
		// 处理可能存在的额外文本
		if extra, ok := desc["extra"].([]interface{}); ok {
			for _, item := range extra {
				switch e := item.(type) {
				case string:
					text += e
				case map[string]interface{}:
					if extraText, ok := e["text"].(string); ok {
						text += extraText
					}
				}
			}
		}
		return text
	}

	return ""
}

// ServerStatus 包含Minecraft服务器状态信息
type ServerStatus struct {
	Online      bool      // 服务器是否在线
	LastChecked time.Time // 最后检查时间

	Players     int              // 当前在线玩家数量
	MaxPlayers  int              // 最大玩家数量
	Sample      []MCOnlinePlayer // 在线玩家样本
	Version     string           // 服务器版本
	Description string           // 服务器描述
	Latency     int              // 延迟，单位：毫秒
}
