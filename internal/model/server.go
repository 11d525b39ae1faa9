package model

import "city.newnan/mc-status/pkg/mcparse"

// StatusPlayer 状态查询中的玩家样本
type StatusPlayer struct {
	Name      string `json:"name"`
	UUID      string `json:"uuid"`
	AvatarURL string `json:"avatar_url"`
}

// ServerStatus /api/server/status 的响应
// 时间字段为 nil 表示未能通过RCON获取
type ServerStatus struct {
	Online             int            `json:"online"`
	MaxPlayers         int            `json:"max_players"`
	Latency            int            `json:"latency"`
	Version            string         `json:"version"`
	Description        string         `json:"description"`
	Players            []StatusPlayer `json:"players"`
	WorldTime          *int64         `json:"world_time"`
	WorldTimeFormatted *string        `json:"world_time_formatted"`
	GameTime           *int64         `json:"game_time"`
	GameTimeFormatted  *string        `json:"game_time_formatted"`
	UptimeSeconds      int64          `json:"uptime_seconds"`
	UptimeFormatted    string         `json:"uptime_formatted"`
}

// PlayerStatus 玩家状态，只包含成功解析的字段
type PlayerStatus struct {
	Health *mcparse.Number `json:"health,omitempty"`
	Food   *int            `json:"food,omitempty"`
	Level  *int            `json:"level,omitempty"`
}

// PlayerInfo /api/server/player_info 中的单个玩家
type PlayerInfo struct {
	Name         string            `json:"name"`
	Dimension    string            `json:"dimension"`
	RawDimension string            `json:"raw_dimension"`
	Position     *mcparse.Position `json:"position,omitempty"`
	Status       PlayerStatus      `json:"status"`
}

// Health /health 的响应
type Health struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	RconConnected bool   `json:"rcon_connected"`
}

// Avatar /api/player/avatar 的响应
type Avatar struct {
	UUID      string `json:"uuid"`
	AvatarURL string `json:"avatar_url"`
}

// CommandRequest 管理接口执行命令的请求
type CommandRequest struct {
	Command string `json:"command" binding:"required,max=1446"`
}

// CommandResult 管理接口执行命令的结果
type CommandResult struct {
	Command  string `json:"command"`
	Response string `json:"response"`
}
