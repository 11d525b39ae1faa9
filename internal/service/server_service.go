package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"city.newnan/mc-status/internal/logger"
	"city.newnan/mc-status/internal/model"
	"city.newnan/mc-status/pkg/mccontrol"
	"city.newnan/mc-status/pkg/mcparse"
)

// ErrStatusUnavailable 公开状态查询失败
var ErrStatusUnavailable = errors.New("无法获取服务器状态")

// 推送主题
const (
	TopicStatus  = "status"
	TopicPlayers = "players"
)

// Publisher 实时推送的接收方
type Publisher interface {
	Publish(topic string, data interface{})
}

// ServerService 组合RCON与公开状态查询，生成API数据
type ServerService struct {
	rcon           mccontrol.CommandExecutor
	status         mccontrol.StatusQuerier
	dims           mcparse.DimensionNamer
	avatarTemplate string
	startedAt      time.Time
	now            func() time.Time
}

// NewServerService 创建服务器服务实例
func NewServerService(rcon mccontrol.CommandExecutor, status mccontrol.StatusQuerier, dims mcparse.DimensionNamer, avatarTemplate string) *ServerService {
	if avatarTemplate == "" {
		avatarTemplate = "https://crafatar.com/avatars/%s"
	}
	return &ServerService{
		rcon:           rcon,
		status:         status,
		dims:           dims,
		avatarTemplate: avatarTemplate,
		startedAt:      time.Now(),
		now:            time.Now,
	}
}

// Uptime 返回进程运行的秒数
func (s *ServerService) Uptime() int64 {
	return int64(s.now().Sub(s.startedAt) / time.Second)
}

// AvatarURL 根据UUID生成头像地址
func (s *ServerService) AvatarURL(uuid string) string {
	return fmt.Sprintf(s.avatarTemplate, url.PathEscape(uuid))
}

// Status 获取服务器状态
// 公开状态查询失败时返回 ErrStatusUnavailable；游戏时间取不到时对应字段为 nil
func (s *ServerService) Status(ctx context.Context) (*model.ServerStatus, error) {
	st, err := s.status.Query(ctx)
	if err != nil {
		logger.Errorf("服务器状态查询失败: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}

	players := make([]model.StatusPlayer, 0, len(st.Sample))
	for _, p := range st.Sample {
		players = append(players, model.StatusPlayer{
			Name:      p.Name,
			UUID:      p.ID,
			AvatarURL: s.AvatarURL(p.ID),
		})
	}

	uptime := s.Uptime()
	result := &model.ServerStatus{
		Online:          st.Players,
		MaxPlayers:      st.MaxPlayers,
		Latency:         st.Latency,
		Version:         st.Version,
		Description:     st.Description,
		Players:         players,
		UptimeSeconds:   uptime,
		UptimeFormatted: mcparse.FormatUptime(uptime),
	}

	result.WorldTime, result.WorldTimeFormatted = s.queryTime(ctx, "daytime")
	result.GameTime, result.GameTimeFormatted = s.queryTime(ctx, "gametime")

	return result, nil
}

func (s *ServerService) queryTime(ctx context.Context, kind string) (*int64, *string) {
	resp, err := s.rcon.Execute(ctx, "time query "+kind)
	if err != nil {
		logger.Warnf("获取时间失败(%s): %v", kind, err)
		return nil, nil
	}
	ticks, ok := mcparse.ParseTimeQuery(resp)
	if !ok {
		logger.Warnf("无法识别的时间响应(%s): %s", kind, resp)
		return nil, nil
	}
	formatted := mcparse.FormatMinecraftTime(ticks)
	return &ticks, &formatted
}

// PlayerInfo 获取所有在线玩家的位置和状态
// 单个玩家出错只跳过该玩家；只有 list 命令本身失败时才返回错误
func (s *ServerService) PlayerInfo(ctx context.Context) ([]model.PlayerInfo, error) {
	listResp, err := s.rcon.Execute(ctx, "list")
	if err != nil {
		return nil, fmt.Errorf("执行list命令失败: %w", err)
	}
	logger.Debugf("list命令响应: %s", listResp)

	names := mcparse.ParsePlayerList(listResp)
	results := make([]model.PlayerInfo, 0, len(names))
	for _, name := range names {
		info, err := s.playerInfo(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("获取玩家数据被中断: %w", ctxErr)
			}
			logger.Warnf("玩家 %s 数据获取失败: %v", name, err)
			continue
		}
		if info == nil {
			continue
		}
		results = append(results, *info)
	}
	return results, nil
}

// playerInfo 查询单个玩家，玩家已离线或缺少维度时返回 nil
func (s *ServerService) playerInfo(ctx context.Context, name string) (info *model.PlayerInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("处理玩家数据时发生异常: %v", r)
		}
	}()

	resp, err := s.rcon.Execute(ctx, "data get entity "+name)
	if err != nil {
		return nil, err
	}
	if mcparse.IsEntityNotFound(resp) {
		logger.Debugf("玩家 %s 已离线，跳过", name)
		return nil, nil
	}

	data := mcparse.ParseEntity(resp, s.dims)
	if data.Dimension == nil {
		logger.Warnf("玩家 %s 数据不完整(缺少维度)，跳过", name)
		return nil, nil
	}

	info = &model.PlayerInfo{
		Name:         name,
		Dimension:    data.Dimension.Display,
		RawDimension: data.Dimension.Raw,
		Status: model.PlayerStatus{
			Health: data.Health,
			Food:   data.Food,
			Level:  data.Level,
		},
	}
	if data.Position != nil {
		info.Position = &mcparse.Position{
			X: round1(data.Position.X),
			Y: round1(data.Position.Y),
			Z: round1(data.Position.Z),
		}
	}
	return info, nil
}

// Health 返回服务健康状态
func (s *ServerService) Health() model.Health {
	uptime := s.Uptime()
	return model.Health{
		Status:        "ok",
		Uptime:        mcparse.FormatUptime(uptime),
		UptimeSeconds: uptime,
		RconConnected: s.rcon.IsConnected(),
	}
}

// Command 执行任意RCON命令（管理接口）
func (s *ServerService) Command(ctx context.Context, command string) (*model.CommandResult, error) {
	command = strings.TrimPrefix(strings.TrimSpace(command), "/")
	if command == "" {
		return nil, errors.New("命令不能为空")
	}
	resp, err := s.rcon.Execute(ctx, command)
	if err != nil {
		return nil, err
	}
	return &model.CommandResult{Command: command, Response: resp}, nil
}

// StartMonitoring 定期采集状态与玩家数据并推送给订阅者，ctx 结束时停止
func (s *ServerService) StartMonitoring(ctx context.Context, interval time.Duration, pubs ...Publisher) {
	if interval <= 0 || len(pubs) == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.collect(ctx, interval, pubs)
			}
		}
	}()
}

func (s *ServerService) collect(ctx context.Context, interval time.Duration, pubs []Publisher) {
	// 单轮采集不超过一个周期，避免RCON中断时任务堆积
	tickCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()

	if status, err := s.Status(tickCtx); err == nil {
		for _, p := range pubs {
			p.Publish(TopicStatus, status)
		}
	}
	if players, err := s.PlayerInfo(tickCtx); err == nil {
		for _, p := range pubs {
			p.Publish(TopicPlayers, players)
		}
	} else {
		logger.Debugf("本轮玩家数据采集失败: %v", err)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
