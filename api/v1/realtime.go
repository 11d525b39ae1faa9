package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"city.newnan/mc-status/internal/model"
	"city.newnan/mc-status/internal/service"
	"city.newnan/mc-status/internal/sse"
	"city.newnan/mc-status/internal/websocket"
)

// RealtimeController 实时推送相关API控制器
type RealtimeController struct {
	Broker  *sse.Broker
	Manager *websocket.Manager
}

// NewRealtimeController 创建实时推送控制器
func NewRealtimeController(broker *sse.Broker, manager *websocket.Manager) *RealtimeController {
	return &RealtimeController{Broker: broker, Manager: manager}
}

// HandleWebSocket 处理WebSocket连接
// @Summary WebSocket推送
// @Description 建立WebSocket连接接收状态与玩家快照，room 为 status 或 players，留空接收全部
// @Tags 实时推送
// @Param room query string false "房间名称"
// @Success 101 {string} string "切换为WebSocket协议"
// @Router /api/ws [get]
func (c *RealtimeController) HandleWebSocket(ctx *gin.Context) {
	c.Manager.ServeHTTP(ctx)
}

// HandleSSE 处理服务器发送事件(SSE)
// @Summary SSE推送
// @Description 建立SSE长连接接收状态与玩家快照，topic 为 status 或 players，留空接收全部
// @Tags 实时推送
// @Param topic query string false "主题"
// @Success 200 {string} string "SSE数据流"
// @Router /api/events [get]
func (c *RealtimeController) HandleSSE(ctx *gin.Context) {
	c.Broker.ServeHTTP(ctx)
}

// GetRealtimeStats 获取实时连接统计
// @Summary 获取实时连接统计
// @Tags 实时推送
// @Produce json
// @Success 200 {object} model.Response "获取成功"
// @Router /api/realtime/stats [get]
func (c *RealtimeController) GetRealtimeStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, model.SuccessResponse(map[string]interface{}{
		"websocket_total":   c.Manager.GetClientCount(),
		"websocket_status":  c.Manager.GetRoomClientCount(service.TopicStatus),
		"websocket_players": c.Manager.GetRoomClientCount(service.TopicPlayers),
		"sse_total":         c.Broker.GetClientCount(),
		"sse_status":        c.Broker.GetTopicClientCount(service.TopicStatus),
		"sse_players":       c.Broker.GetTopicClientCount(service.TopicPlayers),
		"timestamp":         time.Now().Format(time.RFC3339),
	}))
}
