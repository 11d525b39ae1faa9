package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"city.newnan/mc-status/internal/logger"
	"city.newnan/mc-status/internal/model"
	"city.newnan/mc-status/internal/service"
)

// ServerController 服务器状态相关API控制器
type ServerController struct {
	Service        *service.ServerService
	RequestTimeout time.Duration
}

// NewServerController 创建服务器控制器，requestTimeout 为 0 时一直等待RCON恢复
func NewServerController(svc *service.ServerService, requestTimeout time.Duration) *ServerController {
	return &ServerController{
		Service:        svc,
		RequestTimeout: requestTimeout,
	}
}

// requestContext 请求上下文，客户端断开时取消；配置了超时则附加截止时间
func (c *ServerController) requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	if c.RequestTimeout > 0 {
		return context.WithTimeout(ctx.Request.Context(), c.RequestTimeout)
	}
	return context.WithCancel(ctx.Request.Context())
}

// GetStatus 获取服务器状态
// @Summary 获取服务器状态
// @Description 公开状态查询（在线人数、版本、延迟）与RCON时间查询的组合
// @Tags 服务器
// @Produce json
// @Success 200 {object} model.ServerStatus "服务器状态"
// @Failure 500 {object} model.Response "无法获取服务器状态"
// @Router /api/server/status [get]
func (c *ServerController) GetStatus(ctx *gin.Context) {
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	status, err := c.Service.Status(reqCtx)
	if err != nil {
		if errors.Is(err, service.ErrStatusUnavailable) {
			ctx.JSON(http.StatusInternalServerError, model.ErrorResponse(http.StatusInternalServerError, "无法获取服务器状态"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, model.ErrorResponse(http.StatusInternalServerError, "服务器内部错误"))
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// GetPlayerInfo 获取在线玩家信息
// @Summary 获取在线玩家信息
// @Description 通过RCON获取每个在线玩家的维度、坐标与状态；RCON中断时请求会等待恢复
// @Tags 服务器
// @Produce json
// @Success 200 {array} model.PlayerInfo "玩家列表"
// @Failure 503 {object} model.Response "RCON暂不可用"
// @Router /api/server/player_info [get]
func (c *ServerController) GetPlayerInfo(ctx *gin.Context) {
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	players, err := c.Service.PlayerInfo(reqCtx)
	if err != nil {
		logger.Warnf("获取玩家信息失败: %v", err)
		if reqCtx.Err() != nil {
			ctx.JSON(http.StatusServiceUnavailable, model.ErrorResponse(http.StatusServiceUnavailable, "RCON暂不可用，请稍后重试"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, model.ErrorResponse(http.StatusInternalServerError, "获取玩家信息失败"))
		return
	}
	ctx.JSON(http.StatusOK, players)
}

// GetAvatar 获取玩家头像地址
// @Summary 获取玩家头像地址
// @Tags 玩家
// @Produce json
// @Param uuid query string true "玩家UUID"
// @Success 200 {object} model.Avatar "头像地址"
// @Failure 400 {object} model.Response "缺少uuid参数"
// @Router /api/player/avatar [get]
func (c *ServerController) GetAvatar(ctx *gin.Context) {
	uuid := strings.TrimSpace(ctx.Query("uuid"))
	if uuid == "" {
		ctx.JSON(http.StatusBadRequest, model.ErrorResponse(http.StatusBadRequest, "缺少uuid参数"))
		return
	}
	ctx.JSON(http.StatusOK, model.Avatar{
		UUID:      uuid,
		AvatarURL: c.Service.AvatarURL(uuid),
	})
}

// Health 健康检查
// @Summary 健康检查
// @Description 不会等待RCON，只报告当前连接状态
// @Tags 服务器
// @Produce json
// @Success 200 {object} model.Health "健康状态"
// @Router /health [get]
func (c *ServerController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.Service.Health())
}
