package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"city.newnan/mc-status/internal/logger"
	"city.newnan/mc-status/internal/middleware"
	"city.newnan/mc-status/internal/model"
	"city.newnan/mc-status/internal/service"
)

// 管理命令的默认等待上限，RCON长时间中断时不让请求无限挂起
const defaultCommandTimeout = 30 * time.Second

// AdminController 管理接口控制器
type AdminController struct {
	Service        *service.ServerService
	CommandTimeout time.Duration
}

// NewAdminController 创建管理接口控制器
func NewAdminController(svc *service.ServerService, timeout time.Duration) *AdminController {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &AdminController{Service: svc, CommandTimeout: timeout}
}

// ExecuteCommand 执行RCON命令
// @Summary 执行RCON命令
// @Description 通过共享的RCON会话执行任意命令，需要管理员Token
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param command body model.CommandRequest true "命令"
// @Success 200 {object} model.Response{data=model.CommandResult} "执行成功"
// @Failure 400 {object} model.Response "请求参数错误"
// @Failure 401 {object} model.Response "未授权"
// @Failure 503 {object} model.Response "RCON暂不可用"
// @Router /api/admin/command [post]
func (c *AdminController) ExecuteCommand(ctx *gin.Context) {
	var req model.CommandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.ErrorResponse(http.StatusBadRequest, "无效的请求参数: "+err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.CommandTimeout)
	defer cancel()

	result, err := c.Service.Command(reqCtx, req.Command)
	if err != nil {
		if reqCtx.Err() != nil {
			ctx.JSON(http.StatusServiceUnavailable, model.ErrorResponse(http.StatusServiceUnavailable, "RCON暂不可用，请稍后重试"))
			return
		}
		ctx.JSON(http.StatusBadRequest, model.ErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	logger.Infof("管理员 %s 执行命令: %s", middleware.GetCurrentSubject(ctx), result.Command)
	ctx.JSON(http.StatusOK, model.SuccessResponse(result))
}
