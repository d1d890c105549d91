package handler

import (
	"errors"
	"net/http"
	"strconv"

	"amora-go/internal/middleware"
	"amora-go/internal/service"
	"amora-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责处理对话相关的 API 请求。
type ChatHandler struct {
	chatService  service.ChatService
	usageService service.UsageService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService, usageService service.UsageService) *ChatHandler {
	return &ChatHandler{chatService: chatService, usageService: usageService}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
type SendMessageRequest struct {
	AdvisorID uint   `json:"advisorId" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// SendMessage 处理一次完整的对话回合。
// 积分耗尽返回 402 与引导充值的提示，区别于普通错误。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：advisorId 和 message 不能为空",
		})
		return
	}

	userID := middleware.CurrentUserID(c)
	exchange, err := h.chatService.SendMessage(c.Request.Context(), userID, req.AdvisorID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOutOfCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"code":    http.StatusPaymentRequired,
				"message": "消息额度已用完，请充值后继续",
				"data":    gin.H{"topUpRequired": true},
			})
		case errors.Is(err, service.ErrAdvisorNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "顾问不存在",
			})
		case errors.Is(err, service.ErrWebhookNotConfigured):
			log.Errorf("SendMessage: webhook not configured, advisorID=%d", req.AdvisorID)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "顾问服务暂不可用",
			})
		default:
			log.Errorf("SendMessage failed: userID=%d, error: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "发送消息失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    exchange,
	})
}

// History 返回当前用户与指定顾问的历史消息。
func (h *ChatHandler) History(c *gin.Context) {
	advisorID, err := strconv.ParseUint(c.Param("advisorId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的顾问 ID",
		})
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), middleware.CurrentUserID(c), uint(advisorID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取历史消息失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}

// GetUsage 返回当前用户的额度信息。
func (h *ChatHandler) GetUsage(c *gin.Context) {
	usage, err := h.usageService.EnsureUsage(middleware.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取额度失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    usage,
	})
}
