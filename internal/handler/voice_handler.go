package handler

import (
	"errors"
	"net/http"

	"amora-go/internal/middleware"
	"amora-go/internal/service"
	"amora-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// VoiceHandler 负责处理语音通话相关的 API 请求。
type VoiceHandler struct {
	voiceService service.VoiceService
}

// NewVoiceHandler 创建一个新的 VoiceHandler 实例。
func NewVoiceHandler(voiceService service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// StartCallRequest 定义了发起通话 API 的请求体结构。
type StartCallRequest struct {
	AdvisorID uint `json:"advisorId" binding:"required"`
}

// StartCall 发起一次语音通话。
func (h *VoiceHandler) StartCall(c *gin.Context) {
	var req StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：advisorId 不能为空",
		})
		return
	}

	userID := middleware.CurrentUserID(c)
	callLog, err := h.voiceService.StartCall(c.Request.Context(), userID, req.AdvisorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOutOfVoiceMinutes):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"code":    http.StatusPaymentRequired,
				"message": "语音分钟数已用完，请充值后继续",
				"data":    gin.H{"topUpRequired": true},
			})
		case errors.Is(err, service.ErrAdvisorNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "顾问不存在",
			})
		case errors.Is(err, service.ErrVoiceNotConfigured):
			c.JSON(http.StatusConflict, gin.H{
				"code":    http.StatusConflict,
				"message": "该顾问暂不支持语音通话",
			})
		default:
			log.Errorf("StartCall failed: userID=%d, error: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "发起通话失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    callLog,
	})
}

// EndCallRequest 定义了结束通话 API 的请求体结构。
type EndCallRequest struct {
	VapiCallID      string  `json:"vapiCallId" binding:"required"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// EndCall 结束通话并按实际时长扣减分钟数，返回扣减后的额度。
func (h *VoiceHandler) EndCall(c *gin.Context) {
	var req EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：vapiCallId 不能为空",
		})
		return
	}

	usage, err := h.voiceService.EndCall(req.VapiCallID, req.DurationSeconds)
	if err != nil {
		if errors.Is(err, service.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "通话记录不存在",
			})
			return
		}
		log.Errorf("EndCall failed: callID=%s, error: %v", req.VapiCallID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "结束通话失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    usage,
	})
}
