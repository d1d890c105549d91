package handler

import (
	"errors"
	"net/http"

	"amora-go/internal/middleware"
	"amora-go/internal/model"
	"amora-go/internal/service"
	"amora-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DiscoveryHandler 负责处理发现问卷与分析轮询的 API 请求。
type DiscoveryHandler struct {
	discoveryService service.DiscoveryService
	contentService   service.ContentService
}

// NewDiscoveryHandler 创建一个新的 DiscoveryHandler 实例。
func NewDiscoveryHandler(discoveryService service.DiscoveryService, contentService service.ContentService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService, contentService: contentService}
}

// Questions 返回问卷题目。
func (h *DiscoveryHandler) Questions(c *gin.Context) {
	questions, err := h.contentService.Questions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取问卷失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    questions,
	})
}

// SubmitRequest 定义了问卷提交 API 的请求体结构。
// answers 是题目类别到所选选项的映射。
type SubmitRequest struct {
	Answers model.DiscoveryAnswers `json:"answers" binding:"required"`
}

// Submit 提交问卷答案，建立轮询会话。
func (h *DiscoveryHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Answers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：answers 不能为空",
		})
		return
	}

	userID := middleware.CurrentUserID(c)
	session, err := h.discoveryService.Submit(c.Request.Context(), userID, req.Answers)
	if err != nil {
		if errors.Is(err, service.ErrDiscoveryWebhookMissing) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    http.StatusServiceUnavailable,
				"message": "分析服务暂不可用",
			})
			return
		}
		log.Errorf("Submit discovery failed: userID=%d, error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "提交问卷失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    session,
	})
}

// Await 以长轮询方式等待分析完成，终结时返回推荐结果或超时状态。
func (h *DiscoveryHandler) Await(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	outcome, err := h.discoveryService.Await(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoDiscoverySession):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "没有进行中的发现会话",
			})
		case errors.Is(err, c.Request.Context().Err()):
			// 客户端断开，无需响应
		default:
			log.Errorf("Await discovery failed: userID=%d, error: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "等待分析结果失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    outcome,
	})
}

// Status 返回当前会话进度，供"分析比预期慢"界面手动刷新。
func (h *DiscoveryHandler) Status(c *gin.Context) {
	outcome, err := h.discoveryService.Status(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrNoDiscoverySession) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "没有进行中的发现会话",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询会话状态失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    outcome,
	})
}

// ConsumeAutoChat 取走自动开聊标记，返回应跳转的顾问 ID（0 表示无标记）。
func (h *DiscoveryHandler) ConsumeAutoChat(c *gin.Context) {
	advisorID, err := h.discoveryService.ConsumeAutoChat(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "读取自动开聊标记失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"advisorId": advisorID, "shouldAutoChat": advisorID != 0},
	})
}
