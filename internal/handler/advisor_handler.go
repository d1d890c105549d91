package handler

import (
	"errors"
	"net/http"
	"strconv"

	"amora-go/internal/model"
	"amora-go/internal/service"
	"amora-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdvisorHandler 负责处理顾问相关的 API 请求。
type AdvisorHandler struct {
	advisorService service.AdvisorService
	searchService  service.SearchService
}

// NewAdvisorHandler 创建一个新的 AdvisorHandler 实例。
func NewAdvisorHandler(advisorService service.AdvisorService, searchService service.SearchService) *AdvisorHandler {
	return &AdvisorHandler{advisorService: advisorService, searchService: searchService}
}

// List 返回全部顾问，表为空时返回内置名单。
func (h *AdvisorHandler) List(c *gin.Context) {
	advisors, err := h.advisorService.ListAdvisors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取顾问列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    advisors,
	})
}

// Get 返回单个顾问。
func (h *AdvisorHandler) Get(c *gin.Context) {
	advisorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的顾问 ID",
		})
		return
	}

	advisor, err := h.advisorService.GetAdvisor(uint(advisorID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "顾问不存在",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    advisor,
	})
}

// UpsertAdvisorRequest 定义了管理端创建/更新顾问的请求体结构。
type UpsertAdvisorRequest struct {
	Name            string  `json:"name" binding:"required"`
	Specialty       string  `json:"specialty"`
	ImageURL        string  `json:"imageUrl"`
	N8nWebhookPath  string  `json:"n8nWebhookPath"`
	VapiAssistantID string  `json:"vapiAssistantId"`
	IsOnline        bool    `json:"isOnline"`
	Rating          float64 `json:"rating"`
}

// Create 管理端新增顾问，并同步写入搜索索引。
func (h *AdvisorHandler) Create(c *gin.Context) {
	var req UpsertAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：name 不能为空",
		})
		return
	}

	advisor := &model.Advisor{
		Name:            req.Name,
		Specialty:       req.Specialty,
		ImageURL:        req.ImageURL,
		N8nWebhookPath:  req.N8nWebhookPath,
		VapiAssistantID: req.VapiAssistantID,
		IsOnline:        req.IsOnline,
		Rating:          req.Rating,
	}
	if err := h.advisorService.CreateAdvisor(advisor); err != nil {
		log.Errorf("CreateAdvisor failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "创建顾问失败",
		})
		return
	}

	if err := h.searchService.IndexAdvisor(c.Request.Context(), advisor); err != nil {
		log.Warnf("索引顾问失败: advisorID=%d, err=%v", advisor.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    advisor,
	})
}

// Update 管理端更新顾问。
func (h *AdvisorHandler) Update(c *gin.Context) {
	advisorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的顾问 ID",
		})
		return
	}

	var req UpsertAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	advisor := &model.Advisor{
		ID:              uint(advisorID),
		Name:            req.Name,
		Specialty:       req.Specialty,
		ImageURL:        req.ImageURL,
		N8nWebhookPath:  req.N8nWebhookPath,
		VapiAssistantID: req.VapiAssistantID,
		IsOnline:        req.IsOnline,
		Rating:          req.Rating,
	}
	if err := h.advisorService.UpdateAdvisor(advisor); err != nil {
		if errors.Is(err, service.ErrAdvisorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "顾问不存在",
			})
			return
		}
		log.Errorf("UpdateAdvisor failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "更新顾问失败",
		})
		return
	}

	if err := h.searchService.IndexAdvisor(c.Request.Context(), advisor); err != nil {
		log.Warnf("索引顾问失败: advisorID=%d, err=%v", advisor.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    advisor,
	})
}
