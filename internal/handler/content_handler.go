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

// ContentHandler 负责处理博客与联系信息等内容类 API 请求。
type ContentHandler struct {
	contentService service.ContentService
}

// NewContentHandler 创建一个新的 ContentHandler 实例。
func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// Blogs 分页返回博客列表。
func (h *ContentHandler) Blogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	blogs, total, err := h.contentService.Blogs(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取博客列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"list":  blogs,
			"total": total,
			"page":  page,
		},
	})
}

// GetBlog 返回单篇博客。
func (h *ContentHandler) GetBlog(c *gin.Context) {
	blogID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的博客 ID",
		})
		return
	}

	blog, err := h.contentService.GetBlog(uint(blogID))
	if err != nil {
		if errors.Is(err, service.ErrBlogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "博客不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取博客失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    blog,
	})
}

// PublishBlogRequest 定义了管理端发布博客的请求体结构。
type PublishBlogRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	CoverURL string `json:"coverUrl"`
}

// PublishBlog 管理端发布博客。
func (h *ContentHandler) PublishBlog(c *gin.Context) {
	var req PublishBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：title 和 content 不能为空",
		})
		return
	}

	blog := &model.Blog{
		Title:    req.Title,
		Content:  req.Content,
		CoverURL: req.CoverURL,
	}
	if err := h.contentService.PublishBlog(c.Request.Context(), blog); err != nil {
		log.Errorf("PublishBlog failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "发布博客失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    blog,
	})
}

// Contacts 返回联系信息列表。
func (h *ContentHandler) Contacts(c *gin.Context) {
	contacts, err := h.contentService.Contacts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取联系信息失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    contacts,
	})
}
