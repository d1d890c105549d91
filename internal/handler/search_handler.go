package handler

import (
	"net/http"
	"strconv"

	"amora-go/internal/service"
	"amora-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理内容搜索的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 在博客与顾问索引中检索。
// q 为检索词，type 可选（blog/advisor），size 限定返回条数。
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少 q 参数",
		})
		return
	}
	docType := c.Query("type")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	results, err := h.searchService.Search(c.Request.Context(), query, docType, size)
	if err != nil {
		log.Errorf("Search failed: q=%s, error: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "搜索失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    results,
	})
}
