package handler

import (
	"errors"
	"io"
	"net/http"

	"amora-go/internal/middleware"
	"amora-go/internal/service"
	"amora-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 负责处理支付相关的 API 请求。
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler 创建一个新的 PaymentHandler 实例。
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateSession 创建 Stripe 结算会话并返回跳转地址。
// userId 以认证身份为准，不信任请求体中的值。
func (h *PaymentHandler) CreateSession(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}
	req.UserID = middleware.CurrentUserID(c)

	url, err := h.paymentService.CreateCheckoutSession(req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCoupon),
			errors.Is(err, service.ErrUnknownCreditType),
			errors.Is(err, service.ErrBelowMinimumUnits):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": err.Error(),
			})
		default:
			log.Errorf("CreateSession failed: userID=%d, error: %v", req.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "创建结算会话失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"url": url},
	})
}

// Webhook 接收 Stripe 回调。该端点不经过认证中间件，靠签名校验。
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取回调负载失败"})
		return
	}

	if err := h.paymentService.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		log.Errorf("Stripe webhook failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// CreditRates 返回全部充值价目。
func (h *PaymentHandler) CreditRates(c *gin.Context) {
	rates, err := h.paymentService.CreditRates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取价目失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    rates,
	})
}

// ValidateCoupon 校验优惠码。
func (h *PaymentHandler) ValidateCoupon(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少 code 参数",
		})
		return
	}

	coupon, err := h.paymentService.ValidateCoupon(code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoupon) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "优惠码无效或已过期",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "校验优惠码失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    coupon,
	})
}
