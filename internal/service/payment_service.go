package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"amora-go/internal/config"
	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/log"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

// 结算会话的两种用途：订阅档位购买与积分充值。
const (
	CheckoutTypePlan    = "plan"
	CheckoutTypeCredits = "credits"
)

// ErrInvalidCoupon 表示优惠码不存在、已停用或已过期。
var ErrInvalidCoupon = errors.New("优惠码无效或已过期")

// ErrUnknownCreditType 表示充值请求中的积分类型没有对应的价目。
var ErrUnknownCreditType = errors.New("未知的积分类型")

// ErrBelowMinimumUnits 表示充值数量低于价目要求的最小单位数。
var ErrBelowMinimumUnits = errors.New("充值数量低于最小单位数")

// CheckoutRequest 是创建结算会话的输入。
// Type 为 plan 时 PlanType 生效；为 credits 时 Credits/CreditType 生效。
type CheckoutRequest struct {
	UserID     uint   `json:"userId"`
	Type       string `json:"type"`
	PlanType   string `json:"planType"`
	Amount     int64  `json:"amount"` // 档位购买时的金额，单位为分
	Credits    int    `json:"credits"`
	CreditType string `json:"creditType"`
	Origin     string `json:"origin"`
	CouponCode string `json:"couponCode"`
}

// PaymentService 定义了支付相关的业务接口。
type PaymentService interface {
	// CreateCheckoutSession 创建 Stripe 结算会话并返回跳转地址。
	CreateCheckoutSession(req CheckoutRequest) (string, error)
	// HandleWebhook 校验 Stripe 回调签名，结算完成后兑现档位或积分。
	HandleWebhook(payload []byte, signature string) error
	CreditRates() ([]model.CreditRate, error)
	ValidateCoupon(code string) (*model.Coupon, error)
}

type paymentService struct {
	contentRepo  repository.ContentRepository
	usageService UsageService
	cfg          config.StripeConfig
}

// NewPaymentService 创建一个新的 PaymentService 实例。
// 全局 stripe.Key 在这里设置一次。
func NewPaymentService(contentRepo repository.ContentRepository, usageService UsageService, cfg config.StripeConfig) PaymentService {
	stripe.Key = cfg.SecretKey
	return &paymentService{
		contentRepo:  contentRepo,
		usageService: usageService,
		cfg:          cfg,
	}
}

// CreateCheckoutSession 创建 Stripe 结算会话。
// 积分充值的金额由 credit_rates 价目计算，不信任客户端传入的金额。
func (s *paymentService) CreateCheckoutSession(req CheckoutRequest) (string, error) {
	amount, description, err := s.priceFor(req)
	if err != nil {
		return "", err
	}

	// 优惠码按百分比折价
	if req.CouponCode != "" {
		coupon, err := s.ValidateCoupon(req.CouponCode)
		if err != nil {
			return "", err
		}
		amount = amount * int64(100-coupon.PercentOff) / 100
	}
	if amount < 50 {
		// Stripe 对过低金额会拒单
		amount = 50
	}

	successURL := s.cfg.SuccessURL
	cancelURL := s.cfg.CancelURL
	if req.Origin != "" {
		successURL = req.Origin + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
		cancelURL = req.Origin + "/payment/cancel"
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"userId":     strconv.FormatUint(uint64(req.UserID), 10),
			"type":       req.Type,
			"planType":   req.PlanType,
			"credits":    strconv.Itoa(req.Credits),
			"creditType": req.CreditType,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("创建 Stripe 结算会话失败: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook 处理 Stripe 回调。签名校验失败直接拒绝。
func (s *paymentService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		return fmt.Errorf("校验 Stripe 回调签名失败: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("解析结算会话失败: %w", err)
		}
		return s.fulfill(sess.Metadata)
	default:
		log.Debugf("忽略未处理的 Stripe 事件: %s", event.Type)
	}
	return nil
}

// fulfill 按结算会话的元数据兑现购买内容。
func (s *paymentService) fulfill(metadata map[string]string) error {
	userID64, err := strconv.ParseUint(metadata["userId"], 10, 64)
	if err != nil {
		return fmt.Errorf("结算会话缺少有效的 userId: %w", err)
	}
	userID := uint(userID64)

	switch metadata["type"] {
	case CheckoutTypePlan:
		planType := metadata["planType"]
		if planType != model.PlanPro && planType != model.PlanPremium {
			return fmt.Errorf("结算会话包含未知档位: %q", planType)
		}
		if err := s.usageService.ApplyPlan(userID, planType); err != nil {
			return err
		}
		log.Infof("档位购买兑现完成: userID=%d, plan=%s", userID, planType)
		return nil

	case CheckoutTypeCredits:
		credits, err := strconv.Atoi(metadata["credits"])
		if err != nil || credits <= 0 {
			return fmt.Errorf("结算会话包含无效的积分数量: %q", metadata["credits"])
		}
		if err := s.usageService.TopUpCredits(userID, metadata["creditType"], credits); err != nil {
			return err
		}
		log.Infof("积分充值兑现完成: userID=%d, type=%s, credits=%d", userID, metadata["creditType"], credits)
		return nil
	}
	return fmt.Errorf("结算会话包含未知类型: %q", metadata["type"])
}

// priceFor 计算本次结算的金额与展示名。
func (s *paymentService) priceFor(req CheckoutRequest) (int64, string, error) {
	switch req.Type {
	case CheckoutTypePlan:
		if req.Amount <= 0 {
			return 0, "", errors.New("档位购买金额必须为正")
		}
		return req.Amount, fmt.Sprintf("Amora %s 订阅", req.PlanType), nil

	case CheckoutTypeCredits:
		rate, err := s.contentRepo.FindCreditRate(req.CreditType)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, "", ErrUnknownCreditType
			}
			return 0, "", err
		}
		if req.Credits < rate.MinimumUnits {
			return 0, "", ErrBelowMinimumUnits
		}
		return rate.UnitPrice * int64(req.Credits), fmt.Sprintf("Amora 积分充值 x%d", req.Credits), nil
	}
	return 0, "", fmt.Errorf("未知的结算类型: %q", req.Type)
}

// CreditRates 返回全部充值价目。
func (s *paymentService) CreditRates() ([]model.CreditRate, error) {
	return s.contentRepo.CreditRates()
}

// ValidateCoupon 校验优惠码是否可用。
func (s *paymentService) ValidateCoupon(code string) (*model.Coupon, error) {
	coupon, err := s.contentRepo.FindCouponByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCoupon
		}
		return nil, err
	}
	if !coupon.Usable(time.Now()) {
		return nil, ErrInvalidCoupon
	}
	return coupon, nil
}
