// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"

	"amora-go/internal/config"
	"amora-go/internal/model"
	"amora-go/internal/repository"

	"gorm.io/gorm"
)

// ErrOutOfCredits 表示两个消息积分池都已耗尽。
// 调用方应引导用户充值，而不是当作普通错误展示。
var ErrOutOfCredits = errors.New("out of message credits")

// UsageService 接口定义了用量与积分相关的业务操作。
type UsageService interface {
	GetUsage(userID uint) (*model.UserUsage, error)
	// EnsureUsage 读取用量记录，不存在时按免费方案初始化。
	EnsureUsage(userID uint) (*model.UserUsage, error)
	// PoolToSpend 根据当前用量决定本次消息从哪个积分池扣减。
	// 主池有余额时优先扣主池，否则扣自定义池；两池皆空返回 ErrOutOfCredits。
	PoolToSpend(usage *model.UserUsage) (string, error)
	ApplyPlan(userID uint, planType string) error
	TopUpCredits(userID uint, creditType string, amount int) error
	DeductVoiceMinutes(userID uint, minutes float64) (*model.UserUsage, error)
}

type usageService struct {
	usageRepo repository.UsageRepository
	cfg       config.UsageConfig
}

// NewUsageService 创建一个新的 UsageService 实例。
func NewUsageService(usageRepo repository.UsageRepository, cfg config.UsageConfig) UsageService {
	return &usageService{usageRepo: usageRepo, cfg: cfg}
}

// GetUsage 返回用户的用量记录。
func (s *usageService) GetUsage(userID uint) (*model.UserUsage, error) {
	return s.usageRepo.FindByUserID(userID)
}

// EnsureUsage 读取用量记录，缺失时按免费方案创建。
func (s *usageService) EnsureUsage(userID uint) (*model.UserUsage, error) {
	usage, err := s.usageRepo.FindByUserID(userID)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	usage = &model.UserUsage{
		UserID:           userID,
		MessagesLeft:     s.cfg.FreeMessages,
		VoiceMinutesLeft: s.cfg.FreeVoiceMinutes,
		PlanType:         model.PlanFree,
	}
	if err := s.usageRepo.Create(usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// PoolToSpend 实现扣减顺序：主池优先，其次自定义池。
func (s *usageService) PoolToSpend(usage *model.UserUsage) (string, error) {
	if usage.MessagesLeft > 0 {
		return model.CreditTypeMessage, nil
	}
	if usage.CustomMessagesBalance > 0 {
		return model.CreditTypeCustom, nil
	}
	return "", ErrOutOfCredits
}

// ApplyPlan 在订阅变更时重置额度。
func (s *usageService) ApplyPlan(userID uint, planType string) error {
	messages, voiceMinutes := planAllowance(planType, s.cfg)
	return s.usageRepo.ResetForPlan(userID, planType, messages, voiceMinutes)
}

// TopUpCredits 为指定积分池充值。
func (s *usageService) TopUpCredits(userID uint, creditType string, amount int) error {
	if amount <= 0 {
		return errors.New("top-up amount must be positive")
	}
	return s.usageRepo.TopUp(userID, creditType, amount)
}

// DeductVoiceMinutes 在通话结束后扣减语音分钟数，下限为 0。
func (s *usageService) DeductVoiceMinutes(userID uint, minutes float64) (*model.UserUsage, error) {
	if minutes <= 0 {
		return s.usageRepo.FindByUserID(userID)
	}
	return s.usageRepo.DeductVoiceMinutes(userID, minutes)
}

// planAllowance 返回各订阅方案的消息与语音额度。
func planAllowance(planType string, cfg config.UsageConfig) (int, float64) {
	switch planType {
	case model.PlanPro:
		return 500, 60
	case model.PlanPremium:
		return 2000, 300
	default:
		return cfg.FreeMessages, cfg.FreeVoiceMinutes
	}
}
