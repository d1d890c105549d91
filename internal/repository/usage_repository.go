// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"errors"

	"amora-go/internal/model"

	"gorm.io/gorm"
)

// ErrInsufficientCredits 表示在扣减时指定积分池已经为空。
// 带守卫条件的 UPDATE 保证计数不会被扣成负数。
var ErrInsufficientCredits = errors.New("insufficient credits")

// UsageRepository 接口定义了用量记录的持久化操作。
type UsageRepository interface {
	FindByUserID(userID uint) (*model.UserUsage, error)
	Create(usage *model.UserUsage) error
	ResetForPlan(userID uint, planType string, messages int, voiceMinutes float64) error
	TopUp(userID uint, creditType string, amount int) error
	DeductVoiceMinutes(userID uint, minutes float64) (*model.UserUsage, error)
}

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository 创建一个新的 UsageRepository 实例。
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// FindByUserID 根据用户 ID 查找用量记录。
func (r *usageRepository) FindByUserID(userID uint) (*model.UserUsage, error) {
	var usage model.UserUsage
	err := r.db.Where("user_id = ?", userID).First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// Create 创建一条新的用量记录。
func (r *usageRepository) Create(usage *model.UserUsage) error {
	return r.db.Create(usage).Error
}

// ResetForPlan 在订阅方案变更时重置额度。
func (r *usageRepository) ResetForPlan(userID uint, planType string, messages int, voiceMinutes float64) error {
	return r.db.Model(&model.UserUsage{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"plan_type":          planType,
			"messages_left":      messages,
			"voice_minutes_left": voiceMinutes,
		}).Error
}

// TopUp 为指定积分池充值。
func (r *usageRepository) TopUp(userID uint, creditType string, amount int) error {
	column := "custom_messages_balance"
	switch creditType {
	case model.CreditTypeMessage:
		column = "messages_left"
	case model.CreditTypeVoice:
		return r.db.Model(&model.UserUsage{}).
			Where("user_id = ?", userID).
			Update("voice_minutes_left", gorm.Expr("voice_minutes_left + ?", float64(amount))).Error
	}
	return r.db.Model(&model.UserUsage{}).
		Where("user_id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", amount)).Error
}

// DeductVoiceMinutes 扣减语音分钟数并返回更新后的记录。
// 扣减量超过剩余量时直接清零（下限为 0）。
func (r *usageRepository) DeductVoiceMinutes(userID uint, minutes float64) (*model.UserUsage, error) {
	err := r.db.Model(&model.UserUsage{}).
		Where("user_id = ?", userID).
		Update("voice_minutes_left", gorm.Expr("GREATEST(voice_minutes_left - ?, 0)", minutes)).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserID(userID)
}
