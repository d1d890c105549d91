// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 订阅方案枚举值。
const (
	PlanFree    = "free"
	PlanPro     = "pro"
	PlanPremium = "premium"
)

// 积分池类型，用于充值与扣减时区分主池和自定义加油包。
const (
	CreditTypeMessage = "message"
	CreditTypeCustom  = "custom"
	CreditTypeVoice   = "voice"
)

// UserUsage 对应于数据库中的 'user_usage' 表，每个用户一条。
// MessagesLeft 是主积分池，CustomMessagesBalance 是充值获得的次级积分池，
// 扣减时优先消耗主池。所有计数在任何扣减路径上都不允许为负。
type UserUsage struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                uint      `gorm:"uniqueIndex;not null" json:"userId"`
	MessagesLeft          int       `gorm:"not null;default:0" json:"messagesLeft"`
	CustomMessagesBalance int       `gorm:"not null;default:0" json:"customMessagesBalance"`
	VoiceMinutesLeft      float64   `gorm:"not null;default:0" json:"voiceMinutesLeft"`
	PlanType              string    `gorm:"type:varchar(20);not null;default:'free'" json:"planType"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserUsage) TableName() string {
	return "user_usage"
}

// TotalMessageCredits 返回两个积分池的总量，积分闸门以此判断是否放行。
func (u *UserUsage) TotalMessageCredits() int {
	return u.MessagesLeft + u.CustomMessagesBalance
}
