// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Advisor 对应于数据库中的 'advisors' 表。
// 顾问是由 AI 驱动的人设，N8nWebhookPath 指向其对话工作流，
// VapiAssistantID 绑定语音通话助手。
type Advisor struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	Specialty       string    `gorm:"type:varchar(255)" json:"specialty"`
	ImageURL        string    `gorm:"type:varchar(512)" json:"imageUrl"`
	N8nWebhookPath  string    `gorm:"type:varchar(512)" json:"n8nWebhookPath"`
	VapiAssistantID string    `gorm:"type:varchar(100)" json:"vapiAssistantId"`
	IsOnline        bool      `gorm:"not null;default:true" json:"isOnline"`
	Rating          float64   `gorm:"not null;default:0" json:"rating"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Advisor) TableName() string {
	return "advisors"
}
