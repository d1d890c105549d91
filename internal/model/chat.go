// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 消息角色。
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ChatMessage 对应于数据库中的 'chat_history' 表。
// 记录只追加不修改，按 CreatedAt 升序构成会话时间线。
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index:idx_chat_user_advisor;not null" json:"userId"`
	AdvisorID uint      `gorm:"index:idx_chat_user_advisor;not null" json:"advisorId"`
	Role      string    `gorm:"type:varchar(10);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatMessage) TableName() string {
	return "chat_history"
}
