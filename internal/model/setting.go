// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// system_settings 表中约定的键名。
const (
	SettingN8nAPIKey           = "n8n_api_key"
	SettingDiscoveryWebhookURL = "discovery_webhook_url"
)

// SystemSetting 对应于数据库中的 'system_settings' 表。
// 存放按名字查找的键值配置（webhook 地址、API 密钥、价格等）。
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SystemSetting) TableName() string {
	return "system_settings"
}
