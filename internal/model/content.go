// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// DiscoveryQuestion 对应于数据库中的 'discovery_questions' 表。
// Options 以 JSON 数组字符串存储候选项。
type DiscoveryQuestion struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Category  string    `gorm:"type:varchar(50);not null" json:"category"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Options   string    `gorm:"type:json" json:"options"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DiscoveryQuestion) TableName() string {
	return "discovery_questions"
}

// Coupon 对应于数据库中的 'coupons' 表。
type Coupon struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code       string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	PercentOff int        `gorm:"not null;default:0" json:"percentOff"`
	IsActive   bool       `gorm:"not null;default:true" json:"isActive"`
	ExpiresAt  *time.Time `gorm:"default:null" json:"expiresAt"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Coupon) TableName() string {
	return "coupons"
}

// Usable 判断优惠券当前是否可用。
func (c *Coupon) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}

// CreditRate 对应于数据库中的 'credit_rates' 表。
// 定义了每种积分类型的充值单价（分为单位）。
type CreditRate struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreditType   string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"creditType"`
	UnitPrice    int64     `gorm:"not null" json:"unitPrice"`
	Currency     string    `gorm:"type:varchar(10);not null;default:'usd'" json:"currency"`
	MinimumUnits int       `gorm:"not null;default:1" json:"minimumUnits"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CreditRate) TableName() string {
	return "credit_rates"
}

// Blog 对应于数据库中的 'blogs' 表。
type Blog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	CoverURL    string    `gorm:"type:varchar(512)" json:"coverUrl"`
	PublishedAt LocalTime `gorm:"autoCreateTime" json:"publishedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Blog) TableName() string {
	return "blogs"
}

// ContactDetail 对应于数据库中的 'contact_details' 表。
type ContactDetail struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Label string `gorm:"type:varchar(50);not null" json:"label"`
	Value string `gorm:"type:varchar(255);not null" json:"value"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ContactDetail) TableName() string {
	return "contact_details"
}
