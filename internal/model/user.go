// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// Profile 对应于数据库中的 'profiles' 表，每个用户一条。
// PersonaAnalysis 是工作流引擎异步回写的人格分析结果（不透明 JSON），
// 为空字符串或 "{}" 时视为分析尚未完成。
type Profile struct {
	ID                    uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                uint       `gorm:"uniqueIndex;not null" json:"userId"`
	FullName              string     `gorm:"type:varchar(100)" json:"fullName"`
	PhotoURL              string     `gorm:"type:varchar(512)" json:"photoUrl"`
	PersonaAnalysis       string     `gorm:"type:json" json:"personaAnalysis"`
	OnboardingCompletedAt *time.Time `gorm:"default:null" json:"onboardingCompletedAt"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Profile) TableName() string {
	return "profiles"
}

// HasPersonaAnalysis 判断人格分析结果是否已经落库（非空 JSON 对象）。
func (p *Profile) HasPersonaAnalysis() bool {
	switch p.PersonaAnalysis {
	case "", "{}", "null":
		return false
	}
	return true
}
