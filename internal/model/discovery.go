// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 发现流程会话状态机的各个状态。
// 状态只能单向推进：idle -> submitting -> polling -> resolved / timed_out。
const (
	DiscoveryStateIdle       = "idle"
	DiscoveryStateSubmitting = "submitting"
	DiscoveryStatePolling    = "polling"
	DiscoveryStateResolved   = "resolved"
	DiscoveryStateTimedOut   = "timed_out"
)

// DiscoveryAnswers 是问卷类别到所选选项的映射，只在提交前存在于内存中。
type DiscoveryAnswers map[string]string

// DiscoverySession 是发现流程的会话对象，存储在 Redis 中并设置 TTL。
// 它取代了散落的 discovery_pending / should_auto_chat 标志位，
// 使状态归属于一个明确的会话实体。
type DiscoverySession struct {
	UserID         uint      `json:"userId"`
	State          string    `json:"state"`
	StartedAt      time.Time `json:"startedAt"`
	Attempts       int       `json:"attempts"`
	ShouldAutoChat bool      `json:"shouldAutoChat"`
	AdvisorID      uint      `json:"advisorId,omitempty"`
}

// Terminal 判断会话是否已经到达终态。对终态会话的清理是幂等的。
func (s *DiscoverySession) Terminal() bool {
	return s.State == DiscoveryStateResolved || s.State == DiscoveryStateTimedOut
}

// CallLog 对应于数据库中的 'call_logs' 表，记录每次语音通话及其分钟扣减。
type CallLog struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"userId"`
	AdvisorID       uint      `gorm:"index;not null" json:"advisorId"`
	VapiCallID      string    `gorm:"type:varchar(100)" json:"vapiCallId"`
	DurationMinutes float64   `gorm:"not null;default:0" json:"durationMinutes"`
	StartedAt       time.Time `gorm:"not null" json:"startedAt"`
	EndedAt         *time.Time `gorm:"default:null" json:"endedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CallLog) TableName() string {
	return "call_logs"
}
