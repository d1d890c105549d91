// Package tasks defines the structures for events that travel through Kafka.
package tasks

import "time"

// SpendEvent 是一次积分消费的审计事件，由聊天/语音流程发布。
type SpendEvent struct {
	UserID     uint      `json:"user_id"`
	AdvisorID  uint      `json:"advisor_id"`
	CreditType string    `json:"credit_type"`
	Amount     float64   `json:"amount"`
	Remaining  float64   `json:"remaining"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AnalysisResult 是工作流引擎完成人格分析后发布的结果事件。
// Payload 是不透明的 JSON 对象，原样写入 profiles.persona_analysis。
type AnalysisResult struct {
	UserID  uint   `json:"user_id"`
	Payload string `json:"payload"`
}
