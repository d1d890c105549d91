// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"amora-go/internal/config"
	"amora-go/internal/model"
	"amora-go/internal/realtime"
	"amora-go/internal/repository"
	"amora-go/pkg/log"
	"amora-go/pkg/tasks"
	"amora-go/pkg/webhook"

	"gorm.io/gorm"
)

// ErrWebhookNotConfigured 表示顾问没有配置对话工作流地址或 API 密钥缺失。
var ErrWebhookNotConfigured = errors.New("advisor webhook not configured")

// ErrAdvisorNotFound 表示目标顾问不存在。
var ErrAdvisorNotFound = errors.New("advisor not found")

// connectionErrorReply 是远端失败时写入时间线的固定致歉回复。
// 已扣积分不退还。
const connectionErrorReply = "抱歉，我这边连接出了点问题，请稍后再试。"

// ChatSender 抽象了对话工作流的调用，便于在测试中替换。
type ChatSender interface {
	SendChat(ctx context.Context, webhookURL, apiKey string, req webhook.ChatRequest) (string, error)
}

// SpendPublisher 发布积分消费审计事件（尽力而为）。
type SpendPublisher func(event tasks.SpendEvent) error

// ChatExchange 是一次完整对话回合的结果：
// 已持久化的用户消息、顾问回复，以及回合结束后重新读取的用量。
type ChatExchange struct {
	UserMessage model.ChatMessage `json:"userMessage"`
	Reply       model.ChatMessage `json:"reply"`
	Usage       *model.UserUsage  `json:"usage"`
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	SendMessage(ctx context.Context, userID, advisorID uint, text string) (*ChatExchange, error)
	History(ctx context.Context, userID, advisorID uint) ([]model.ChatMessage, error)
}

type chatService struct {
	chatRepo     repository.ChatRepository
	settingRepo  repository.SettingRepository
	usageService UsageService
	advisorRepo  repository.AdvisorRepository
	sender       ChatSender
	hub          *realtime.Hub
	publishSpend SpendPublisher
	webhookCfg   config.WebhookConfig
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	chatRepo repository.ChatRepository,
	settingRepo repository.SettingRepository,
	usageService UsageService,
	advisorRepo repository.AdvisorRepository,
	sender ChatSender,
	hub *realtime.Hub,
	publishSpend SpendPublisher,
	webhookCfg config.WebhookConfig,
) ChatService {
	return &chatService{
		chatRepo:     chatRepo,
		settingRepo:  settingRepo,
		usageService: usageService,
		advisorRepo:  advisorRepo,
		sender:       sender,
		hub:          hub,
		publishSpend: publishSpend,
		webhookCfg:   webhookCfg,
	}
}

// SendMessage 执行一次完整的积分闸门对话回合：
//  1. 校验顾问存在且工作流配置完整（配置缺失不扣积分）；
//  2. 积分闸门：两池总额 <= 0 时直接拒绝，不落任何副作用；
//  3. 在同一个事务中持久化用户消息并扣减一条额度（主池优先）；
//  4. 调用顾问配置的工作流获取回复；
//  5. 远端失败时将固定致歉文案作为顾问回合写入时间线（积分不退）；
//  6. 持久化回复并重新读取用量，吸收其他入口的并发变更。
func (s *chatService) SendMessage(ctx context.Context, userID, advisorID uint, text string) (*ChatExchange, error) {
	advisor, err := s.advisorRepo.FindByID(advisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdvisorNotFound
		}
		return nil, err
	}

	// 解析工作流地址与 API 密钥。配置缺失在扣积分之前就拒绝，
	// 否则用户会为一条注定没有回复的消息买单。
	if advisor.N8nWebhookPath == "" {
		return nil, ErrWebhookNotConfigured
	}
	apiKey := s.resolveAPIKey()
	if apiKey == "" {
		return nil, ErrWebhookNotConfigured
	}

	// 积分闸门
	usage, err := s.usageService.EnsureUsage(userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.usageService.PoolToSpend(usage)
	if err != nil {
		return nil, err
	}

	// 消息落库与扣减绑定为单个事务；守卫条件兜底并发下的双重扣减
	userMsg := model.ChatMessage{
		UserID:    userID,
		AdvisorID: advisorID,
		Role:      model.RoleUser,
		Content:   text,
	}
	if err := s.chatRepo.InsertWithCreditSpend(ctx, &userMsg, pool); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, ErrOutOfCredits
		}
		return nil, err
	}

	// 调用工作流；任何失败都降级为时间线里的固定致歉回复
	replyText, err := s.sender.SendChat(ctx, advisor.N8nWebhookPath, apiKey, webhook.ChatRequest{
		Message:     text,
		AgentID:     advisor.ID,
		UserID:      userID,
		AdvisorName: advisor.Name,
	})
	if err != nil {
		log.Errorf("调用顾问工作流失败: userID=%d, advisor=%s, err=%v", userID, advisor.Name, err)
		replyText = connectionErrorReply
	}

	reply := model.ChatMessage{
		UserID:    userID,
		AdvisorID: advisorID,
		Role:      model.RoleAI,
		Content:   replyText,
	}
	if err := s.chatRepo.Insert(ctx, &reply); err != nil {
		return nil, err
	}

	s.hub.Publish(realtime.Event{
		Type:    "chat.reply",
		UserID:  userID,
		Payload: replyText,
	})

	// 审计事件尽力而为，失败只记日志
	s.emitSpend(userID, advisorID, pool)

	// 重新读取用量，吸收语音通话、订阅变更等入口的并发修改
	refreshed, err := s.usageService.GetUsage(userID)
	if err != nil {
		log.Warnf("回合结束后重新读取用量失败: userID=%d, err=%v", userID, err)
		refreshed = nil
	}

	return &ChatExchange{
		UserMessage: userMsg,
		Reply:       reply,
		Usage:       refreshed,
	}, nil
}

// History 返回用户与某位顾问之间的聊天时间线。
func (s *chatService) History(ctx context.Context, userID, advisorID uint) ([]model.ChatMessage, error) {
	return s.chatRepo.ListByUserAndAdvisor(ctx, userID, advisorID, 200)
}

// resolveAPIKey 优先从 system_settings 读取工作流 API 密钥，缺失时回退到配置文件。
func (s *chatService) resolveAPIKey() string {
	if key, err := s.settingRepo.Value(model.SettingN8nAPIKey); err == nil && key != "" {
		return key
	}
	return s.webhookCfg.APIKey
}

func (s *chatService) emitSpend(userID, advisorID uint, pool string) {
	if s.publishSpend == nil {
		return
	}
	remaining := float64(0)
	if usage, err := s.usageService.GetUsage(userID); err == nil {
		remaining = float64(usage.TotalMessageCredits())
	}
	event := tasks.SpendEvent{
		UserID:     userID,
		AdvisorID:  advisorID,
		CreditType: pool,
		Amount:     1,
		Remaining:  remaining,
		OccurredAt: time.Now(),
	}
	if err := s.publishSpend(event); err != nil {
		log.Warnf("发布积分消费事件失败: userID=%d, err=%v", userID, err)
	}
}
