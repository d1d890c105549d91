// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"amora-go/internal/config"
	"amora-go/internal/model"
	"amora-go/internal/realtime"
	"amora-go/internal/repository"
	"amora-go/pkg/log"
	"amora-go/pkg/tasks"

	"gorm.io/gorm"
)

// ErrNoDiscoverySession 表示用户当前没有进行中的发现会话。
var ErrNoDiscoverySession = errors.New("no discovery session in progress")

// ErrDiscoveryWebhookMissing 表示发现分析工作流地址未配置。
var ErrDiscoveryWebhookMissing = errors.New("discovery webhook not configured")

// DiscoverySubmitter 抽象了问卷提交的工作流调用，便于在测试中替换。
type DiscoverySubmitter interface {
	SubmitDiscovery(ctx context.Context, webhookURL, apiKey string, userID uint, answers map[string]string) error
}

// DiscoveryOutcome 是发现流程终结时的产物。
// Resolved 时带推荐顾问与用于预置对话的上下文消息；TimedOut 时两者为空。
type DiscoveryOutcome struct {
	State       string         `json:"state"`
	Advisor     *model.Advisor `json:"advisor,omitempty"`
	SeedMessage string         `json:"seedMessage,omitempty"`
}

// DiscoveryService 定义了发现流程的业务接口。
// 状态机：idle -> submitting -> polling -> resolved / timed_out。
type DiscoveryService interface {
	Submit(ctx context.Context, userID uint, answers model.DiscoveryAnswers) (*model.DiscoverySession, error)
	// Await 阻塞等待分析完成：轮询与实时推送在同一个 select 中竞速，
	// 任一信号先到即终结；达到次数或时长上限则超时。
	Await(ctx context.Context, userID uint) (*DiscoveryOutcome, error)
	Status(ctx context.Context, userID uint) (*DiscoveryOutcome, error)
	// ConsumeAutoChat 取走自动开聊标记，返回目标顾问 ID；无标记时返回 0。
	ConsumeAutoChat(ctx context.Context, userID uint) (uint, error)
	// Apply 实现 kafka.AnalysisProcessor：分析结果落库并通知实时通道。
	Apply(ctx context.Context, result tasks.AnalysisResult) error
}

type discoveryService struct {
	discoveryRepo  repository.DiscoveryRepository
	profileRepo    repository.ProfileRepository
	settingRepo    repository.SettingRepository
	advisorService AdvisorService
	submitter      DiscoverySubmitter
	hub            *realtime.Hub
	cfg            config.DiscoveryConfig
	webhookCfg     config.WebhookConfig
}

// NewDiscoveryService 创建一个新的 DiscoveryService 实例。
func NewDiscoveryService(
	discoveryRepo repository.DiscoveryRepository,
	profileRepo repository.ProfileRepository,
	settingRepo repository.SettingRepository,
	advisorService AdvisorService,
	submitter DiscoverySubmitter,
	hub *realtime.Hub,
	cfg config.DiscoveryConfig,
	webhookCfg config.WebhookConfig,
) DiscoveryService {
	return &discoveryService{
		discoveryRepo:  discoveryRepo,
		profileRepo:    profileRepo,
		settingRepo:    settingRepo,
		advisorService: advisorService,
		submitter:      submitter,
		hub:            hub,
		cfg:            cfg,
		webhookCfg:     webhookCfg,
	}
}

// Submit 将问卷答案交给分析工作流并建立轮询会话。
// 提交本身是 fire-and-forget：工作流响应不影响会话推进。
func (s *discoveryService) Submit(ctx context.Context, userID uint, answers model.DiscoveryAnswers) (*model.DiscoverySession, error) {
	webhookURL := s.resolveWebhookURL()
	if webhookURL == "" {
		return nil, ErrDiscoveryWebhookMissing
	}

	session := &model.DiscoverySession{
		UserID:    userID,
		State:     model.DiscoveryStateSubmitting,
		StartedAt: time.Now(),
	}
	if err := s.discoveryRepo.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	// fire-and-forget：用独立的后台上下文，避免请求结束把提交一并取消
	go func() {
		submitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.submitter.SubmitDiscovery(submitCtx, webhookURL, s.webhookCfg.APIKey, userID, answers); err != nil {
			log.Errorf("提交发现问卷到工作流失败: userID=%d, err=%v", userID, err)
		}
	}()

	session.State = model.DiscoveryStatePolling
	if err := s.discoveryRepo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Await 等待分析完成。轮询读档案行与实时推送信号在同一个 select 中竞速，
// 先到者终结会话；达到次数或时长上限则进入超时终态。
func (s *discoveryService) Await(ctx context.Context, userID uint) (*DiscoveryOutcome, error) {
	session, err := s.discoveryRepo.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoDiscoverySession
	}
	if session.Terminal() {
		return s.outcomeFromSession(ctx, session)
	}

	events := s.hub.Subscribe(userID)
	defer s.hub.Unsubscribe(userID, events)

	interval := time.Duration(s.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxElapsed := time.Duration(s.cfg.MaxElapsedSeconds) * time.Second
	if maxElapsed <= 0 {
		maxElapsed = 120 * time.Second
	}
	maxAttempts := s.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 20
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case event := <-events:
			// 推送路径先到：直接用事件携带的分析结果终结
			if event.Type == "profile.analysis" {
				return s.resolve(ctx, session, event.Payload)
			}

		case <-ticker.C:
			// 轮询路径：重读档案行，观察 persona_analysis 是否已落库
			session.Attempts++
			profile, err := s.profileRepo.FindByUserID(userID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("轮询读取档案失败: userID=%d, err=%v", userID, err)
			}
			if profile != nil && profile.HasPersonaAnalysis() {
				return s.resolve(ctx, session, profile.PersonaAnalysis)
			}

			if session.Attempts >= maxAttempts || time.Since(session.StartedAt) >= maxElapsed {
				return s.timeout(ctx, session)
			}
			// 推进中间状态，崩溃后可恢复计数
			if err := s.discoveryRepo.SaveSession(ctx, session); err != nil {
				log.Warnf("保存发现会话失败: userID=%d, err=%v", userID, err)
			}
		}
	}
}

// Status 返回当前会话进度；档案已有分析结果而会话尚未终结时就地终结。
// 这是"分析比预期慢"界面上手动刷新按钮的落点。
func (s *discoveryService) Status(ctx context.Context, userID uint) (*DiscoveryOutcome, error) {
	session, err := s.discoveryRepo.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoDiscoverySession
	}
	if session.Terminal() {
		return s.outcomeFromSession(ctx, session)
	}

	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if profile != nil && profile.HasPersonaAnalysis() {
		return s.resolve(ctx, session, profile.PersonaAnalysis)
	}

	return &DiscoveryOutcome{State: session.State}, nil
}

// ConsumeAutoChat 取走自动开聊标记并清理会话。
// 会话已被清理时再次调用是无害的空操作。
func (s *discoveryService) ConsumeAutoChat(ctx context.Context, userID uint) (uint, error) {
	session, err := s.discoveryRepo.GetSession(ctx, userID)
	if err != nil {
		return 0, err
	}
	if session == nil || !session.ShouldAutoChat {
		return 0, nil
	}
	advisorID := session.AdvisorID
	if err := s.discoveryRepo.ClearSession(ctx, userID); err != nil {
		return 0, err
	}
	return advisorID, nil
}

// Apply 实现 kafka.AnalysisProcessor：工作流引擎发布的分析结果先落库，
// 再广播到实时通道，为 Await 中的推送路径提供信号。
func (s *discoveryService) Apply(ctx context.Context, result tasks.AnalysisResult) error {
	if err := s.profileRepo.SetPersonaAnalysis(result.UserID, result.Payload); err != nil {
		return fmt.Errorf("写入人格分析结果失败: %w", err)
	}
	s.hub.Publish(realtime.Event{
		Type:    "profile.analysis",
		UserID:  result.UserID,
		Payload: result.Payload,
	})
	return nil
}

// personaAnalysis 是分析结果中本服务关心的字段；其余内容原样保留不解析。
type personaAnalysis struct {
	RecommendedAdvisors []string `json:"recommended_advisors"`
	Summary             string   `json:"summary"`
}

// resolve 将会话推进到 resolved 终态：匹配推荐顾问并武装自动开聊标记。
func (s *discoveryService) resolve(ctx context.Context, session *model.DiscoverySession, payload string) (*DiscoveryOutcome, error) {
	if session.Terminal() {
		return s.outcomeFromSession(ctx, session)
	}

	var analysis personaAnalysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		log.Warnf("解析人格分析结果失败: userID=%d, err=%v", session.UserID, err)
	}
	recommended := ""
	if len(analysis.RecommendedAdvisors) > 0 {
		recommended = analysis.RecommendedAdvisors[0]
	}

	advisor, err := s.advisorService.MatchRecommended(recommended)
	if err != nil {
		return nil, err
	}

	session.State = model.DiscoveryStateResolved
	session.ShouldAutoChat = true
	session.AdvisorID = advisor.ID
	if err := s.discoveryRepo.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	return &DiscoveryOutcome{
		State:       model.DiscoveryStateResolved,
		Advisor:     advisor,
		SeedMessage: seedMessage(advisor, analysis.Summary),
	}, nil
}

// timeout 将会话推进到 timed_out 终态。
func (s *discoveryService) timeout(ctx context.Context, session *model.DiscoverySession) (*DiscoveryOutcome, error) {
	session.State = model.DiscoveryStateTimedOut
	session.ShouldAutoChat = false
	if err := s.discoveryRepo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("发现分析超时: userID=%d, attempts=%d", session.UserID, session.Attempts)
	return &DiscoveryOutcome{State: model.DiscoveryStateTimedOut}, nil
}

// outcomeFromSession 从已终结的会话还原产物。
func (s *discoveryService) outcomeFromSession(ctx context.Context, session *model.DiscoverySession) (*DiscoveryOutcome, error) {
	if session.State != model.DiscoveryStateResolved {
		return &DiscoveryOutcome{State: session.State}, nil
	}
	advisor, err := s.advisorService.GetAdvisor(session.AdvisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &DiscoveryOutcome{State: session.State}, nil
		}
		return nil, err
	}
	profile, perr := s.profileRepo.FindByUserID(session.UserID)
	summary := ""
	if perr == nil && profile.HasPersonaAnalysis() {
		var analysis personaAnalysis
		if json.Unmarshal([]byte(profile.PersonaAnalysis), &analysis) == nil {
			summary = analysis.Summary
		}
	}
	return &DiscoveryOutcome{
		State:       session.State,
		Advisor:     advisor,
		SeedMessage: seedMessage(advisor, summary),
	}, nil
}

// resolveWebhookURL 优先从 system_settings 读取发现工作流地址，缺失时回退到配置文件。
func (s *discoveryService) resolveWebhookURL() string {
	if url, err := s.settingRepo.Value(model.SettingDiscoveryWebhookURL); err == nil && url != "" {
		return url
	}
	return s.webhookCfg.DiscoveryURL
}

// seedMessage 构造自动开聊时预置的上下文消息。
func seedMessage(advisor *model.Advisor, summary string) string {
	if summary == "" {
		return fmt.Sprintf("你好，我是 %s。我看过你的恋爱风格分析了，我们聊聊吧。", advisor.Name)
	}
	return fmt.Sprintf("你好，我是 %s。根据你的分析（%s），我想先和你聊聊。", advisor.Name, summary)
}
