package service

import (
	"context"
	"sync"
	"time"

	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/vapi"
	"amora-go/pkg/webhook"

	"gorm.io/gorm"
)

// 本文件提供 service 层测试共用的内存实现，覆盖各 repository 接口与外部客户端。

type fakeUsageRepo struct {
	mu    sync.Mutex
	usage *model.UserUsage
}

func (f *fakeUsageRepo) FindByUserID(userID uint) (*model.UserUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usage == nil || f.usage.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.usage
	return &copied, nil
}

func (f *fakeUsageRepo) Create(usage *model.UserUsage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = usage
	return nil
}

func (f *fakeUsageRepo) ResetForPlan(userID uint, planType string, messages int, voiceMinutes float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage.PlanType = planType
	f.usage.MessagesLeft = messages
	f.usage.VoiceMinutesLeft = voiceMinutes
	return nil
}

func (f *fakeUsageRepo) TopUp(userID uint, creditType string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch creditType {
	case model.CreditTypeMessage:
		f.usage.MessagesLeft += amount
	case model.CreditTypeVoice:
		f.usage.VoiceMinutesLeft += float64(amount)
	default:
		f.usage.CustomMessagesBalance += amount
	}
	return nil
}

func (f *fakeUsageRepo) DeductVoiceMinutes(userID uint, minutes float64) (*model.UserUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage.VoiceMinutesLeft -= minutes
	if f.usage.VoiceMinutesLeft < 0 {
		f.usage.VoiceMinutesLeft = 0
	}
	copied := *f.usage
	return &copied, nil
}

// fakeChatRepo 模拟消息插入与积分扣减绑定的事务语义。
type fakeChatRepo struct {
	mu       sync.Mutex
	messages []model.ChatMessage
	usage    *fakeUsageRepo
	nextID   uint
}

func (f *fakeChatRepo) Insert(ctx context.Context, msg *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChatRepo) InsertWithCreditSpend(ctx context.Context, msg *model.ChatMessage, pool string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage.mu.Lock()
	defer f.usage.mu.Unlock()

	switch pool {
	case model.CreditTypeMessage:
		if f.usage.usage.MessagesLeft <= 0 {
			return repository.ErrInsufficientCredits
		}
		f.usage.usage.MessagesLeft--
	default:
		if f.usage.usage.CustomMessagesBalance <= 0 {
			return repository.ErrInsufficientCredits
		}
		f.usage.usage.CustomMessagesBalance--
	}

	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChatRepo) ListByUserAndAdvisor(ctx context.Context, userID, advisorID uint, limit int) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range f.messages {
		if m.UserID == userID && m.AdvisorID == advisorID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeAdvisorRepo struct {
	advisors []model.Advisor
}

func (f *fakeAdvisorRepo) FindAll() ([]model.Advisor, error) {
	return append([]model.Advisor(nil), f.advisors...), nil
}

func (f *fakeAdvisorRepo) FindByID(advisorID uint) (*model.Advisor, error) {
	for i := range f.advisors {
		if f.advisors[i].ID == advisorID {
			copied := f.advisors[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdvisorRepo) Count() (int64, error) {
	return int64(len(f.advisors)), nil
}

func (f *fakeAdvisorRepo) Create(advisor *model.Advisor) error {
	advisor.ID = uint(len(f.advisors) + 1)
	f.advisors = append(f.advisors, *advisor)
	return nil
}

func (f *fakeAdvisorRepo) Update(advisor *model.Advisor) error {
	for i := range f.advisors {
		if f.advisors[i].ID == advisor.ID {
			f.advisors[i] = *advisor
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeSettingRepo struct {
	values map[string]string
}

func (f *fakeSettingRepo) Value(name string) (string, error) {
	if v, ok := f.values[name]; ok {
		return v, nil
	}
	return "", gorm.ErrRecordNotFound
}

func (f *fakeSettingRepo) Set(name, value string) error {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[name] = value
	return nil
}

type fakeProfileRepo struct {
	mu      sync.Mutex
	profile *model.Profile
}

func (f *fakeProfileRepo) FindByUserID(userID uint) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil || f.profile.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.profile
	return &copied, nil
}

func (f *fakeProfileRepo) Upsert(profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = profile
	return nil
}

func (f *fakeProfileRepo) SetPersonaAnalysis(userID uint, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		f.profile = &model.Profile{UserID: userID}
	}
	f.profile.PersonaAnalysis = payload
	return nil
}

func (f *fakeProfileRepo) SetPhotoURL(userID uint, photoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		f.profile = &model.Profile{UserID: userID}
	}
	f.profile.PhotoURL = photoURL
	return nil
}

// fakeDiscoveryRepo 以内存 map 替代 Redis 会话存储。
type fakeDiscoveryRepo struct {
	mu       sync.Mutex
	sessions map[uint]*model.DiscoverySession
}

func newFakeDiscoveryRepo() *fakeDiscoveryRepo {
	return &fakeDiscoveryRepo{sessions: make(map[uint]*model.DiscoverySession)}
}

func (f *fakeDiscoveryRepo) GetSession(ctx context.Context, userID uint) (*model.DiscoverySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeDiscoveryRepo) SaveSession(ctx context.Context, session *model.DiscoverySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.UserID] = &copied
	return nil
}

func (f *fakeDiscoveryRepo) ClearSession(ctx context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	return nil
}

// fakeSender 记录工作流调用并返回预设的回复或错误。
type fakeSender struct {
	mu      sync.Mutex
	calls   []webhook.ChatRequest
	submits int
	reply   string
	err     error
}

func (f *fakeSender) SendChat(ctx context.Context, webhookURL, apiKey string, req webhook.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeSender) SubmitDiscovery(ctx context.Context, webhookURL, apiKey string, userID uint, answers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return f.err
}

func (f *fakeSender) chatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCallRepo struct {
	mu    sync.Mutex
	calls []model.CallLog
}

func (f *fakeCallRepo) Create(call *model.CallLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call.ID = uint(len(f.calls) + 1)
	f.calls = append(f.calls, *call)
	return nil
}

func (f *fakeCallRepo) FindByVapiCallID(vapiCallID string) (*model.CallLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.calls {
		if f.calls[i].VapiCallID == vapiCallID {
			copied := f.calls[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCallRepo) End(callID uint, endedAt time.Time, durationMinutes float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.calls {
		if f.calls[i].ID == callID {
			f.calls[i].EndedAt = &endedAt
			f.calls[i].DurationMinutes = durationMinutes
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeCallStarter struct {
	mu       sync.Mutex
	requests []vapi.StartCallRequest
	err      error
}

func (f *fakeCallStarter) StartCall(ctx context.Context, req vapi.StartCallRequest) (*vapi.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &vapi.Call{ID: "call-1", Status: "queued"}, nil
}
