package service

import (
	"context"
	"errors"
	"math"
	"time"

	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/log"
	"amora-go/pkg/vapi"

	"gorm.io/gorm"
)

// ErrOutOfVoiceMinutes 表示剩余语音分钟数不足以发起通话。
var ErrOutOfVoiceMinutes = errors.New("out of voice minutes")

// ErrVoiceNotConfigured 表示顾问没有配置语音助手。
var ErrVoiceNotConfigured = errors.New("该顾问暂不支持语音通话")

// ErrCallNotFound 表示通话记录不存在。
var ErrCallNotFound = errors.New("通话记录不存在")

// CallStarter 抽象了语音服务的通话创建调用，便于在测试中替换。
type CallStarter interface {
	StartCall(ctx context.Context, req vapi.StartCallRequest) (*vapi.Call, error)
}

// VoiceService 定义了语音通话的业务接口。
type VoiceService interface {
	// StartCall 发起一次通话：剩余分钟数换算成通话时长硬上限。
	StartCall(ctx context.Context, userID, advisorID uint) (*model.CallLog, error)
	// EndCall 结束通话：按实际时长扣减分钟数并补全通话记录。
	EndCall(vapiCallID string, durationSeconds float64) (*model.UserUsage, error)
}

type voiceService struct {
	callRepo     repository.CallRepository
	advisorRepo  repository.AdvisorRepository
	usageService UsageService
	starter      CallStarter
}

// NewVoiceService 创建一个新的 VoiceService 实例。
func NewVoiceService(
	callRepo repository.CallRepository,
	advisorRepo repository.AdvisorRepository,
	usageService UsageService,
	starter CallStarter,
) VoiceService {
	return &voiceService{
		callRepo:     callRepo,
		advisorRepo:  advisorRepo,
		usageService: usageService,
		starter:      starter,
	}
}

// StartCall 发起通话。分钟余额为零时直接拒绝，不触达语音服务。
func (s *voiceService) StartCall(ctx context.Context, userID, advisorID uint) (*model.CallLog, error) {
	advisor, err := s.advisorRepo.FindByID(advisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdvisorNotFound
		}
		return nil, err
	}
	if advisor.VapiAssistantID == "" {
		return nil, ErrVoiceNotConfigured
	}

	usage, err := s.usageService.EnsureUsage(userID)
	if err != nil {
		return nil, err
	}
	if usage.VoiceMinutesLeft <= 0 {
		return nil, ErrOutOfVoiceMinutes
	}

	// 剩余分钟数换算成通话硬上限，向下取整到秒
	maxSeconds := int(math.Floor(usage.VoiceMinutesLeft * 60))

	call, err := s.starter.StartCall(ctx, vapi.StartCallRequest{
		AssistantID:        advisor.VapiAssistantID,
		UserID:             userID,
		MaxDurationSeconds: maxSeconds,
	})
	if err != nil {
		return nil, err
	}

	callLog := &model.CallLog{
		UserID:     userID,
		AdvisorID:  advisorID,
		VapiCallID: call.ID,
		StartedAt:  time.Now(),
	}
	if err := s.callRepo.Create(callLog); err != nil {
		return nil, err
	}
	log.Infof("语音通话已发起: userID=%d, advisorID=%d, callID=%s", userID, advisorID, call.ID)
	return callLog, nil
}

// EndCall 结束通话。分钟扣减在存储层以 0 为下限钳制。
func (s *voiceService) EndCall(vapiCallID string, durationSeconds float64) (*model.UserUsage, error) {
	callLog, err := s.callRepo.FindByVapiCallID(vapiCallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}

	minutes := durationSeconds / 60
	now := time.Now()
	if err := s.callRepo.End(callLog.ID, now, minutes); err != nil {
		return nil, err
	}
	return s.usageService.DeductVoiceMinutes(callLog.UserID, minutes)
}
