package service

import (
	"context"
	"testing"

	"amora-go/internal/config"
	"amora-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVoiceFixture(usage *model.UserUsage) (VoiceService, *fakeCallRepo, *fakeCallStarter, *fakeUsageRepo) {
	usageRepo := &fakeUsageRepo{usage: usage}
	callRepo := &fakeCallRepo{}
	starter := &fakeCallStarter{}
	advisorRepo := &fakeAdvisorRepo{advisors: []model.Advisor{
		{ID: 1, Name: "Chloé", VapiAssistantID: "asst-1"},
		{ID: 2, Name: "Marcus"}, // 未配置语音助手
	}}
	usageService := NewUsageService(usageRepo, config.UsageConfig{})
	svc := NewVoiceService(callRepo, advisorRepo, usageService, starter)
	return svc, callRepo, starter, usageRepo
}

func TestStartCallRejectsWithoutMinutes(t *testing.T) {
	svc, callRepo, starter, _ := newVoiceFixture(&model.UserUsage{UserID: 7, VoiceMinutesLeft: 0})

	_, err := svc.StartCall(context.Background(), 7, 1)

	assert.ErrorIs(t, err, ErrOutOfVoiceMinutes)
	assert.Empty(t, callRepo.calls)
	assert.Empty(t, starter.requests, "闸门拒绝时不应触达语音服务")
}

func TestStartCallCapsDurationByRemainingMinutes(t *testing.T) {
	svc, callRepo, starter, _ := newVoiceFixture(&model.UserUsage{UserID: 7, VoiceMinutesLeft: 2.5})

	callLog, err := svc.StartCall(context.Background(), 7, 1)
	require.NoError(t, err)

	require.Len(t, starter.requests, 1)
	assert.Equal(t, "asst-1", starter.requests[0].AssistantID)
	assert.Equal(t, uint(7), starter.requests[0].UserID)
	assert.Equal(t, 150, starter.requests[0].MaxDurationSeconds)

	assert.Equal(t, "call-1", callLog.VapiCallID)
	require.Len(t, callRepo.calls, 1)
}

func TestStartCallWithoutAssistant(t *testing.T) {
	svc, _, _, _ := newVoiceFixture(&model.UserUsage{UserID: 7, VoiceMinutesLeft: 5})

	_, err := svc.StartCall(context.Background(), 7, 2)
	assert.ErrorIs(t, err, ErrVoiceNotConfigured)
}

func TestEndCallDeductsMinutes(t *testing.T) {
	svc, callRepo, _, usageRepo := newVoiceFixture(&model.UserUsage{UserID: 7, VoiceMinutesLeft: 5})

	_, err := svc.StartCall(context.Background(), 7, 1)
	require.NoError(t, err)

	usage, err := svc.EndCall("call-1", 90) // 1.5 分钟
	require.NoError(t, err)
	assert.InDelta(t, 3.5, usage.VoiceMinutesLeft, 0.001)

	require.NotNil(t, callRepo.calls[0].EndedAt)
	assert.InDelta(t, 1.5, callRepo.calls[0].DurationMinutes, 0.001)
	assert.InDelta(t, 3.5, usageRepo.usage.VoiceMinutesLeft, 0.001)
}

func TestEndCallUnknownCall(t *testing.T) {
	svc, _, _, _ := newVoiceFixture(&model.UserUsage{UserID: 7, VoiceMinutesLeft: 5})

	_, err := svc.EndCall("missing", 60)
	assert.ErrorIs(t, err, ErrCallNotFound)
}
