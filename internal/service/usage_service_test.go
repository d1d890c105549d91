package service

import (
	"testing"

	"amora-go/internal/config"
	"amora-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUsageCreatesFreePlanRecord(t *testing.T) {
	repo := &fakeUsageRepo{}
	svc := NewUsageService(repo, config.UsageConfig{FreeMessages: 10, FreeVoiceMinutes: 5})

	usage, err := svc.EnsureUsage(7)
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, usage.PlanType)
	assert.Equal(t, 10, usage.MessagesLeft)
	assert.Equal(t, float64(5), usage.VoiceMinutesLeft)

	// 二次调用返回已有记录，不重复创建
	again, err := svc.EnsureUsage(7)
	require.NoError(t, err)
	assert.Equal(t, usage.UserID, again.UserID)
}

func TestPoolToSpendOrder(t *testing.T) {
	svc := NewUsageService(&fakeUsageRepo{}, config.UsageConfig{})

	pool, err := svc.PoolToSpend(&model.UserUsage{MessagesLeft: 3, CustomMessagesBalance: 5})
	require.NoError(t, err)
	assert.Equal(t, model.CreditTypeMessage, pool)

	pool, err = svc.PoolToSpend(&model.UserUsage{MessagesLeft: 0, CustomMessagesBalance: 5})
	require.NoError(t, err)
	assert.Equal(t, model.CreditTypeCustom, pool)

	_, err = svc.PoolToSpend(&model.UserUsage{MessagesLeft: 0, CustomMessagesBalance: 0})
	assert.ErrorIs(t, err, ErrOutOfCredits)
}

func TestApplyPlanResetsAllowance(t *testing.T) {
	repo := &fakeUsageRepo{usage: &model.UserUsage{UserID: 7, PlanType: model.PlanFree}}
	svc := NewUsageService(repo, config.UsageConfig{FreeMessages: 10, FreeVoiceMinutes: 5})

	require.NoError(t, svc.ApplyPlan(7, model.PlanPro))
	assert.Equal(t, model.PlanPro, repo.usage.PlanType)
	assert.Equal(t, 500, repo.usage.MessagesLeft)
	assert.Equal(t, float64(60), repo.usage.VoiceMinutesLeft)

	require.NoError(t, svc.ApplyPlan(7, model.PlanPremium))
	assert.Equal(t, 2000, repo.usage.MessagesLeft)
	assert.Equal(t, float64(300), repo.usage.VoiceMinutesLeft)
}

func TestTopUpCreditsRejectsNonPositiveAmount(t *testing.T) {
	svc := NewUsageService(&fakeUsageRepo{usage: &model.UserUsage{UserID: 7}}, config.UsageConfig{})

	assert.Error(t, svc.TopUpCredits(7, model.CreditTypeCustom, 0))
	assert.Error(t, svc.TopUpCredits(7, model.CreditTypeCustom, -3))
}

func TestDeductVoiceMinutesClampsAtZero(t *testing.T) {
	repo := &fakeUsageRepo{usage: &model.UserUsage{UserID: 7, VoiceMinutesLeft: 1.5}}
	svc := NewUsageService(repo, config.UsageConfig{})

	usage, err := svc.DeductVoiceMinutes(7, 10)
	require.NoError(t, err)
	assert.Equal(t, float64(0), usage.VoiceMinutesLeft)
}
