package service

import (
	"context"
	"testing"
	"time"

	"amora-go/internal/config"
	"amora-go/internal/model"
	"amora-go/internal/realtime"
	"amora-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discoveryFixture struct {
	svc           DiscoveryService
	discoveryRepo *fakeDiscoveryRepo
	profileRepo   *fakeProfileRepo
	submitter     *fakeSender
	hub           *realtime.Hub
}

func newDiscoveryFixture(cfg config.DiscoveryConfig) *discoveryFixture {
	discoveryRepo := newFakeDiscoveryRepo()
	profileRepo := &fakeProfileRepo{}
	settingRepo := &fakeSettingRepo{values: map[string]string{
		model.SettingDiscoveryWebhookURL: "https://n8n.example.com/webhook/discovery",
	}}
	advisorService := NewAdvisorService(&fakeAdvisorRepo{advisors: []model.Advisor{
		{ID: 1, Name: "Marcus"},
		{ID: 2, Name: "Chloé"},
	}})
	submitter := &fakeSender{}
	hub := realtime.NewHub()
	svc := NewDiscoveryService(discoveryRepo, profileRepo, settingRepo, advisorService, submitter, hub, cfg, config.WebhookConfig{})
	return &discoveryFixture{
		svc:           svc,
		discoveryRepo: discoveryRepo,
		profileRepo:   profileRepo,
		submitter:     submitter,
		hub:           hub,
	}
}

func TestSubmitTransitionsToPolling(t *testing.T) {
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1, MaxAttempts: 20, MaxElapsedSeconds: 120})

	session, err := f.svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"attachment": "主动和好"})
	require.NoError(t, err)
	assert.Equal(t, model.DiscoveryStatePolling, session.State)
	assert.False(t, session.StartedAt.IsZero())

	stored, err := f.discoveryRepo.GetSession(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.DiscoveryStatePolling, stored.State)
}

func TestSubmitWithoutWebhookURL(t *testing.T) {
	discoveryRepo := newFakeDiscoveryRepo()
	svc := NewDiscoveryService(discoveryRepo, &fakeProfileRepo{}, &fakeSettingRepo{},
		NewAdvisorService(&fakeAdvisorRepo{}), &fakeSender{}, realtime.NewHub(),
		config.DiscoveryConfig{}, config.WebhookConfig{})

	_, err := svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"a": "b"})
	assert.ErrorIs(t, err, ErrDiscoveryWebhookMissing)
}

func TestAwaitTimesOutAfterAttemptCeiling(t *testing.T) {
	// 分析结果永远不出现：必须在次数上限处终止，不能无限轮询
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1, MaxAttempts: 2, MaxElapsedSeconds: 120})

	_, err := f.svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"a": "b"})
	require.NoError(t, err)

	outcome, err := f.svc.Await(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.DiscoveryStateTimedOut, outcome.State)
	assert.Nil(t, outcome.Advisor)

	stored, _ := f.discoveryRepo.GetSession(context.Background(), 7)
	require.NotNil(t, stored)
	assert.Equal(t, model.DiscoveryStateTimedOut, stored.State)
	assert.False(t, stored.ShouldAutoChat)
}

func TestAwaitResolvesViaPollingPath(t *testing.T) {
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1, MaxAttempts: 20, MaxElapsedSeconds: 120})

	_, err := f.svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"a": "b"})
	require.NoError(t, err)

	// 第一次轮询前分析结果已经落库
	require.NoError(t, f.profileRepo.SetPersonaAnalysis(7, `{"recommended_advisors":["Chloe - The Fixer"],"summary":"回避型"}`))

	outcome, err := f.svc.Await(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.DiscoveryStateResolved, outcome.State)
	require.NotNil(t, outcome.Advisor)
	assert.Equal(t, "Chloé", outcome.Advisor.Name)
	assert.NotEmpty(t, outcome.SeedMessage)

	stored, _ := f.discoveryRepo.GetSession(context.Background(), 7)
	require.NotNil(t, stored)
	assert.True(t, stored.ShouldAutoChat)
	assert.Equal(t, uint(2), stored.AdvisorID)
}

func TestAwaitResolvesViaPushPath(t *testing.T) {
	// 推送信号先于轮询到达时直接终结，不等下一个轮询周期
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 30, MaxAttempts: 20, MaxElapsedSeconds: 120})

	_, err := f.svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"a": "b"})
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		f.hub.Publish(realtime.Event{
			Type:    "profile.analysis",
			UserID:  7,
			Payload: `{"recommended_advisors":["Marcus"]}`,
		})
	}()

	start := time.Now()
	outcome, err := f.svc.Await(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.DiscoveryStateResolved, outcome.State)
	require.NotNil(t, outcome.Advisor)
	assert.Equal(t, "Marcus", outcome.Advisor.Name)
	assert.Less(t, time.Since(start), 5*time.Second, "推送路径不应等待轮询周期")
}

func TestAwaitWithoutSession(t *testing.T) {
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1})

	_, err := f.svc.Await(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNoDiscoverySession)
}

func TestAwaitHonorsContextCancellation(t *testing.T) {
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 30, MaxAttempts: 20, MaxElapsedSeconds: 120})

	_, err := f.svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"a": "b"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = f.svc.Await(ctx, 7)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusResolvesWhenAnalysisAlreadyPresent(t *testing.T) {
	// "比预期慢"界面的手动刷新路径
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1, MaxAttempts: 20, MaxElapsedSeconds: 120})

	_, err := f.svc.Submit(context.Background(), 7, model.DiscoveryAnswers{"a": "b"})
	require.NoError(t, err)
	require.NoError(t, f.profileRepo.SetPersonaAnalysis(7, `{"recommended_advisors":["Chloé"]}`))

	outcome, err := f.svc.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.DiscoveryStateResolved, outcome.State)
}

func TestConsumeAutoChatIsOneShot(t *testing.T) {
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1})

	require.NoError(t, f.discoveryRepo.SaveSession(context.Background(), &model.DiscoverySession{
		UserID:         7,
		State:          model.DiscoveryStateResolved,
		ShouldAutoChat: true,
		AdvisorID:      2,
	}))

	advisorID, err := f.svc.ConsumeAutoChat(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(2), advisorID)

	// 第二次取走是无害的空操作
	advisorID, err = f.svc.ConsumeAutoChat(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, advisorID)
}

func TestApplyWritesAnalysisAndNotifies(t *testing.T) {
	f := newDiscoveryFixture(config.DiscoveryConfig{PollIntervalSeconds: 1})

	events := f.hub.Subscribe(7)
	defer f.hub.Unsubscribe(7, events)

	err := f.svc.Apply(context.Background(), tasks.AnalysisResult{
		UserID:  7,
		Payload: `{"recommended_advisors":["Chloé"]}`,
	})
	require.NoError(t, err)

	profile, err := f.profileRepo.FindByUserID(7)
	require.NoError(t, err)
	assert.True(t, profile.HasPersonaAnalysis())

	select {
	case event := <-events:
		assert.Equal(t, "profile.analysis", event.Type)
	case <-time.After(time.Second):
		t.Fatal("未收到 profile.analysis 事件")
	}
}
