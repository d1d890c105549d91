package service

import (
	"testing"

	"amora-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRecommendedExactNameWinsRegardlessOfOrder(t *testing.T) {
	// 两种排列下精确匹配都必须命中同一位顾问
	orders := [][]model.Advisor{
		{{ID: 1, Name: "Marcus"}, {ID: 2, Name: "Sofia"}, {ID: 3, Name: "Chloé"}},
		{{ID: 3, Name: "Chloé"}, {ID: 1, Name: "Marcus"}, {ID: 2, Name: "Sofia"}},
	}
	for _, advisors := range orders {
		svc := NewAdvisorService(&fakeAdvisorRepo{advisors: advisors})
		got, err := svc.MatchRecommended("Sofia")
		require.NoError(t, err)
		assert.Equal(t, uint(2), got.ID)
	}
}

func TestMatchRecommendedSubstringWithDiacritics(t *testing.T) {
	svc := NewAdvisorService(&fakeAdvisorRepo{advisors: []model.Advisor{
		{ID: 1, Name: "Marcus"},
		{ID: 2, Name: "Chloé"},
	}})

	// 推荐名带后缀且不带变音符，应通过子串匹配命中 Chloé
	got, err := svc.MatchRecommended("Chloe - The Fixer")
	require.NoError(t, err)
	assert.Equal(t, "Chloé", got.Name)
}

func TestMatchRecommendedFallsBackToFixedAdvisor(t *testing.T) {
	svc := NewAdvisorService(&fakeAdvisorRepo{advisors: []model.Advisor{
		{ID: 1, Name: "Marcus"},
		{ID: 2, Name: "Chloé"},
	}})

	got, err := svc.MatchRecommended("完全不认识的名字")
	require.NoError(t, err)
	assert.Equal(t, "Chloé", got.Name)
}

func TestMatchRecommendedLastResortIsFirstAdvisor(t *testing.T) {
	// 名单里没有兜底人选时取第一位
	svc := NewAdvisorService(&fakeAdvisorRepo{advisors: []model.Advisor{
		{ID: 5, Name: "Marcus"},
		{ID: 6, Name: "Sofia"},
	}})

	got, err := svc.MatchRecommended("nobody")
	require.NoError(t, err)
	assert.Equal(t, uint(5), got.ID)
}

func TestListAdvisorsFallsBackToDefaults(t *testing.T) {
	svc := NewAdvisorService(&fakeAdvisorRepo{})

	advisors, err := svc.ListAdvisors()
	require.NoError(t, err)
	require.NotEmpty(t, advisors)
	assert.Equal(t, "Chloé", advisors[0].Name)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := &fakeAdvisorRepo{}
	svc := NewAdvisorService(repo)

	require.NoError(t, svc.SeedDefaults())
	seeded := len(repo.advisors)
	require.NotZero(t, seeded)

	require.NoError(t, svc.SeedDefaults())
	assert.Equal(t, seeded, len(repo.advisors))
}
