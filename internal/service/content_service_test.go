package service

import (
	"context"
	"errors"
	"testing"

	"amora-go/internal/model"
	"amora-go/pkg/es"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchService struct {
	indexedBlogs []uint
	indexErr     error
}

func (f *fakeSearchService) IndexBlog(ctx context.Context, blog *model.Blog) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexedBlogs = append(f.indexedBlogs, blog.ID)
	return nil
}

func (f *fakeSearchService) IndexAdvisor(ctx context.Context, advisor *model.Advisor) error {
	return nil
}

func (f *fakeSearchService) Search(ctx context.Context, query, docType string, size int) ([]es.Document, error) {
	return nil, nil
}

func (f *fakeSearchService) ReindexAll(ctx context.Context) error {
	return nil
}

func TestQuestionsFallBackToBuiltIn(t *testing.T) {
	svc := NewContentService(&fakeContentRepo{}, &fakeSearchService{})

	questions, err := svc.Questions()
	require.NoError(t, err)
	require.Len(t, questions, 4)
	assert.Equal(t, "attachment", questions[0].Category)
}

func TestQuestionsPreferStoredRows(t *testing.T) {
	repo := &fakeContentRepo{questions: []model.DiscoveryQuestion{
		{ID: 10, Category: "custom", Question: "你更喜欢哪种约会？"},
	}}
	svc := NewContentService(repo, &fakeSearchService{})

	questions, err := svc.Questions()
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, uint(10), questions[0].ID)
}

func TestGetBlogNotFound(t *testing.T) {
	svc := NewContentService(&fakeContentRepo{}, &fakeSearchService{})

	_, err := svc.GetBlog(99)
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestPublishBlogSurvivesIndexFailure(t *testing.T) {
	repo := &fakeContentRepo{}
	search := &fakeSearchService{indexErr: errors.New("es down")}
	svc := NewContentService(repo, search)

	blog := &model.Blog{Title: "如何开启第一次对话"}
	require.NoError(t, svc.PublishBlog(context.Background(), blog))
	assert.Len(t, repo.blogs, 1)
}

func TestPublishBlogIndexesNewPost(t *testing.T) {
	repo := &fakeContentRepo{}
	search := &fakeSearchService{}
	svc := NewContentService(repo, search)

	blog := &model.Blog{Title: "异地恋的仪式感"}
	require.NoError(t, svc.PublishBlog(context.Background(), blog))
	require.Len(t, search.indexedBlogs, 1)
	assert.Equal(t, blog.ID, search.indexedBlogs[0])
}

func TestBlogsClampsPagination(t *testing.T) {
	repo := &fakeContentRepo{blogs: []model.Blog{{ID: 1, Title: "a"}}}
	svc := NewContentService(repo, &fakeSearchService{})

	list, total, err := svc.Blogs(-3, 9999)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(1), total)
}
