package service

import (
	"context"
	"errors"

	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/log"

	"gorm.io/gorm"
)

// ErrBlogNotFound 表示博客不存在。
var ErrBlogNotFound = errors.New("博客不存在")

// defaultQuestions 是 discovery_questions 表为空时的内置问卷。
var defaultQuestions = []model.DiscoveryQuestion{
	{ID: 1, Category: "attachment", Question: "争吵之后，你通常会怎么做？", Options: `["主动和好","等对方先开口","需要独处冷静","假装无事发生"]`, SortOrder: 1},
	{ID: 2, Category: "communication", Question: "表达不满时你更倾向于？", Options: `["直接说出来","旁敲侧击","写下来再谈","憋在心里"]`, SortOrder: 2},
	{ID: 3, Category: "pace", Question: "你理想的关系推进节奏是？", Options: `["顺其自然","确定了再投入","热烈而快速","慢热但坚定"]`, SortOrder: 3},
	{ID: 4, Category: "priority", Question: "关系中你最看重什么？", Options: `["安全感","新鲜感","共同成长","彼此独立"]`, SortOrder: 4},
}

// ContentService 定义了内容类数据的业务接口。
type ContentService interface {
	Questions() ([]model.DiscoveryQuestion, error)
	Blogs(page, pageSize int) ([]model.Blog, int64, error)
	GetBlog(blogID uint) (*model.Blog, error)
	// PublishBlog 创建博客并同步写入搜索索引。
	PublishBlog(ctx context.Context, blog *model.Blog) error
	Contacts() ([]model.ContactDetail, error)
}

type contentService struct {
	contentRepo repository.ContentRepository
	search      SearchService
}

// NewContentService 创建一个新的 ContentService 实例。
func NewContentService(contentRepo repository.ContentRepository, search SearchService) ContentService {
	return &contentService{contentRepo: contentRepo, search: search}
}

// Questions 返回问卷题目，表为空时回退到内置问卷。
func (s *contentService) Questions() ([]model.DiscoveryQuestion, error) {
	questions, err := s.contentRepo.Questions()
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return defaultQuestions, nil
	}
	return questions, nil
}

// Blogs 分页返回博客列表。
func (s *contentService) Blogs(page, pageSize int) ([]model.Blog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}
	return s.contentRepo.Blogs((page-1)*pageSize, pageSize)
}

// GetBlog 返回单篇博客。
func (s *contentService) GetBlog(blogID uint) (*model.Blog, error) {
	blog, err := s.contentRepo.FindBlogByID(blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return blog, nil
}

// PublishBlog 创建博客并写入搜索索引。索引失败不回滚落库，只记日志。
func (s *contentService) PublishBlog(ctx context.Context, blog *model.Blog) error {
	if err := s.contentRepo.CreateBlog(blog); err != nil {
		return err
	}
	if err := s.search.IndexBlog(ctx, blog); err != nil {
		log.Warnf("博客写入搜索索引失败: blogID=%d, err=%v", blog.ID, err)
	}
	return nil
}

// Contacts 返回联系信息列表。
func (s *contentService) Contacts() ([]model.ContactDetail, error) {
	return s.contentRepo.Contacts()
}
