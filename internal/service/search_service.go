package service

import (
	"context"
	"fmt"

	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/es"
	"amora-go/pkg/log"
)

// SearchService 定义了内容搜索的业务接口。
// 博客与顾问共用一个索引，以 doc_type 区分。
type SearchService interface {
	IndexBlog(ctx context.Context, blog *model.Blog) error
	IndexAdvisor(ctx context.Context, advisor *model.Advisor) error
	Search(ctx context.Context, query, docType string, size int) ([]es.Document, error)
	// ReindexAll 全量重建索引，启动时调用一次。
	ReindexAll(ctx context.Context) error
}

type searchService struct {
	contentRepo repository.ContentRepository
	advisorRepo repository.AdvisorRepository
	indexName   string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(contentRepo repository.ContentRepository, advisorRepo repository.AdvisorRepository, indexName string) SearchService {
	return &searchService{
		contentRepo: contentRepo,
		advisorRepo: advisorRepo,
		indexName:   indexName,
	}
}

// IndexBlog 把一篇博客写入搜索索引。
func (s *searchService) IndexBlog(ctx context.Context, blog *model.Blog) error {
	return es.IndexDocument(ctx, s.indexName, es.Document{
		DocID:   fmt.Sprintf("blog-%d", blog.ID),
		DocType: "blog",
		RefID:   blog.ID,
		Title:   blog.Title,
		Body:    blog.Content,
	})
}

// IndexAdvisor 把一位顾问写入搜索索引。
func (s *searchService) IndexAdvisor(ctx context.Context, advisor *model.Advisor) error {
	return es.IndexDocument(ctx, s.indexName, es.Document{
		DocID:     fmt.Sprintf("advisor-%d", advisor.ID),
		DocType:   "advisor",
		RefID:     advisor.ID,
		Title:     advisor.Name,
		Body:      advisor.Specialty,
		Specialty: advisor.Specialty,
	})
}

// Search 在索引中检索，docType 为空时跨类型检索。
func (s *searchService) Search(ctx context.Context, query, docType string, size int) ([]es.Document, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	return es.Search(ctx, s.indexName, query, docType, size)
}

// ReindexAll 全量重建索引。单篇失败只记日志，不中断整体流程。
func (s *searchService) ReindexAll(ctx context.Context) error {
	blogs, _, err := s.contentRepo.Blogs(0, 1000)
	if err != nil {
		return err
	}
	for i := range blogs {
		if err := s.IndexBlog(ctx, &blogs[i]); err != nil {
			log.Warnf("索引博客失败: blogID=%d, err=%v", blogs[i].ID, err)
		}
	}

	advisors, err := s.advisorRepo.FindAll()
	if err != nil {
		return err
	}
	for i := range advisors {
		if err := s.IndexAdvisor(ctx, &advisors[i]); err != nil {
			log.Warnf("索引顾问失败: advisorID=%d, err=%v", advisors[i].ID, err)
		}
	}
	log.Infof("搜索索引重建完成: blogs=%d, advisors=%d", len(blogs), len(advisors))
	return nil
}
