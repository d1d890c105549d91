// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"amora-go/internal/model"

	"gorm.io/gorm"
)

// ContentRepository 接口聚合了只读参考数据的存取：
// 问卷题目、优惠券、积分价格、博客与联系方式。
type ContentRepository interface {
	Questions() ([]model.DiscoveryQuestion, error)
	FindCouponByCode(code string) (*model.Coupon, error)
	FindCreditRate(creditType string) (*model.CreditRate, error)
	CreditRates() ([]model.CreditRate, error)
	Blogs(offset, limit int) ([]model.Blog, int64, error)
	FindBlogByID(blogID uint) (*model.Blog, error)
	CreateBlog(blog *model.Blog) error
	Contacts() ([]model.ContactDetail, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository 创建一个新的 ContentRepository 实例。
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// Questions 按排序字段返回问卷题目。
func (r *contentRepository) Questions() ([]model.DiscoveryQuestion, error) {
	var questions []model.DiscoveryQuestion
	err := r.db.Order("sort_order ASC").Find(&questions).Error
	return questions, err
}

// FindCouponByCode 根据优惠码查找优惠券。
func (r *contentRepository) FindCouponByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindCreditRate 根据积分类型查找单价。
func (r *contentRepository) FindCreditRate(creditType string) (*model.CreditRate, error) {
	var rate model.CreditRate
	err := r.db.Where("credit_type = ?", creditType).First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// CreditRates 返回所有积分价格。
func (r *contentRepository) CreditRates() ([]model.CreditRate, error) {
	var rates []model.CreditRate
	err := r.db.Find(&rates).Error
	return rates, err
}

// Blogs 分页返回博客列表与总数。
func (r *contentRepository) Blogs(offset, limit int) ([]model.Blog, int64, error) {
	var blogs []model.Blog
	var total int64

	db := r.db.Model(&model.Blog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id DESC").Offset(offset).Limit(limit).Find(&blogs).Error
	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

// FindBlogByID 根据 ID 查找博客。
func (r *contentRepository) FindBlogByID(blogID uint) (*model.Blog, error) {
	var blog model.Blog
	err := r.db.First(&blog, blogID).Error
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

// CreateBlog 新增一篇博客（管理接口使用）。
func (r *contentRepository) CreateBlog(blog *model.Blog) error {
	return r.db.Create(blog).Error
}

// Contacts 返回联系方式列表。
func (r *contentRepository) Contacts() ([]model.ContactDetail, error) {
	var contacts []model.ContactDetail
	err := r.db.Find(&contacts).Error
	return contacts, err
}
