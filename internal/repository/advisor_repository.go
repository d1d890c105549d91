// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"amora-go/internal/model"

	"gorm.io/gorm"
)

// AdvisorRepository 接口定义了顾问数据的读取操作。
// 顾问记录由管理侧供应，业务侧只读。
type AdvisorRepository interface {
	FindAll() ([]model.Advisor, error)
	FindByID(advisorID uint) (*model.Advisor, error)
	Count() (int64, error)
	Create(advisor *model.Advisor) error
	Update(advisor *model.Advisor) error
}

type advisorRepository struct {
	db *gorm.DB
}

// NewAdvisorRepository 创建一个新的 AdvisorRepository 实例。
func NewAdvisorRepository(db *gorm.DB) AdvisorRepository {
	return &advisorRepository{db: db}
}

// FindAll 按主键顺序返回所有顾问。
func (r *advisorRepository) FindAll() ([]model.Advisor, error) {
	var advisors []model.Advisor
	err := r.db.Order("id ASC").Find(&advisors).Error
	return advisors, err
}

// FindByID 根据 ID 查找顾问。
func (r *advisorRepository) FindByID(advisorID uint) (*model.Advisor, error) {
	var advisor model.Advisor
	err := r.db.First(&advisor, advisorID).Error
	if err != nil {
		return nil, err
	}
	return &advisor, nil
}

// Count 返回顾问总数，用于判断是否需要播种默认名单。
func (r *advisorRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Advisor{}).Count(&count).Error
	return count, err
}

// Create 新增一位顾问（管理接口使用）。
func (r *advisorRepository) Create(advisor *model.Advisor) error {
	return r.db.Create(advisor).Error
}

// Update 更新顾问记录（管理接口使用）。
func (r *advisorRepository) Update(advisor *model.Advisor) error {
	return r.db.Save(advisor).Error
}
