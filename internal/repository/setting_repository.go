// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"sync"

	"amora-go/internal/model"

	"gorm.io/gorm"
)

// SettingRepository 接口定义了按名字读取系统设置的操作。
type SettingRepository interface {
	Value(name string) (string, error)
	Set(name, value string) error
}

// settingRepository 带一层进程内缓存，设置项读多写少。
type settingRepository struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]string
}

// NewSettingRepository 创建一个新的 SettingRepository 实例。
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{
		db:    db,
		cache: make(map[string]string),
	}
}

// Value 返回指定设置项的值，未找到时返回 gorm.ErrRecordNotFound。
func (r *settingRepository) Value(name string) (string, error) {
	r.mu.RLock()
	if v, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	var setting model.SystemSetting
	if err := r.db.Where("name = ?", name).First(&setting).Error; err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[name] = setting.Value
	r.mu.Unlock()
	return setting.Value, nil
}

// Set 写入设置项并刷新缓存。
func (r *settingRepository) Set(name, value string) error {
	err := r.db.Where("name = ?", name).
		Assign(model.SystemSetting{Name: name, Value: value}).
		FirstOrCreate(&model.SystemSetting{}).Error
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cache[name] = value
	r.mu.Unlock()
	return nil
}
