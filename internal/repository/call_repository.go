// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"time"

	"amora-go/internal/model"

	"gorm.io/gorm"
)

// CallRepository 接口定义了语音通话记录的持久化操作。
type CallRepository interface {
	Create(call *model.CallLog) error
	FindByVapiCallID(vapiCallID string) (*model.CallLog, error)
	End(callID uint, endedAt time.Time, durationMinutes float64) error
}

type callRepository struct {
	db *gorm.DB
}

// NewCallRepository 创建一个新的 CallRepository 实例。
func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepository{db: db}
}

// Create 创建一条通话记录。
func (r *callRepository) Create(call *model.CallLog) error {
	return r.db.Create(call).Error
}

// FindByVapiCallID 根据 Vapi 通话 ID 查找记录。
func (r *callRepository) FindByVapiCallID(vapiCallID string) (*model.CallLog, error) {
	var call model.CallLog
	err := r.db.Where("vapi_call_id = ?", vapiCallID).First(&call).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// End 结束一次通话并记录实际时长。
func (r *callRepository) End(callID uint, endedAt time.Time, durationMinutes float64) error {
	return r.db.Model(&model.CallLog{}).
		Where("id = ?", callID).
		Updates(map[string]interface{}{
			"ended_at":         endedAt,
			"duration_minutes": durationMinutes,
		}).Error
}
