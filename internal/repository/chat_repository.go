// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"amora-go/internal/model"

	"gorm.io/gorm"
)

// ChatRepository 接口定义了聊天记录的持久化操作。
type ChatRepository interface {
	Insert(ctx context.Context, msg *model.ChatMessage) error
	// InsertWithCreditSpend 在同一个事务中插入用户消息并从指定积分池扣减一条额度。
	// pool 取值 model.CreditTypeMessage 或 model.CreditTypeCustom。
	// 若积分池已空则整个事务回滚并返回 ErrInsufficientCredits。
	InsertWithCreditSpend(ctx context.Context, msg *model.ChatMessage, pool string) error
	ListByUserAndAdvisor(ctx context.Context, userID, advisorID uint, limit int) ([]model.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Insert 追加一条聊天记录。
func (r *chatRepository) Insert(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// InsertWithCreditSpend 将消息插入与积分扣减绑定为单个事务。
// 扣减使用带守卫条件的 UPDATE（pool > 0），从数据库层面保证计数不为负，
// 也保证并发发送不会把同一条额度扣两次。
func (r *chatRepository) InsertWithCreditSpend(ctx context.Context, msg *model.ChatMessage, pool string) error {
	column := "messages_left"
	if pool == model.CreditTypeCustom {
		column = "custom_messages_balance"
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		result := tx.Model(&model.UserUsage{}).
			Where("user_id = ? AND "+column+" > 0", msg.UserID).
			Update(column, gorm.Expr(column+" - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientCredits
		}
		return nil
	})
}

// ListByUserAndAdvisor 按创建时间升序返回某用户与某顾问之间的聊天时间线。
func (r *chatRepository) ListByUserAndAdvisor(ctx context.Context, userID, advisorID uint, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND advisor_id = ?", userID, advisorID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&messages).Error
	return messages, err
}
