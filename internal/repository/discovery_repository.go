// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"amora-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// 发现会话在 Redis 中的保留时长。超过该时长仍未终结的会话视为废弃。
const discoverySessionTTL = 24 * time.Hour

// DiscoveryRepository 定义了发现流程会话对象的存取接口。
// 会话对象取代了散落在本地键值存储里的 pending/auto-chat 标志位。
type DiscoveryRepository interface {
	GetSession(ctx context.Context, userID uint) (*model.DiscoverySession, error)
	SaveSession(ctx context.Context, session *model.DiscoverySession) error
	ClearSession(ctx context.Context, userID uint) error
}

type redisDiscoveryRepository struct {
	redisClient *redis.Client
}

// NewDiscoveryRepository 创建一个新的 DiscoveryRepository 实例。
func NewDiscoveryRepository(redisClient *redis.Client) DiscoveryRepository {
	return &redisDiscoveryRepository{redisClient: redisClient}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("discovery:session:%d", userID)
}

// GetSession 读取用户当前的发现会话，不存在时返回 nil。
func (r *redisDiscoveryRepository) GetSession(ctx context.Context, userID uint) (*model.DiscoverySession, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil // 没有进行中的会话
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discovery session: %w", err)
	}
	var session model.DiscoverySession
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal discovery session: %w", err)
	}
	return &session, nil
}

// SaveSession 在 Redis 中保存会话状态。
func (r *redisDiscoveryRepository) SaveSession(ctx context.Context, session *model.DiscoverySession) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery session: %w", err)
	}
	err = r.redisClient.Set(ctx, sessionKey(session.UserID), jsonData, discoverySessionTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set discovery session: %w", err)
	}
	return nil
}

// ClearSession 删除会话。对已删除会话重复清理是无害的空操作。
func (r *redisDiscoveryRepository) ClearSession(ctx context.Context, userID uint) error {
	return r.redisClient.Del(ctx, sessionKey(userID)).Err()
}
