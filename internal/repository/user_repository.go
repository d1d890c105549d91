// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"amora-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(user *model.User) error
	FindByUsername(username string) (*model.User, error)
	FindByID(userID uint) (*model.User, error)
	Update(user *model.User) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByUsername 根据用户名从数据库中查找一个用户。
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(userID uint) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 更新数据库中一个已存在的用户记录。
func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// ProfileRepository 接口定义了用户档案的持久化操作。
// persona_analysis 字段是发现流程轮询所观察的信号。
type ProfileRepository interface {
	FindByUserID(userID uint) (*model.Profile, error)
	Upsert(profile *model.Profile) error
	SetPersonaAnalysis(userID uint, payload string) error
	SetPhotoURL(userID uint, photoURL string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByUserID 根据用户 ID 查找档案。
func (r *profileRepository) FindByUserID(userID uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert 以 user_id 为冲突键插入或更新档案。
func (r *profileRepository) Upsert(profile *model.Profile) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "onboarding_completed_at"}),
	}).Create(profile).Error
}

// SetPersonaAnalysis 将人格分析结果写入档案。
// 分析结果可能先于问卷档案到达，因此这里按 user_id 插入或更新。
func (r *profileRepository) SetPersonaAnalysis(userID uint, payload string) error {
	var profile model.Profile
	return r.db.Where(model.Profile{UserID: userID}).
		Assign(map[string]interface{}{"persona_analysis": payload}).
		FirstOrCreate(&profile).Error
}

// SetPhotoURL 更新档案的头像对象地址。
func (r *profileRepository) SetPhotoURL(userID uint, photoURL string) error {
	return r.db.Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("photo_url", photoURL).Error
}
