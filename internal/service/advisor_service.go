// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"strings"

	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/log"

	"gorm.io/gorm"
)

// fallbackAdvisorName 是分析结果无法匹配任何顾问时使用的固定兜底人选。
const fallbackAdvisorName = "Chloé"

// defaultAdvisors 是顾问表为空时使用的内置名单。
// 这是唯一的默认数据来源，播种与兜底读取共用。
var defaultAdvisors = []model.Advisor{
	{Name: "Chloé", Specialty: "The Fixer · 挽回与修复专家", N8nWebhookPath: "", IsOnline: true, Rating: 4.9},
	{Name: "Marcus", Specialty: "直球恋爱教练", N8nWebhookPath: "", IsOnline: true, Rating: 4.7},
	{Name: "Sofia", Specialty: "亲密关系咨询", N8nWebhookPath: "", IsOnline: true, Rating: 4.8},
	{Name: "Jade", Specialty: "聊天与暧昧话术", N8nWebhookPath: "", IsOnline: false, Rating: 4.6},
}

// AdvisorService 接口定义了顾问相关的业务操作。
type AdvisorService interface {
	ListAdvisors() ([]model.Advisor, error)
	GetAdvisor(advisorID uint) (*model.Advisor, error)
	// MatchRecommended 根据分析结果中的推荐名字解析目标顾问。
	MatchRecommended(recommendedName string) (*model.Advisor, error)
	SeedDefaults() error
	CreateAdvisor(advisor *model.Advisor) error
	UpdateAdvisor(advisor *model.Advisor) error
}

type advisorService struct {
	advisorRepo repository.AdvisorRepository
}

// NewAdvisorService 创建一个新的 AdvisorService 实例。
func NewAdvisorService(advisorRepo repository.AdvisorRepository) AdvisorService {
	return &advisorService{advisorRepo: advisorRepo}
}

// ListAdvisors 返回顾问名单；表为空时回退到内置默认名单。
func (s *advisorService) ListAdvisors() ([]model.Advisor, error) {
	advisors, err := s.advisorRepo.FindAll()
	if err != nil {
		return nil, err
	}
	if len(advisors) == 0 {
		return defaultAdvisors, nil
	}
	return advisors, nil
}

// GetAdvisor 根据 ID 查找顾问。
func (s *advisorService) GetAdvisor(advisorID uint) (*model.Advisor, error) {
	return s.advisorRepo.FindByID(advisorID)
}

// MatchRecommended 在顾问名单中解析推荐名字。
// 匹配顺序：精确相等（忽略大小写与变音符）优先，其次双向子串包含，
// 再退到固定兜底人选，最后取名单中的第一位。
func (s *advisorService) MatchRecommended(recommendedName string) (*model.Advisor, error) {
	advisors, err := s.ListAdvisors()
	if err != nil {
		return nil, err
	}
	if len(advisors) == 0 {
		return nil, errors.New("no advisors available")
	}

	rec := normalizeName(recommendedName)

	// 1. 精确匹配：保证推荐名与顾问名完全一致时结果与名单顺序无关
	for i := range advisors {
		if normalizeName(advisors[i].Name) == rec {
			return &advisors[i], nil
		}
	}

	// 2. 双向子串匹配，取第一个命中
	if rec != "" {
		for i := range advisors {
			name := normalizeName(advisors[i].Name)
			if name == "" {
				continue
			}
			if strings.Contains(rec, name) || strings.Contains(name, rec) {
				return &advisors[i], nil
			}
		}
	}

	// 3. 固定兜底人选
	fallback := normalizeName(fallbackAdvisorName)
	for i := range advisors {
		if normalizeName(advisors[i].Name) == fallback {
			log.Infof("推荐名 '%s' 未命中任何顾问，使用兜底人选 %s", recommendedName, advisors[i].Name)
			return &advisors[i], nil
		}
	}

	// 4. 名单第一位
	return &advisors[0], nil
}

// SeedDefaults 在顾问表为空时写入默认名单（幂等）。
func (s *advisorService) SeedDefaults() error {
	count, err := s.advisorRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for i := range defaultAdvisors {
		advisor := defaultAdvisors[i]
		if err := s.advisorRepo.Create(&advisor); err != nil {
			return err
		}
	}
	log.Infof("已播种 %d 位默认顾问", len(defaultAdvisors))
	return nil
}

// CreateAdvisor 新增顾问（管理接口）。
func (s *advisorService) CreateAdvisor(advisor *model.Advisor) error {
	return s.advisorRepo.Create(advisor)
}

// UpdateAdvisor 更新顾问（管理接口）。
func (s *advisorService) UpdateAdvisor(advisor *model.Advisor) error {
	if _, err := s.advisorRepo.FindByID(advisor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdvisorNotFound
		}
		return err
	}
	return s.advisorRepo.Update(advisor)
}

// normalizeName 将名字折叠为小写并去除常见变音符，供模糊匹配使用。
// 推荐名来自上游的自由文本（如 "Chloe - The Fixer"），需要容忍口音差异。
func normalizeName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o",
		"ú", "u", "ù", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n",
	)
	return replacer.Replace(lower)
}
