package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wadesk/wadesk/agents/domain"
)

type GormAgentRepository struct {
	db *gorm.DB
}

func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// AutoMigrate ensures the table exists
func (r *GormAgentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Agent{})
}

func (r *GormAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *GormAgentRepository) FindByUsername(ctx context.Context, username string) (*domain.Agent, error) {
	var agent domain.Agent
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("agent not found")
	}
	return &agent, err
}

func (r *GormAgentRepository) FindByID(ctx context.Context, id uint) (*domain.Agent, error) {
	var agent domain.Agent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("agent not found")
	}
	return &agent, err
}

func (r *GormAgentRepository) TouchLastLogin(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.Agent{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error
}

func (r *GormAgentRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.Agent{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *GormAgentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Agent{}).Count(&count).Error
	return count, err
}

var _ domain.IAgentRepository = (*GormAgentRepository)(nil)
