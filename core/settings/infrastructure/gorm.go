package infrastructure

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wadesk/wadesk/core/settings/domain"
)

type SettingModel struct {
	Key   string         `gorm:"primaryKey;column:key"`
	Value datatypes.JSON `gorm:"column:value"`
}

func (SettingModel) TableName() string {
	return "settings"
}

type SettingsGormRepository struct {
	db *gorm.DB
}

func NewSettingsGormRepository(db *gorm.DB) *SettingsGormRepository {
	return &SettingsGormRepository{db: db}
}

func (r *SettingsGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&SettingModel{})
}

func (r *SettingsGormRepository) Get(ctx context.Context, key string) (any, error) {
	var m SettingModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	var value any
	if err := json.Unmarshal(m.Value, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (r *SettingsGormRepository) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": datatypes.JSON(raw)}),
	}).Create(&SettingModel{
		Key:   key,
		Value: datatypes.JSON(raw),
	}).Error
}

func (r *SettingsGormRepository) List(ctx context.Context) ([]domain.Setting, error) {
	var models []SettingModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	settings := make([]domain.Setting, 0, len(models))
	for _, m := range models {
		var value any
		if err := json.Unmarshal(m.Value, &value); err != nil {
			continue
		}
		settings = append(settings, domain.Setting{Key: m.Key, Value: value})
	}
	return settings, nil
}

func (r *SettingsGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&SettingModel{}, "key = ?", key).Error
}
