package repositories

import (
	"context"

	"sitedocs/models"

	"gorm.io/gorm"
)

type GormActivityLogRepository struct {
	db *gorm.DB
}

func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

func (r *GormActivityLogRepository) Create(_ context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	return useTx(r.db, tx).Create(entry).Error
}
