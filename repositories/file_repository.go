package repositories

import (
	"context"

	"sitedocs/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(_ context.Context, tx *gorm.DB, file *models.File) error {
	return useTx(r.db, tx).Create(file).Error
}

func (r *GormFileRepository) GetByIDAndEntity(_ context.Context, tx *gorm.DB, fileID uint, entity models.EntityRef) (models.File, error) {
	var file models.File
	err := entityScope(useTx(r.db, tx), entity).Where("id = ?", fileID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) ListByEntity(_ context.Context, tx *gorm.DB, entity models.EntityRef) ([]models.File, error) {
	var files []models.File
	err := entityScope(useTx(r.db, tx), entity).Order("id ASC").Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ListByParent(_ context.Context, tx *gorm.DB, entity models.EntityRef, parentID uint) ([]models.File, error) {
	var files []models.File
	err := entityScope(useTx(r.db, tx), entity).
		Where("parent_id = ?", parentID).
		Order("id ASC").Find(&files).Error
	return files, err
}

func (r *GormFileRepository) UpdateByIDAndEntity(_ context.Context, tx *gorm.DB, fileID uint, entity models.EntityRef, updates map[string]interface{}) error {
	return entityScope(useTx(r.db, tx).Model(&models.File{}), entity).
		Where("id = ?", fileID).Updates(updates).Error
}

func (r *GormFileRepository) CountByStoragePath(_ context.Context, tx *gorm.DB, storagePath string) (int64, error) {
	var count int64
	err := useTx(r.db, tx).Model(&models.File{}).
		Where("storage_path = ?", storagePath).Count(&count).Error
	return count, err
}

func (r *GormFileRepository) DeleteByID(_ context.Context, tx *gorm.DB, fileID uint) error {
	return useTx(r.db, tx).Where("id = ?", fileID).Delete(&models.File{}).Error
}
