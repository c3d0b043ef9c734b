package repositories

import (
	"context"

	"sitedocs/models"

	"gorm.io/gorm"
)

type GormFolderRepository struct {
	db *gorm.DB
}

func NewGormFolderRepository(db *gorm.DB) *GormFolderRepository {
	return &GormFolderRepository{db: db}
}

func entityScope(db *gorm.DB, entity models.EntityRef) *gorm.DB {
	return db.Where("entity_type = ? AND entity_id = ?", entity.Type, entity.ID)
}

func (r *GormFolderRepository) Create(_ context.Context, tx *gorm.DB, folder *models.Folder) error {
	return useTx(r.db, tx).Create(folder).Error
}

func (r *GormFolderRepository) GetByIDAndEntity(_ context.Context, tx *gorm.DB, folderID uint, entity models.EntityRef) (models.Folder, error) {
	var folder models.Folder
	err := entityScope(useTx(r.db, tx), entity).Where("id = ?", folderID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) ListByEntity(_ context.Context, tx *gorm.DB, entity models.EntityRef) ([]models.Folder, error) {
	var folders []models.Folder
	err := entityScope(useTx(r.db, tx), entity).Order("id ASC").Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) ListByParent(_ context.Context, tx *gorm.DB, entity models.EntityRef, parentID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := entityScope(useTx(r.db, tx), entity).
		Where("parent_id = ?", parentID).
		Order("id ASC").Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) CountByParentAndName(_ context.Context, tx *gorm.DB, entity models.EntityRef, parentID uint, name string, excludeID uint) (int64, error) {
	db := entityScope(useTx(r.db, tx).Model(&models.Folder{}), entity).
		Where("parent_id = ? AND name = ?", parentID, name)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *GormFolderRepository) UpdateByID(_ context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.Folder{}).Where("id = ?", folderID).Updates(updates).Error
}

func (r *GormFolderRepository) AddSize(_ context.Context, tx *gorm.DB, folderID uint, delta int64) error {
	return useTx(r.db, tx).Model(&models.Folder{}).Where("id = ?", folderID).
		UpdateColumn("size", gorm.Expr("size + ?", delta)).Error
}

func (r *GormFolderRepository) DeleteByID(_ context.Context, tx *gorm.DB, folderID uint) error {
	return useTx(r.db, tx).Where("id = ?", folderID).Delete(&models.Folder{}).Error
}
