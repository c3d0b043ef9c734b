package repositories

import (
	"context"
	"time"

	"sitedocs/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type FolderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, folder *models.Folder) error
	GetByIDAndEntity(ctx context.Context, tx *gorm.DB, folderID uint, entity models.EntityRef) (models.Folder, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entity models.EntityRef) ([]models.Folder, error)
	ListByParent(ctx context.Context, tx *gorm.DB, entity models.EntityRef, parentID uint) ([]models.Folder, error)
	CountByParentAndName(ctx context.Context, tx *gorm.DB, entity models.EntityRef, parentID uint, name string, excludeID uint) (int64, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error
	AddSize(ctx context.Context, tx *gorm.DB, folderID uint, delta int64) error
	// DeleteByID hard-deletes the folder record. Deleting a missing record
	// is a no-op, which keeps recursive deletion retryable.
	DeleteByID(ctx context.Context, tx *gorm.DB, folderID uint) error
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.File) error
	GetByIDAndEntity(ctx context.Context, tx *gorm.DB, fileID uint, entity models.EntityRef) (models.File, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entity models.EntityRef) ([]models.File, error)
	ListByParent(ctx context.Context, tx *gorm.DB, entity models.EntityRef, parentID uint) ([]models.File, error)
	UpdateByIDAndEntity(ctx context.Context, tx *gorm.DB, fileID uint, entity models.EntityRef, updates map[string]interface{}) error
	// CountByStoragePath counts committed file records referencing a
	// storage path. Storage paths are deterministic, so a retried upload
	// can land on a path an earlier attempt already committed.
	CountByStoragePath(ctx context.Context, tx *gorm.DB, storagePath string) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, fileID uint) error
}

type UploadTaskRepository interface {
	Create(ctx context.Context, tx *gorm.DB, task *models.UploadTask) error
	GetByUploadID(ctx context.Context, tx *gorm.DB, uploadID string) (models.UploadTask, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, uploadID string, status string) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error
	ListExpiredAndUncompleted(ctx context.Context, tx *gorm.DB, now time.Time) ([]models.UploadTask, error)
}

type ActivityLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error
}

// UploadProgressRepository tracks per-transfer percent and status so the UI
// can poll while a resumable transfer runs.
type UploadProgressRepository interface {
	SetPercent(ctx context.Context, uploadID string, percent float64, expireSeconds int) error
	GetPercent(ctx context.Context, uploadID string) (float64, error)
	Clear(ctx context.Context, uploadID string) error
}

// TreeEventsRepository is the change feed behind the live tree
// subscription. Every committed folder/file mutation publishes an
// invalidation for the owning entity; subscribers requery and rebuild.
type TreeEventsRepository interface {
	PublishChanged(ctx context.Context, entity models.EntityRef) error
	// SubscribeChanged returns a channel that receives one element per
	// remote change until stop is called or ctx is canceled.
	SubscribeChanged(ctx context.Context, entity models.EntityRef) (events <-chan struct{}, stop func(), err error)
}

type Container struct {
	TxManager      TxManager
	Folders        FolderRepository
	Files          FileRepository
	UploadTasks    UploadTaskRepository
	ActivityLog    ActivityLogRepository
	UploadProgress UploadProgressRepository
	TreeEvents     TreeEventsRepository
}
