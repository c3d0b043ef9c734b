package models

import "time"

const (
	UploadStatusPending      = "pending"
	UploadStatusTransferring = "transferring"
	UploadStatusCompleted    = "completed"
	UploadStatusFailed       = "failed"
	UploadStatusCanceled     = "canceled"
)

// UploadTask tracks one file of an upload batch while its blob transfer is
// in flight. Completed tasks are kept briefly for progress queries; stale
// ones are swept by the cleanup worker.
type UploadTask struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UploadID    string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"upload_id"`
	EntityType  EntityType `gorm:"type:varchar(20);not null;index:idx_task_entity" json:"entity_type"`
	EntityID    string     `gorm:"type:varchar(64);not null;index:idx_task_entity" json:"entity_id"`
	FolderID    uint       `gorm:"default:0" json:"folder_id"`
	Depth       int        `json:"depth"`
	FileName    string     `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize    int64      `gorm:"not null" json:"file_size"`
	StoragePath string     `gorm:"type:varchar(1000)" json:"storage_path"`
	Status      string     `gorm:"type:varchar(20);default:pending;index" json:"status"`
	ActorID     string     `gorm:"type:varchar(64)" json:"actor_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
}
