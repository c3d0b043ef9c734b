package models

import "time"

const (
	ActivityFolderCreated = "folder_created"
	ActivityFolderRenamed = "folder_renamed"
	ActivityFolderDeleted = "folder_deleted"
	ActivityFileUploaded  = "file_uploaded"
	ActivityFileRenamed   = "file_renamed"
	ActivityFileDeleted   = "file_deleted"
)

// ActivityLog records attachment events against the owning entity. Writes
// are fire-and-forget: a failed insert never aborts the primary operation.
type ActivityLog struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType EntityType `gorm:"type:varchar(20);not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(64);not null;index:idx_activity_entity" json:"entity_id"`
	Event      string     `gorm:"type:varchar(40);not null" json:"event"`
	Detail     string     `gorm:"type:varchar(1000)" json:"detail"`
	ActorID    string     `gorm:"type:varchar(64)" json:"actor_id"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
