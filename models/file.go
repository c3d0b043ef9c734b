package models

import "time"

type File struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Size        int64      `gorm:"not null" json:"size"`
	Type        string     `gorm:"type:varchar(20)" json:"type"`
	ParentID    uint       `gorm:"default:0;index" json:"parent_id"`
	Depth       int        `gorm:"not null" json:"depth"`
	StoragePath string     `gorm:"type:varchar(1000);not null" json:"storage_path"`
	// DownloadURL is a cached retrieval URL. It may be empty, in which case
	// the blob store re-derives one from StoragePath.
	DownloadURL   string     `gorm:"type:varchar(2000)" json:"download_url"`
	ThumbnailPath string     `gorm:"type:varchar(1000)" json:"thumbnail_path,omitempty"`
	EntityType    EntityType `gorm:"type:varchar(20);not null;index:idx_file_entity" json:"entity_type"`
	EntityID      string     `gorm:"type:varchar(64);not null;index:idx_file_entity" json:"entity_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (f File) Entity() EntityRef {
	return EntityRef{Type: f.EntityType, ID: f.EntityID}
}
