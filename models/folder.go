package models

import "time"

// RootFolderID is the synthetic root of every attachment tree. It is never
// persisted: top-level folders reference it through ParentID and carry
// depth 1.
const RootFolderID uint = 0

// MaxFolderDepth bounds the longest root-to-leaf folder path. Creation at a
// prospective depth beyond this is refused before any store call.
const MaxFolderDepth = 5

type Folder struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	ParentID   uint       `gorm:"default:0;index" json:"parent_id"`
	Depth      int        `gorm:"not null" json:"depth"`
	Size       int64      `gorm:"default:0" json:"size"`
	EntityType EntityType `gorm:"type:varchar(20);not null;index:idx_folder_entity" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(64);not null;index:idx_folder_entity" json:"entity_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (f Folder) Entity() EntityRef {
	return EntityRef{Type: f.EntityType, ID: f.EntityID}
}
