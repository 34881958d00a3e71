package localstore

import (
	"time"

	"gorm.io/datatypes"
)

// RecordModel is the GORM row for one persisted record.
type RecordModel struct {
	Key       string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (RecordModel) TableName() string {
	return "portal_records"
}
