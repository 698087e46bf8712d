package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 各业务表共用的主键与时间戳字段，软删除走 deleted_at
type BaseModel struct {
	ID        int64          `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
