package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 题库、课程、用户等内容表的自增主键
// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SessionRecord 由测验或识别会话产生的记录，主键为 UUID
// swagger:model
type SessionRecord struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *SessionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewSessionID()
	}
	return nil
}

// NewSessionID 测验与识别会话共用的标识
func NewSessionID() string {
	return uuid.NewString()
}

// IsSessionID 只接受 NewSessionID 生成的规范 UUID 文本
func IsSessionID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}
