// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	UserID       uuid.UUID        `json:"userId" gorm:"type:uuid;not null;index"`
	Type         NotificationType `json:"type" gorm:"type:varchar(30);not null;index"`
	Title        string           `json:"title" gorm:"size:255;not null"`
	Message      string           `json:"message" gorm:"type:text;not null"`
	ResourceType string           `json:"resourceType,omitempty" gorm:"size:50"`
	ResourceID   *uuid.UUID       `json:"resourceId,omitempty" gorm:"type:uuid"`
	ReadAt       *time.Time       `json:"readAt,omitempty"`
}

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"userId" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:150;not null;index"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resourceId" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"newValues" gorm:"type:text"`
	IPAddress    string     `json:"ipAddress" gorm:"size:45"`
	UserAgent    string     `json:"userAgent" gorm:"type:text"`
	StatusCode   int        `json:"statusCode"`
}
