// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	BaseModel
	SenderID    uuid.UUID  `json:"senderId" gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID  `json:"recipientId" gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `json:"productId,omitempty" gorm:"type:uuid;index"`
	OrderID     *uuid.UUID `json:"orderId,omitempty" gorm:"type:uuid;index"`
	Body        string     `json:"body" gorm:"type:text;not null"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// Conversation is the latest message exchanged with one counterpart.
type Conversation struct {
	CounterpartID uuid.UUID `json:"counterpartId"`
	LastMessage   Message   `json:"lastMessage"`
	Unread        int64     `json:"unread"`
}
