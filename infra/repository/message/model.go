package message

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one audit message record. Rows are append-only; there
// is no update path.
type Message struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version       uint      `gorm:"not null"`
	Transition    string    `gorm:"type:varchar(8);not null"`
	Actor         string    `gorm:"type:varchar(64);not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// MessageLine represents one rendered detail line of a message.
type MessageLine struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index"`
	Seq       int       `gorm:"not null"`
	Code      string    `gorm:"type:varchar(2);not null"`
	Text      string    `gorm:"type:varchar(255);not null"`
}

// TableName specifies the table name for the MessageLine model.
func (MessageLine) TableName() string {
	return "message_lines"
}
