package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConversationLog is one turn as seen by the interviewer service, kept in
// Postgres for auditing independently of the user-facing transcript.
type ConversationLog struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Seq       int            `gorm:"column:seq;type:integer" json:"seq"`
	Role      string         `gorm:"column:role;type:text" json:"role"` // "user" | "assistant"
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Timestamp time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (ConversationLog) TableName() string { return "conversation_logs" }
