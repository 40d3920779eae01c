package models

import "time"

const (
	InterviewTypeCustom = "custom"
)

// Interview is a document in the "interviews" collection.
type Interview struct {
	ID        string   `bson:"_id" json:"id"`
	Role      string   `bson:"role" json:"role"`
	Level     string   `bson:"level" json:"level"`
	Type      string   `bson:"type" json:"type"`
	Techstack []string `bson:"techstack" json:"techstack"`
	Questions []string `bson:"questions" json:"questions"`
	UserID    string   `bson:"userId" json:"userId"`
	Finalized bool     `bson:"finalized" json:"finalized"`

	Transcript      []Message `bson:"transcript,omitempty" json:"transcript,omitempty"`
	VoiceBased      *bool     `bson:"voiceBased,omitempty" json:"voiceBased,omitempty"`
	DurationMinutes *float64  `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// TranscriptUpdate is merged into an existing interview once a session ends.
type TranscriptUpdate struct {
	UserID          string
	Transcript      []Message
	VoiceBased      bool
	DurationMinutes *float64
	UpdatedAt       time.Time
}
