package models

import "fmt"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one turn of an interview conversation.
type Message struct {
	Role    Role   `bson:"role" json:"role" validate:"required,oneof=user assistant system"`
	Content string `bson:"content" json:"content"`
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
