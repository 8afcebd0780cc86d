package domain

import "time"

// Message content kinds
const (
	MessageText = "text"
	MessageFile = "file"
)

// Message lifecycle statuses
const (
	MessageSent    = "sent"
	MessageEdited  = "edited"
	MessageDeleted = "deleted"
)

// Conversation groups the messages exchanged between two users. The
// participant pair is stored normalized so one conversation exists per pair.
type Conversation struct {
	ID             string    `json:"id" db:"id"`
	ParticipantOne string    `json:"participant_one" db:"participant_one"`
	ParticipantTwo string    `json:"participant_two" db:"participant_two"`
	Interaction    time.Time `json:"interaction" db:"interaction"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MessageContent is the user-supplied body of a message
type MessageContent struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
	File *string `json:"file,omitempty"`
}

// Message represents one direct message inside a conversation
type Message struct {
	ID             string          `json:"id" db:"id"`
	ConversationID string          `json:"conversation_id" db:"conversation_id"`
	Sender         string          `json:"sender" db:"sender"`
	Recipient      string          `json:"recipient" db:"recipient"`
	Status         string          `json:"status" db:"status"`
	Content        *MessageContent `json:"content,omitempty"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
