package models

import "time"

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ChatSummary is one entry of a user's chat history.
type ChatSummary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"createdAt"`
	Visibility Visibility `json:"visibility"`
	UserID     string     `json:"userId"`
}

// Page is one fetched slice of the history, newest first.
type Page struct {
	Chats   []ChatSummary `json:"chats"`
	HasMore bool          `json:"hasMore"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	ID        string
	ChatID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// ChatModel is an entry of the model catalog shown in the picker.
type ChatModel struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}
