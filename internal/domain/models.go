package domain

import "time"

const (
	// PublicRoomKey is the stable lookup key of the singleton public room.
	PublicRoomKey = "global"

	ConversationTypePublic = "public"
	ContentTypeText        = "text"

	MaxContentLength     = 5000
	MaxClientMsgIDLength = 64

	DefaultPullLimit = 50
	MaxPullLimit     = 100
)

// User represents a registered account.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Nickname     string    `db:"nickname" json:"nickname"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Conversation is a chat container. Only the public room exists today.
type Conversation struct {
	ID        int64     `db:"id"`
	Type      string    `db:"type"`
	CreatedAt time.Time `db:"created_at"`
}

// Message is a single entry of a conversation's append-only log.
type Message struct {
	ID             int64      `db:"id"`
	ConversationID int64      `db:"conversation_id"`
	SenderID       int64      `db:"sender_id"`
	Content        string     `db:"content"` // sealed by the content codec at rest
	ContentType    string     `db:"content_type"`
	ClientMsgID    string     `db:"client_msg_id"`
	CreatedAt      time.Time  `db:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

// MessageView is a message joined with its sender's public profile.
type MessageView struct {
	Message
	SenderUsername string `db:"sender_username"`
	SenderNickname string `db:"sender_nickname"`
}

// ConversationSummary is one row of a member's conversation list.
type ConversationSummary struct {
	ConversationID     int64
	LastMessageID      *int64
	LastMessageContent *string
	LastMessageTime    *time.Time
	UnreadCount        int
}
