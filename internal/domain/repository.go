package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts u and fills its ID. A taken username yields ErrConflict.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// EnsureRoom resolves the conversation mapped to roomKey, creating both the
	// conversation and the mapping when absent. Concurrent callers observe the
	// same id.
	EnsureRoom(ctx context.Context, roomKey string) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]*ConversationSummary, error)
}

// MemberRepository defines operations around conversation memberships.
type MemberRepository interface {
	// Add inserts the membership if it does not already exist.
	Add(ctx context.Context, conversationID, userID int64) error
	IsMember(ctx context.Context, conversationID, userID int64) (bool, error)
	// AdvanceReadCursor sets the cursor to max(current, lastReadMessageID).
	AdvanceReadCursor(ctx context.Context, conversationID, userID, lastReadMessageID int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Insert appends m unless (conversation_id, client_msg_id) already exists,
	// in which case m is overwritten with the stored row and deduplicated is true.
	Insert(ctx context.Context, m *Message) (deduplicated bool, err error)
	GetByClientMsgID(ctx context.Context, conversationID int64, clientMsgID string) (*Message, error)
	ListAfter(ctx context.Context, conversationID, afterMessageID int64, limit int) ([]*MessageView, error)
}

// Repositories bundles the repositories of one backing store.
type Repositories struct {
	Users         UserRepository
	Conversations ConversationRepository
	Members       MemberRepository
	Messages      MessageRepository
}
