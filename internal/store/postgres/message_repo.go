package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"imchat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Insert relies on the (conversation_id, client_msg_id) unique constraint. A
// concurrent sender with the same key waits for the winner's commit, inserts
// nothing, and falls through to reading the winning row.
func (r *MessageRepo) Insert(ctx context.Context, m *domain.Message) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, content_type, client_msg_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (conversation_id, client_msg_id) DO NOTHING
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Content, m.ContentType, m.ClientMsgID,
	).Scan(&m.ID, &m.CreatedAt)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert message: %w", err)
	}

	existing, err := r.GetByClientMsgID(ctx, m.ConversationID, m.ClientMsgID)
	if err != nil {
		return false, fmt.Errorf("load deduplicated message: %w", err)
	}
	*m = *existing
	return true, nil
}

func (r *MessageRepo) GetByClientMsgID(ctx context.Context, conversationID int64, clientMsgID string) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, content, content_type, client_msg_id, created_at, deleted_at
		FROM messages
		WHERE conversation_id = $1 AND client_msg_id = $2
	`, conversationID, clientMsgID).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.ContentType,
		&m.ClientMsgID, &m.CreatedAt, &m.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListAfter(ctx context.Context, conversationID, afterMessageID int64, limit int) ([]*domain.MessageView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.content_type, m.client_msg_id,
		       m.created_at, u.username, u.nickname
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = $1
		  AND m.id > $2
		  AND m.deleted_at IS NULL
		ORDER BY m.id ASC
		LIMIT $3
	`, conversationID, afterMessageID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return scanMessageViews(rows)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanMessageViews(rows *sql.Rows) ([]*domain.MessageView, error) {
	defer rows.Close()
	var res []*domain.MessageView
	for rows.Next() {
		v := &domain.MessageView{}
		if err := rows.Scan(
			&v.ID, &v.ConversationID, &v.SenderID, &v.Content, &v.ContentType, &v.ClientMsgID,
			&v.CreatedAt, &v.SenderUsername, &v.SenderNickname,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, v)
	}
	return res, rows.Err()
}
