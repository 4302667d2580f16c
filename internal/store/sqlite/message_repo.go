package sqlite

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

func (r *MessageRepo) Insert(ctx context.Context, m *domain.Message) (bool, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content, content_type, client_msg_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (conversation_id, client_msg_id) DO NOTHING
		RETURNING id, created_at
	`
	var created timestamp
	err := r.db.QueryRowContext(ctx, query,
		m.ConversationID,
		m.SenderID,
		m.Content,
		m.ContentType,
		m.ClientMsgID,
	).Scan(&m.ID, &created)
	if err == nil {
		m.CreatedAt = created.Time
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
	query := `
		SELECT id, conversation_id, sender_id, content, content_type, client_msg_id, created_at, deleted_at
		FROM messages
		WHERE conversation_id = ? AND client_msg_id = ?
	`
	m := &domain.Message{}
	var created, deleted timestamp
	err := r.db.QueryRowContext(ctx, query, conversationID, clientMsgID).Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.Content,
		&m.ContentType,
		&m.ClientMsgID,
		&created,
		&deleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	m.CreatedAt = created.Time
	m.DeletedAt = deleted.ptr()
	return m, nil
}

func (r *MessageRepo) ListAfter(ctx context.Context, conversationID, afterMessageID int64, limit int) ([]*domain.MessageView, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.content_type, m.client_msg_id,
		       m.created_at, u.username, u.nickname
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ?
		  AND m.id > ?
		  AND m.deleted_at IS NULL
		ORDER BY m.id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, afterMessageID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.MessageView
	for rows.Next() {
		v := &domain.MessageView{}
		var created timestamp
		if err := rows.Scan(
			&v.ID,
			&v.ConversationID,
			&v.SenderID,
			&v.Content,
			&v.ContentType,
			&v.ClientMsgID,
			&created,
			&v.SenderUsername,
			&v.SenderNickname,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		v.CreatedAt = created.Time
		res = append(res, v)
	}
	return res, rows.Err()
}
