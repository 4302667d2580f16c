package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"imchat/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) EnsureRoom(ctx context.Context, roomKey string) (int64, error) {
	id, err := r.lookupRoom(ctx, roomKey)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	id, err = r.createRoom(ctx, roomKey)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}
	// Lost the race: the winner's mapping is committed by now.
	return r.lookupRoom(ctx, roomKey)
}

func (r *ConversationRepo) lookupRoom(ctx context.Context, roomKey string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT conversation_id FROM public_rooms WHERE room_key = $1
	`, roomKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup room: %w", err)
	}
	return id, nil
}

// createRoom inserts the conversation and its room mapping in one
// transaction. A concurrent creator blocks on the unique room_key until the
// first commits, then inserts nothing; it returns 0 and rolls back.
func (r *ConversationRepo) createRoom(ctx context.Context, roomKey string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO conversations (type, created_at)
		VALUES ($1, NOW())
		RETURNING id
	`, domain.ConversationTypePublic).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert conversation: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO public_rooms (room_key, conversation_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (room_key) DO NOTHING
	`, roomKey, id)
	if err != nil {
		return 0, fmt.Errorf("insert room mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.id,
			lm.id,
			lm.content,
			lm.created_at,
			(
				SELECT COUNT(*)
				FROM messages m
				WHERE m.conversation_id = c.id
				  AND m.id > COALESCE(cm.last_read_message_id, 0)
				  AND m.sender_id <> cm.user_id
				  AND m.deleted_at IS NULL
			) AS unread_count
		FROM conversations c
		JOIN conversation_members cm ON cm.conversation_id = c.id AND cm.user_id = $1
		LEFT JOIN LATERAL (
			SELECT id, content, created_at
			FROM messages
			WHERE conversation_id = c.id AND deleted_at IS NULL
			ORDER BY id DESC
			LIMIT 1
		) lm ON TRUE
		ORDER BY lm.id DESC NULLS LAST, c.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.ConversationSummary
	for rows.Next() {
		var (
			s        domain.ConversationSummary
			lastID   sql.NullInt64
			lastBody sql.NullString
			lastTime sql.NullTime
		)
		if err := rows.Scan(&s.ConversationID, &lastID, &lastBody, &lastTime, &s.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if lastID.Valid {
			s.LastMessageID = &lastID.Int64
			s.LastMessageContent = &lastBody.String
			s.LastMessageTime = &lastTime.Time
		}
		res = append(res, &s)
	}
	return res, rows.Err()
}
