package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"imchat/internal/domain"
)

type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

var _ domain.MemberRepository = (*MemberRepo)(nil)

func (r *MemberRepo) Add(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO conversation_members (conversation_id, user_id, joined_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *MemberRepo) IsMember(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM conversation_members
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	return true, nil
}

func (r *MemberRepo) AdvanceReadCursor(ctx context.Context, conversationID, userID, lastReadMessageID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversation_members
		SET last_read_message_id = MAX(COALESCE(last_read_message_id, 0), ?)
		WHERE conversation_id = ? AND user_id = ?
	`, lastReadMessageID, conversationID, userID)
	if err != nil {
		return fmt.Errorf("advance read cursor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
