package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"imchat/internal/domain"
	"imchat/internal/metrics"
	"imchat/internal/security"
)

type MessageService struct {
	members  domain.MemberRepository
	messages domain.MessageRepository
	codec    security.ContentCodec
}

func NewMessageService(
	members domain.MemberRepository,
	messages domain.MessageRepository,
	codec security.ContentCodec,
) *MessageService {
	return &MessageService{
		members:  members,
		messages: messages,
		codec:    codec,
	}
}

type SendInput struct {
	ConversationID int64
	Content        string
	ClientMsgID    string
}

type SendResult struct {
	Message      *domain.Message
	Deduplicated bool
}

// Send stores a message once per (conversation, client_msg_id). Resending a
// key returns the stored message with Deduplicated set.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendInput) (*SendResult, error) {
	content := strings.TrimSpace(in.Content)
	clientMsgID := strings.TrimSpace(in.ClientMsgID)

	if in.ConversationID <= 0 {
		return nil, fmt.Errorf("%w: invalid conversation_id", domain.ErrInvalidInput)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return nil, fmt.Errorf("%w: content too long", domain.ErrInvalidInput)
	}
	if clientMsgID == "" || utf8.RuneCountInString(clientMsgID) > domain.MaxClientMsgIDLength {
		return nil, fmt.Errorf("%w: invalid client_msg_id", domain.ErrInvalidInput)
	}

	if err := s.requireMember(ctx, in.ConversationID, senderID); err != nil {
		return nil, err
	}

	sealed, err := s.codec.Seal(content)
	if err != nil {
		return nil, fmt.Errorf("seal content: %w", err)
	}

	msg := &domain.Message{
		ConversationID: in.ConversationID,
		SenderID:       senderID,
		Content:        sealed,
		ContentType:    domain.ContentTypeText,
		ClientMsgID:    clientMsgID,
	}
	deduplicated, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.Content = openContent(s.codec, msg.Content)

	if deduplicated {
		metrics.MessagesSent.WithLabelValues(metrics.ResultDeduplicated).Inc()
	} else {
		metrics.MessagesSent.WithLabelValues(metrics.ResultCreated).Inc()
	}
	return &SendResult{Message: msg, Deduplicated: deduplicated}, nil
}

type PullInput struct {
	ConversationID int64
	AfterMessageID int64
	// Limit is clamped to [1, domain.MaxPullLimit].
	Limit int
}

type PullResult struct {
	Messages []*domain.MessageView
	// HasMore reports a full page. The page after a full one may be empty.
	HasMore bool
}

func (s *MessageService) Pull(ctx context.Context, requesterID int64, in PullInput) (*PullResult, error) {
	if in.ConversationID <= 0 {
		return nil, fmt.Errorf("%w: invalid conversation_id", domain.ErrInvalidInput)
	}
	after := in.AfterMessageID
	if after < 0 {
		after = 0
	}
	limit := ClampPullLimit(in.Limit)

	if err := s.requireMember(ctx, in.ConversationID, requesterID); err != nil {
		return nil, err
	}

	page, err := s.messages.ListAfter(ctx, in.ConversationID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for _, m := range page {
		m.Content = openContent(s.codec, m.Content)
	}
	if page == nil {
		page = []*domain.MessageView{}
	}
	return &PullResult{Messages: page, HasMore: len(page) == limit}, nil
}

// MarkRead advances the caller's read cursor. Proposals at or below the
// current cursor leave it unchanged.
func (s *MessageService) MarkRead(ctx context.Context, userID, conversationID, lastReadMessageID int64) error {
	if conversationID <= 0 {
		return fmt.Errorf("%w: invalid conversation_id", domain.ErrInvalidInput)
	}
	if lastReadMessageID < 0 {
		return fmt.Errorf("%w: invalid last_read_message_id", domain.ErrInvalidInput)
	}
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return err
	}

	err := s.members.AdvanceReadCursor(ctx, conversationID, userID, lastReadMessageID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: forbidden", domain.ErrForbidden)
	}
	if err != nil {
		return err
	}
	metrics.ReadCursorUpdates.Inc()
	return nil
}

func (s *MessageService) requireMember(ctx context.Context, conversationID, userID int64) error {
	ok, err := s.members.IsMember(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: forbidden", domain.ErrForbidden)
	}
	return nil
}

// ClampPullLimit bounds a requested page size to [1, domain.MaxPullLimit].
func ClampPullLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > domain.MaxPullLimit {
		return domain.MaxPullLimit
	}
	return limit
}
