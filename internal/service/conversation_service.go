package service

import (
	"context"
	"fmt"

	"imchat/internal/domain"
	"imchat/internal/security"
)

// PublicRoomUsername is the static peer label shown for the public room.
const PublicRoomUsername = "public_room"

type ConversationService struct {
	conversations domain.ConversationRepository
	members       domain.MemberRepository
	codec         security.ContentCodec
	roomName      string
}

func NewConversationService(
	conversations domain.ConversationRepository,
	members domain.MemberRepository,
	codec security.ContentCodec,
	roomName string,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		members:       members,
		codec:         codec,
		roomName:      roomName,
	}
}

type Room struct {
	ID   int64
	Name string
}

// ConversationItem is a conversation summary with its display label.
type ConversationItem struct {
	domain.ConversationSummary
	PeerNickname string
	PeerUsername string
}

// JoinPublicRoom resolves the global room, creating it on first use, and
// makes userID a member. Joining again is a no-op.
func (s *ConversationService) JoinPublicRoom(ctx context.Context, userID int64) (*Room, error) {
	roomID, err := s.conversations.EnsureRoom(ctx, domain.PublicRoomKey)
	if err != nil {
		return nil, fmt.Errorf("ensure public room: %w", err)
	}
	if err := s.members.Add(ctx, roomID, userID); err != nil {
		return nil, fmt.Errorf("join public room: %w", err)
	}
	return &Room{ID: roomID, Name: s.roomName}, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, userID int64) ([]*ConversationItem, error) {
	summaries, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	items := make([]*ConversationItem, 0, len(summaries))
	for _, sum := range summaries {
		item := &ConversationItem{
			ConversationSummary: *sum,
			PeerNickname:        s.roomName,
			PeerUsername:        PublicRoomUsername,
		}
		if sum.LastMessageContent != nil {
			plain := openContent(s.codec, *sum.LastMessageContent)
			item.LastMessageContent = &plain
		}
		items = append(items, item)
	}
	return items, nil
}

// openContent returns the stored value unchanged when it cannot be opened,
// so rows written before encryption was enabled stay readable.
func openContent(codec security.ContentCodec, stored string) string {
	plain, err := codec.Open(stored)
	if err != nil {
		return stored
	}
	return plain
}
