package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"imchat/internal/domain"
	"imchat/internal/security"
	"imchat/internal/service"
)

func TestJoinPublicRoom(t *testing.T) {
	convs := new(MockConversationRepo)
	members := new(MockMemberRepo)
	svc := service.NewConversationService(convs, members, security.PlainCodec{}, "Lobby")

	convs.On("EnsureRoom", mock.Anything, domain.PublicRoomKey).Return(int64(5), nil)
	members.On("Add", mock.Anything, int64(5), int64(10)).Return(nil)

	room, err := svc.JoinPublicRoom(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), room.ID)
	assert.Equal(t, "Lobby", room.Name)
	members.AssertExpectations(t)
}

func TestListConversationsOpensContent(t *testing.T) {
	enc, err := security.NewEncryptor([]byte("at-rest-key"), nil)
	require.NoError(t, err)
	sealed, err := enc.Seal("hello")
	require.NoError(t, err)
	legacy := "written before encryption"

	convs := new(MockConversationRepo)
	svc := service.NewConversationService(convs, new(MockMemberRepo), enc, "Lobby")

	id1, id2 := int64(11), int64(12)
	now := time.Now()
	convs.On("ListForUser", mock.Anything, int64(10)).Return([]*domain.ConversationSummary{
		{ConversationID: 1, LastMessageID: &id2, LastMessageContent: &sealed, LastMessageTime: &now, UnreadCount: 2},
		{ConversationID: 2, LastMessageID: &id1, LastMessageContent: &legacy, LastMessageTime: &now},
		{ConversationID: 3},
	}, nil)

	items, err := svc.ListConversations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "hello", *items[0].LastMessageContent)
	assert.Equal(t, 2, items[0].UnreadCount)
	assert.Equal(t, "Lobby", items[0].PeerNickname)
	assert.Equal(t, service.PublicRoomUsername, items[0].PeerUsername)
	assert.Equal(t, legacy, *items[1].LastMessageContent)
	assert.Nil(t, items[2].LastMessageContent)
}
