package httpserver

import (
	"net/http"
	"time"

	"imchat/internal/service"
)

type joinRoomResponse struct {
	RoomID   int64  `json:"room_id"`
	RoomName string `json:"room_name"`
}

type conversationResponse struct {
	ConversationID     int64      `json:"conversation_id"`
	PeerNickname       string     `json:"peer_nickname"`
	PeerUsername       string     `json:"peer_username"`
	LastMessageID      *int64     `json:"last_message_id"`
	LastMessageContent *string    `json:"last_message_content"`
	LastMessageTime    *time.Time `json:"last_message_time"`
	UnreadCount        int        `json:"unread_count"`
}

type conversationListResponse struct {
	List []conversationResponse `json:"list"`
}

// @Summary      Closed private chat endpoint
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Failure      403  {object}  envelope
// @Router       /conversations/single [post]
func handlePrivateChatClosed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusForbidden, "private chat disabled")
	}
}

// @Summary      Join the public room
// @Description  Creates the room on first use. Joining twice is a no-op.
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=joinRoomResponse}
// @Router       /rooms/public/join [post]
func handleJoinPublicRoom(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := convSvc.JoinPublicRoom(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, joinRoomResponse{RoomID: room.ID, RoomName: room.Name})
	}
}

// @Summary      List my conversations
// @Description  Each item carries the latest message and the caller's unread count.
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=conversationListResponse}
// @Router       /conversations/list [get]
func handleListConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := convSvc.ListConversations(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		list := make([]conversationResponse, 0, len(items))
		for _, it := range items {
			list = append(list, conversationResponse{
				ConversationID:     it.ConversationID,
				PeerNickname:       it.PeerNickname,
				PeerUsername:       it.PeerUsername,
				LastMessageID:      it.LastMessageID,
				LastMessageContent: it.LastMessageContent,
				LastMessageTime:    it.LastMessageTime,
				UnreadCount:        it.UnreadCount,
			})
		}
		writeOK(w, conversationListResponse{List: list})
	}
}
