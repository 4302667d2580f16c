package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"imchat/internal/domain"
	"imchat/internal/service"
)

type sendMessageRequest struct {
	ConversationID *idField     `json:"conversation_id" swaggertype:"integer"`
	Content        *stringField `json:"content" swaggertype:"string"`
	ClientMsgID    *stringField `json:"client_msg_id" swaggertype:"string"`
}

type sendMessageResponse struct {
	MessageID    int64     `json:"message_id"`
	CreatedAt    time.Time `json:"created_at"`
	Deduplicated bool      `json:"deduplicated,omitempty"`
}

type messageResponse struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	SenderNickname string    `json:"sender_nickname"`
	Content        string    `json:"content"`
	ContentType    string    `json:"content_type"`
	ClientMsgID    string    `json:"client_msg_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type pullResponse struct {
	List    []messageResponse `json:"list"`
	HasMore bool              `json:"has_more"`
}

type markReadRequest struct {
	ConversationID    *idField `json:"conversation_id" swaggertype:"integer"`
	LastReadMessageID *idField `json:"last_read_message_id" swaggertype:"integer"`
}

type markReadResponse struct {
	Updated bool `json:"updated"`
}

// @Summary      Send a message
// @Description  Resending a client_msg_id returns the original message with deduplicated=true.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body sendMessageRequest true "Message"
// @Success      200  {object}  envelope{data=sendMessageResponse}
// @Failure      403  {object}  envelope
// @Failure      422  {object}  envelope
// @Failure      429  {object}  envelope
// @Router       /messages/send [post]
func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := requireFields(
			hasID("conversation_id", req.ConversationID),
			hasString("content", req.Content),
			hasString("client_msg_id", req.ClientMsgID),
		); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := msgSvc.Send(r.Context(), CurrentUser(r).ID, service.SendInput{
			ConversationID: req.ConversationID.value(),
			Content:        req.Content.value(),
			ClientMsgID:    req.ClientMsgID.value(),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, sendMessageResponse{
			MessageID:    res.Message.ID,
			CreatedAt:    res.Message.CreatedAt,
			Deduplicated: res.Deduplicated,
		})
	}
}

// @Summary      Pull messages
// @Description  Returns messages with id > after_message_id in ascending order. has_more is true when the page is full.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        conversation_id   query  int  true   "Conversation ID"
// @Param        after_message_id  query  int  false  "Exclusive lower bound"  default(0)
// @Param        limit             query  int  false  "Page size, 1-100"      default(50)
// @Success      200  {object}  envelope{data=pullResponse}
// @Failure      403  {object}  envelope
// @Failure      422  {object}  envelope
// @Router       /messages/pull [get]
func handlePullMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		convID, err := queryInt(q.Get("conversation_id"), 0)
		if err != nil {
			writeFail(w, http.StatusUnprocessableEntity, "invalid conversation_id")
			return
		}
		after, err := queryInt(q.Get("after_message_id"), 0)
		if err != nil {
			writeFail(w, http.StatusUnprocessableEntity, "invalid after_message_id")
			return
		}
		limit, err := queryInt(q.Get("limit"), domain.DefaultPullLimit)
		if err != nil {
			writeFail(w, http.StatusUnprocessableEntity, "invalid limit")
			return
		}

		res, err := msgSvc.Pull(r.Context(), CurrentUser(r).ID, service.PullInput{
			ConversationID: convID,
			AfterMessageID: after,
			Limit:          pageLimit(limit),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		list := make([]messageResponse, 0, len(res.Messages))
		for _, m := range res.Messages {
			list = append(list, messageResponse{
				ID:             m.ID,
				ConversationID: m.ConversationID,
				SenderID:       m.SenderID,
				SenderUsername: m.SenderUsername,
				SenderNickname: m.SenderNickname,
				Content:        m.Content,
				ContentType:    m.ContentType,
				ClientMsgID:    m.ClientMsgID,
				CreatedAt:      m.CreatedAt,
			})
		}
		writeOK(w, pullResponse{List: list, HasMore: res.HasMore})
	}
}

// @Summary      Mark messages read
// @Description  Advances the read cursor. A lower value than the current cursor leaves it unchanged.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body markReadRequest true "Cursor"
// @Success      200  {object}  envelope{data=markReadResponse}
// @Failure      403  {object}  envelope
// @Failure      422  {object}  envelope
// @Router       /messages/read [post]
func handleMarkRead(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markReadRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := requireFields(
			hasID("conversation_id", req.ConversationID),
			hasID("last_read_message_id", req.LastReadMessageID),
		); err != nil {
			writeError(w, r, err)
			return
		}

		err := msgSvc.MarkRead(r.Context(), CurrentUser(r).ID, req.ConversationID.value(), req.LastReadMessageID.value())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, markReadResponse{Updated: true})
	}
}

func queryInt(raw string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return n, nil
}

// pageLimit narrows a parsed limit to int; the service applies the bounds.
func pageLimit(n int64) int {
	return int(max(min(n, domain.MaxPullLimit), 0))
}
