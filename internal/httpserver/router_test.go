package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imchat/internal/config"
	"imchat/internal/security"
	"imchat/internal/store/sqlite"
)

const testSkillKey = "test-skill"

type testEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	count   func(query string, args ...any) int
}

func newTestServer(t *testing.T, limiter SendLimiter) *testServer {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		AppName:          "imchat-test",
		SkillRegisterKey: testSkillKey,
		PublicRoomName:   "Lobby",
		CORSOrigins:      []string{"*"},
	}
	h := NewRouter(cfg, sqlite.NewRepositories(db),
		security.NewTokenService("test-secret", time.Hour),
		security.NewPasswordHasher(4),
		security.PlainCodec{},
		limiter,
	)
	return &testServer{
		t:       t,
		handler: h,
		count: func(query string, args ...any) int {
			var n int
			require.NoError(t, db.QueryRow(query, args...).Scan(&n))
			return n
		},
	}
}

func (s *testServer) do(method, path, token string, body any) (int, testEnvelope) {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	if rec.Code == http.StatusOK {
		assert.Equal(s.t, 0, env.Code)
	} else {
		assert.Equal(s.t, rec.Code, env.Code)
	}
	return rec.Code, env
}

func (s *testServer) ok(method, path, token string, body any, dst any) {
	s.t.Helper()
	status, env := s.do(method, path, token, body)
	require.Equal(s.t, http.StatusOK, status, "%s %s: %s", method, path, env.Message)
	if dst != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, dst))
	}
}

// signup registers, logs in and joins the public room.
func (s *testServer) signup(username string) (token string, roomID int64) {
	s.t.Helper()
	s.ok(http.MethodPost, "/api/v1/skills/register", "", map[string]string{
		"username": username, "password": "password-" + username, "nickname": strings.ToUpper(username), "skill_key": testSkillKey,
	}, nil)
	var login loginResponse
	s.ok(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username, "password": "password-" + username,
	}, &login)
	var room joinRoomResponse
	s.ok(http.MethodPost, "/api/v1/rooms/public/join", login.Token, nil, &room)
	return login.Token, room.RoomID
}

func (s *testServer) send(token string, roomID int64, clientMsgID, content string) sendMessageResponse {
	s.t.Helper()
	var res sendMessageResponse
	s.ok(http.MethodPost, "/api/v1/messages/send", token, map[string]any{
		"conversation_id": roomID, "content": content, "client_msg_id": clientMsgID,
	}, &res)
	return res
}

func (s *testServer) pull(token string, roomID, after int64, limit int) pullResponse {
	s.t.Helper()
	path := fmt.Sprintf("/api/v1/messages/pull?conversation_id=%d&after_message_id=%d", roomID, after)
	if limit > 0 {
		path += fmt.Sprintf("&limit=%d", limit)
	}
	var res pullResponse
	s.ok(http.MethodGet, path, token, nil, &res)
	return res
}

func (s *testServer) unread(token string) int {
	s.t.Helper()
	var res conversationListResponse
	s.ok(http.MethodGet, "/api/v1/conversations/list", token, nil, &res)
	require.Len(s.t, res.List, 1)
	return res.List[0].UnreadCount
}

func TestHealthAndFallbacks(t *testing.T) {
	s := newTestServer(t, nil)

	var health healthResponse
	s.ok(http.MethodGet, "/api/v1/health", "", nil, &health)
	assert.Equal(t, "imchat-test", health.Service)

	status, env := s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not found", env.Message)

	status, _ = s.do(http.MethodGet, "/api/v1/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestClosedEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	token, _ := s.signup("alice")

	status, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "registration via skill only", env.Message)

	status, env = s.do(http.MethodPost, "/api/v1/conversations/single", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "private chat disabled", env.Message)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup("alice")

	status, env := s.do(http.MethodPost, "/api/v1/skills/register", "", map[string]string{
		"username": "alice", "password": "password-x", "nickname": "A", "skill_key": testSkillKey,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "username already exists", env.Message)

	status, env = s.do(http.MethodPost, "/api/v1/skills/register", "", map[string]string{
		"username": "bob", "password": "password-x", "nickname": "B", "skill_key": "wrong",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "invalid skill key", env.Message)

	status, env = s.do(http.MethodPost, "/api/v1/skills/register", "", map[string]string{
		"username": "bob", "password": "password-x", "skill_key": testSkillKey,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "missing field: nickname", env.Message)

	status, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", env.Message)

	var login loginResponse
	s.ok(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "password-alice",
	}, &login)
	assert.Equal(t, int64(3600), login.ExpiresIn)
	assert.Equal(t, "alice", login.User.Username)
	assert.Equal(t, "ALICE", login.User.Nickname)

	var me userResponse
	s.ok(http.MethodGet, "/api/v1/auth/me", login.Token, nil, &me)
	assert.Equal(t, login.User, me)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(http.MethodGet, "/api/v1/conversations/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", env.Message)

	status, env = s.do(http.MethodGet, "/api/v1/conversations/list", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", env.Message)
}

func TestJoinIsIdempotent(t *testing.T) {
	s := newTestServer(t, nil)
	token, roomID := s.signup("alice")
	_, otherRoom := s.signup("bob")
	assert.Equal(t, roomID, otherRoom)

	var again joinRoomResponse
	s.ok(http.MethodPost, "/api/v1/rooms/public/join", token, nil, &again)
	assert.Equal(t, roomID, again.RoomID)
	assert.Equal(t, "Lobby", again.RoomName)
	assert.Equal(t, 2, s.count(`SELECT COUNT(*) FROM conversation_members`))
	assert.Equal(t, 1, s.count(`SELECT COUNT(*) FROM conversations`))
}

func TestSendPullReadFlow(t *testing.T) {
	s := newTestServer(t, nil)
	alice, room := s.signup("alice")
	bob, _ := s.signup("bob")

	first := s.send(alice, room, "m1", "  hello  ")
	assert.False(t, first.Deduplicated)
	assert.NotZero(t, first.MessageID)

	again := s.send(alice, room, "m1", "hello again")
	assert.True(t, again.Deduplicated)
	assert.Equal(t, first.MessageID, again.MessageID)
	assert.Equal(t, 1, s.count(`SELECT COUNT(*) FROM messages WHERE client_msg_id = ?`, "m1"))

	page := s.pull(bob, room, 0, 0)
	require.Len(t, page.List, 1)
	assert.False(t, page.HasMore)
	got := page.List[0]
	assert.Equal(t, first.MessageID, got.ID)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "alice", got.SenderUsername)
	assert.Equal(t, "ALICE", got.SenderNickname)
	assert.Equal(t, "text", got.ContentType)
	assert.Equal(t, "m1", got.ClientMsgID)

	assert.Equal(t, 1, s.unread(bob))
	assert.Equal(t, 0, s.unread(alice), "own messages are not unread")

	var read markReadResponse
	s.ok(http.MethodPost, "/api/v1/messages/read", bob, map[string]any{
		"conversation_id": room, "last_read_message_id": first.MessageID,
	}, &read)
	assert.True(t, read.Updated)
	assert.Equal(t, 0, s.unread(bob))

	second := s.send(alice, room, "m2", "second")
	assert.Equal(t, 1, s.unread(bob))

	// A stale cursor does not move the cursor back.
	s.ok(http.MethodPost, "/api/v1/messages/read", bob, map[string]any{
		"conversation_id": fmt.Sprint(room), "last_read_message_id": second.MessageID,
	}, nil)
	s.ok(http.MethodPost, "/api/v1/messages/read", bob, map[string]any{
		"conversation_id": room, "last_read_message_id": first.MessageID,
	}, nil)
	assert.Equal(t, 0, s.unread(bob))

	var list conversationListResponse
	s.ok(http.MethodGet, "/api/v1/conversations/list", bob, nil, &list)
	require.Len(t, list.List, 1)
	item := list.List[0]
	assert.Equal(t, room, item.ConversationID)
	assert.Equal(t, "Lobby", item.PeerNickname)
	assert.Equal(t, "public_room", item.PeerUsername)
	require.NotNil(t, item.LastMessageID)
	assert.Equal(t, second.MessageID, *item.LastMessageID)
	assert.Equal(t, "second", *item.LastMessageContent)
}

func TestPullPaging(t *testing.T) {
	s := newTestServer(t, nil)
	alice, room := s.signup("alice")

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, s.send(alice, room, fmt.Sprintf("k%d", i), fmt.Sprintf("msg %d", i)).MessageID)
	}

	page := s.pull(alice, room, 0, 2)
	require.Len(t, page.List, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, ids[0], page.List[0].ID)
	assert.Equal(t, ids[1], page.List[1].ID)

	page = s.pull(alice, room, page.List[1].ID, 2)
	require.Len(t, page.List, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, ids[2], page.List[0].ID)

	page = s.pull(alice, room, ids[2], 0)
	assert.Empty(t, page.List)
	assert.False(t, page.HasMore)

	page = s.pull(alice, room, 0, 0)
	assert.Len(t, page.List, 3, "absent limit uses the default page size")

	// limit=0 clamps to 1 rather than falling back to the default.
	var one pullResponse
	s.ok(http.MethodGet, fmt.Sprintf("/api/v1/messages/pull?conversation_id=%d&limit=0", room), alice, nil, &one)
	assert.Len(t, one.List, 1)
	assert.True(t, one.HasMore)

	status, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/messages/pull?conversation_id=%d&limit=abc", room), alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid limit", env.Message)

	status, env = s.do(http.MethodGet, "/api/v1/messages/pull", alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid conversation_id", env.Message)
}

func TestNonMemberIsForbidden(t *testing.T) {
	s := newTestServer(t, nil)
	_, room := s.signup("alice")

	s.ok(http.MethodPost, "/api/v1/skills/register", "", map[string]string{
		"username": "carol", "password": "password-carol", "nickname": "C", "skill_key": testSkillKey,
	}, nil)
	var login loginResponse
	s.ok(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "carol", "password": "password-carol",
	}, &login)

	status, env := s.do(http.MethodPost, "/api/v1/messages/send", login.Token, map[string]any{
		"conversation_id": room, "content": "hi", "client_msg_id": "c1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", env.Message)
	assert.Zero(t, s.count(`SELECT COUNT(*) FROM messages`))

	status, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/messages/pull?conversation_id=%d", room), login.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, "/api/v1/messages/read", login.Token, map[string]any{
		"conversation_id": room, "last_read_message_id": 1,
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSendValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token, room := s.signup("alice")

	cases := []struct {
		name string
		body any
		want string
	}{
		{"missing content", map[string]any{"conversation_id": room, "client_msg_id": "k"}, "missing field: content"},
		{"missing client_msg_id", map[string]any{"conversation_id": room, "content": "x"}, "missing field: client_msg_id"},
		{"missing conversation", map[string]any{"content": "x", "client_msg_id": "k"}, "missing field: conversation_id"},
		{"zero conversation", map[string]any{"conversation_id": 0, "content": "x", "client_msg_id": "k"}, "invalid conversation_id"},
		{"blank content", map[string]any{"conversation_id": room, "content": "   ", "client_msg_id": "k"}, "content is empty"},
		{"long content", map[string]any{"conversation_id": room, "content": strings.Repeat("a", 5001), "client_msg_id": "k"}, "content too long"},
		{"long client_msg_id", map[string]any{"conversation_id": room, "content": "x", "client_msg_id": strings.Repeat("k", 65)}, "invalid client_msg_id"},
		{"malformed body", "{not json", "invalid JSON body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(http.MethodPost, "/api/v1/messages/send", token, tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Equal(t, tc.want, env.Message)
		})
	}
	assert.Zero(t, s.count(`SELECT COUNT(*) FROM messages`))

	status, env := s.do(http.MethodPost, "/api/v1/messages/read", token, map[string]any{"conversation_id": room})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "missing field: last_read_message_id", env.Message)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func TestSendRateLimit(t *testing.T) {
	t.Run("rejects over limit", func(t *testing.T) {
		limiter := &stubLimiter{allow: false}
		s := newTestServer(t, limiter)
		token, room := s.signup("alice")

		status, env := s.do(http.MethodPost, "/api/v1/messages/send", token, map[string]any{
			"conversation_id": room, "content": "x", "client_msg_id": "k",
		})
		assert.Equal(t, http.StatusTooManyRequests, status)
		assert.Equal(t, "rate limit exceeded", env.Message)
		assert.Equal(t, []string{"send:1"}, limiter.keys)

		// Other routes are not throttled.
		s.pull(token, room, 0, 0)
		assert.Len(t, limiter.keys, 1)
	})

	t.Run("fails open", func(t *testing.T) {
		s := newTestServer(t, &stubLimiter{err: errors.New("redis down")})
		token, room := s.signup("alice")
		res := s.send(token, room, "k", "x")
		assert.NotZero(t, res.MessageID)
	})
}
