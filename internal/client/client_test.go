package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imchat/internal/config"
	"imchat/internal/httpserver"
	"imchat/internal/security"
	"imchat/internal/store/sqlite"
)

const skillKey = "client-test-key"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		AppName:          "imchat",
		SkillRegisterKey: skillKey,
		PublicRoomName:   "Lobby",
		CORSOrigins:      []string{"*"},
	}
	h := httpserver.NewRouter(cfg, sqlite.NewRepositories(db),
		security.NewTokenService("client-test-secret", time.Hour),
		security.NewPasswordHasher(4),
		security.PlainCodec{},
		nil,
	)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func signup(t *testing.T, baseURL, username string) (*Client, *Room) {
	t.Helper()
	ctx := context.Background()
	c := New(baseURL+"/", "")

	id, err := c.Register(ctx, RegisterRequest{Username: username, Password: "password-1", Nickname: username + "!", SkillKey: skillKey})
	require.NoError(t, err)
	require.NotZero(t, id)

	login, err := c.Login(ctx, username, "password-1")
	require.NoError(t, err)
	assert.Equal(t, id, login.User.ID)
	assert.Equal(t, int64(3600), login.ExpiresIn)

	room, err := c.JoinPublicRoom(ctx)
	require.NoError(t, err)
	return c, room
}

func TestClientRoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	service, err := New(srv.URL, "").Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "imchat", service)

	alice, room := signup(t, srv.URL, "alice")
	bob, _ := signup(t, srv.URL, "bob")
	assert.Equal(t, "Lobby", room.RoomName)

	me, err := alice.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice!", me.Nickname)

	sent, err := alice.Send(ctx, SendRequest{ConversationID: room.RoomID, Content: "hi bob", ClientMsgID: "a-1"})
	require.NoError(t, err)
	assert.False(t, sent.Deduplicated)

	again, err := alice.Send(ctx, SendRequest{ConversationID: room.RoomID, Content: "hi bob", ClientMsgID: "a-1"})
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, sent.MessageID, again.MessageID)

	page, err := bob.Pull(ctx, room.RoomID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, "hi bob", page.List[0].Content)
	assert.Equal(t, "alice", page.List[0].SenderUsername)

	convs, err := bob.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].UnreadCount)

	require.NoError(t, bob.MarkRead(ctx, room.RoomID, sent.MessageID))
	convs, err = bob.Conversations(ctx)
	require.NoError(t, err)
	assert.Zero(t, convs[0].UnreadCount)
}

func TestClientAPIError(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	_, err := New(srv.URL, "").Login(ctx, "nobody", "password-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, "invalid credentials", apiErr.Message)

	_, err = New(srv.URL, "").Conversations(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestTail(t *testing.T) {
	srv := newServer(t)
	alice, room := signup(t, srv.URL, "alice")
	bob, _ := signup(t, srv.URL, "bob")

	var firstID int64
	for i, content := range []string{"one", "two", "three"} {
		res, err := alice.Send(context.Background(), SendRequest{ConversationID: room.RoomID, Content: content, ClientMsgID: content})
		require.NoError(t, err)
		if i == 0 {
			firstID = res.MessageID
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		got      []string
		advanced []int64
	)
	done := make(chan error, 1)
	go func() {
		done <- bob.Tail(ctx, TailOptions{
			ConversationID: room.RoomID,
			AfterID:        firstID,
			Interval:       10 * time.Millisecond,
			OnMessage: func(m Message) {
				mu.Lock()
				got = append(got, m.Content)
				if len(got) == 2 {
					cancel()
				}
				mu.Unlock()
			},
			OnAdvance: func(id int64) {
				mu.Lock()
				advanced = append(advanced, id)
				mu.Unlock()
			},
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("tail did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"two", "three"}, got)
	require.NotEmpty(t, advanced)
	assert.Equal(t, firstID+2, advanced[len(advanced)-1])
}
