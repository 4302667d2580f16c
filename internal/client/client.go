// Package client is a typed HTTP client for the imchat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-zero envelope returned by the server.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	SkillKey string `json:"skill_key"`
}

type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      User   `json:"user"`
}

type Room struct {
	RoomID   int64  `json:"room_id"`
	RoomName string `json:"room_name"`
}

type Conversation struct {
	ConversationID     int64      `json:"conversation_id"`
	PeerNickname       string     `json:"peer_nickname"`
	PeerUsername       string     `json:"peer_username"`
	LastMessageID      *int64     `json:"last_message_id"`
	LastMessageContent *string    `json:"last_message_content"`
	LastMessageTime    *time.Time `json:"last_message_time"`
	UnreadCount        int        `json:"unread_count"`
}

type SendRequest struct {
	ConversationID int64  `json:"conversation_id"`
	Content        string `json:"content"`
	ClientMsgID    string `json:"client_msg_id"`
}

type SendResult struct {
	MessageID    int64     `json:"message_id"`
	CreatedAt    time.Time `json:"created_at"`
	Deduplicated bool      `json:"deduplicated"`
}

type Message struct {
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

type PullPage struct {
	List    []Message `json:"list"`
	HasMore bool      `json:"has_more"`
}

func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Service string `json:"service"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &out)
	return out.Service, err
}

// Register creates an account through the skill-gated endpoint and returns its id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	var out struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/skills/register", req, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

// Login exchanges credentials for a token. The client keeps using the new token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinPublicRoom(ctx context.Context) (*Room, error) {
	var out Room
	if err := c.do(ctx, http.MethodPost, "/api/v1/rooms/public/join", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out struct {
		List []Conversation `json:"list"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations/list", nil, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	var out SendResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/messages/send", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pull fetches messages after afterID. A limit of 0 leaves the page size to the server.
func (c *Client) Pull(ctx context.Context, conversationID, afterID int64, limit int) (*PullPage, error) {
	q := url.Values{}
	q.Set("conversation_id", strconv.FormatInt(conversationID, 10))
	q.Set("after_message_id", strconv.FormatInt(afterID, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out PullPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/messages/pull?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkRead(ctx context.Context, conversationID, lastReadMessageID int64) error {
	body := map[string]int64{
		"conversation_id":      conversationID,
		"last_read_message_id": lastReadMessageID,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/messages/read", body, nil)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response (status %d): %w", method, path, resp.StatusCode, err)
	}
	if env.Code != 0 || resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
