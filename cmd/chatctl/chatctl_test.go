package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imchat/internal/client"
)

func TestStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tail.json")
	s := newStateFile(path)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Zero(t, got, "missing file starts from zero")

	require.NoError(t, s.Save(41))
	require.NoError(t, s.Save(42))
	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"after_id":42}`, string(raw))

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	_, err = s.Load()
	assert.Error(t, err)
}

func TestStateFileDisabled(t *testing.T) {
	s := newStateFile("")
	require.NoError(t, s.Save(7))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestFakeUsername(t *testing.T) {
	gofakeit.Seed(1)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := fakeUsername(i)
		assert.GreaterOrEqual(t, len(name), 3)
		assert.LessOrEqual(t, len(name), 50)
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}
}

func TestFormatMessage(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := client.Message{ID: 9, SenderID: 3, SenderUsername: "alice", Content: "hi", CreatedAt: at}
	assert.Equal(t, "[2026-01-02T03:04:05Z] #9 alice: hi", formatMessage(m))

	m.SenderNickname = "Alice"
	assert.Equal(t, "[2026-01-02T03:04:05Z] #9 Alice: hi", formatMessage(m))

	m.SenderNickname, m.SenderUsername = "", ""
	assert.Equal(t, "[2026-01-02T03:04:05Z] #9 uid:3: hi", formatMessage(m))
}
