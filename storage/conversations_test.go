package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesassist/api"
)

func openTestConversations(t *testing.T) *ConversationStorage {
	t.Helper()
	cs, err := NewConversationStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	cs := openTestConversations(t)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)

	id, err := cs.Create(ctx, "Top customers", now)
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	require.NoError(t, cs.Append(ctx, id, api.Message{Role: "user", Content: "Who are the top customers?"}, now))
	require.NoError(t, cs.Append(ctx, id, api.Message{
		Role:    "assistant",
		Content: "Here they are.",
		FunctionResults: []api.Result{{
			Type:     api.ResultTable,
			Columns:  []string{"name"},
			Rows:     [][]any{{"Acme"}},
			RowCount: 1,
			Query:    "SELECT name FROM customers",
		}},
	}, now))
	require.NoError(t, cs.Append(ctx, id, api.Message{Role: "error", Content: "Quota", IsCritical: true}, now))

	conv, err := cs.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "Top customers", conv.Title)
	assert.Equal(t, "2025-03-01T09:30:00.000000", conv.CreatedAt)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "user", conv.Messages[0].Role)
	require.Len(t, conv.Messages[1].FunctionResults, 1)
	assert.Equal(t, "SELECT name FROM customers", conv.Messages[1].FunctionResults[0].Query)
	assert.Equal(t, []any{"Acme"}, conv.Messages[1].FunctionResults[0].Rows[0])
	assert.True(t, conv.Messages[2].IsCritical)
	assert.False(t, conv.Messages[0].IsCritical)

	deleted, err := cs.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	conv, err = cs.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, conv)

	deleted, err = cs.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	cs := openTestConversations(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

	older, err := cs.Create(ctx, "older", base)
	require.NoError(t, err)
	newer, err := cs.Create(ctx, "newer", base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, cs.Append(ctx, older, api.Message{Role: "user", Content: "hi"}, base))

	list, err := cs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)
	assert.Equal(t, 0, list[0].MessageCount)
	assert.Equal(t, older, list[1].ID)
	assert.Equal(t, 1, list[1].MessageCount)
}

func TestListEmpty(t *testing.T) {
	list, err := openTestConversations(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRewriteTruncatesSuffix(t *testing.T) {
	ctx := context.Background()
	cs := openTestConversations(t)
	now := time.Now()

	id, err := cs.Create(ctx, "t", now)
	require.NoError(t, err)
	for _, m := range []api.Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "a2"},
	} {
		require.NoError(t, cs.Append(ctx, id, m, now))
	}

	require.NoError(t, cs.Rewrite(ctx, id, 0, "q1 edited"))

	conv, err := cs.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "q1 edited", conv.Messages[0].Content)

	// Appending after a rewrite continues from the new end.
	require.NoError(t, cs.Append(ctx, id, api.Message{Role: "assistant", Content: "a1'"}, now))
	conv, err = cs.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "a1'", conv.Messages[1].Content)

	assert.Error(t, cs.Rewrite(ctx, id, 7, "missing"))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cs, err := NewConversationStorage(dir)
	require.NoError(t, err)
	id, err := cs.Create(ctx, "persisted", time.Now())
	require.NoError(t, err)
	require.NoError(t, cs.Close())

	cs, err = OpenConversationStorage(filepath.Join(dir, "conversations.db"))
	require.NoError(t, err)
	defer cs.Close()

	conv, err := cs.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "persisted", conv.Title)
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Top customers", "Top customers"},
		{"multi\nline  question", "multi\nline  question"},
		{strings.Repeat("é", 51), strings.Repeat("é", 50) + "..."},
		{strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateTitle(tt.in))
	}
}
