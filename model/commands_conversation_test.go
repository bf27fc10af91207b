package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesassist/api"
)

func TestInitFetchesConversations(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)

	run(t, m, m.Init())

	require.True(t, m.Sidebar.Loaded())
	require.Len(t, m.Sidebar.Items(), 1)
	assert.Equal(t, "Top customers", m.Sidebar.Items()[0].Title)
}

func TestFetchConversationsFailureShowsNotice(t *testing.T) {
	m, backend := newTestModel(t)
	backend.ListConversationsFunc = func(ctx context.Context) ([]api.ConversationSummary, error) {
		return nil, &api.TransportError{Op: "list conversations", Err: errors.New("refused")}
	}

	run(t, m, m.FetchConversations())

	assert.Equal(t, "Failed to load conversations", m.Notice)
	assert.False(t, m.Sidebar.Loaded())
	assert.Empty(t, m.Fatal, "list failures are not critical")
}

func TestLoadConversationReplays(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	run(t, m, m.Init())

	run(t, m, m.LoadConversation("c1"))

	assert.Equal(t, api.ID("c1"), m.Store.Current())
	assert.Equal(t, []string{
		"user:top customers",
		"assistant:Acme leads",
		"user:and products?",
		"assistant:Laptops",
	}, entryContents(m))
	assert.True(t, m.Sidebar.IsActive("c1"))
	assert.False(t, m.Welcome())
}

func TestLoadConversationFailure(t *testing.T) {
	m, backend := newTestModel(t)
	backend.GetConversationFunc = func(ctx context.Context, id api.ID) (*api.Conversation, error) {
		return nil, &api.TransportError{Op: "get conversation", Err: errors.New("refused")}
	}
	m.Transcript.AppendUser("keep me")

	run(t, m, m.LoadConversation("c1"))

	assert.Equal(t, "Failed to load conversation", m.Notice)
	assert.False(t, m.Store.Has())
	assert.Equal(t, []string{"user:keep me"}, entryContents(m))
	assert.Equal(t, 0, backend.CallCount("ListConversations"))
}

func TestLoadDeletedConversationRefreshesList(t *testing.T) {
	m, backend := newTestModel(t)
	m.Transcript.AppendUser("keep me")

	run(t, m, m.LoadConversation("missing"))

	assert.Equal(t, "Conversation no longer exists", m.Notice)
	assert.False(t, m.Store.Has())
	assert.Equal(t, []string{"user:keep me"}, entryContents(m))
	assert.Equal(t, []string{"GetConversation", "ListConversations"}, backend.Calls())
}

func TestDeleteActiveConversationShowsWelcome(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	run(t, m, m.LoadConversation("c1"))

	m.RequestDelete(api.ConversationSummary{ID: "c1"})
	require.NotNil(t, m.PendingDelete)
	run(t, m, m.ConfirmDelete())

	assert.Nil(t, m.PendingDelete)
	assert.False(t, m.Store.Has())
	assert.True(t, m.Welcome())
	assert.Equal(t, 1, backend.CallCount("ListConversations"))
	assert.True(t, m.Sidebar.Empty())
}

func TestDeleteOtherConversationKeepsView(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	backend.Put(api.Conversation{ID: "c2", Title: "other"})
	run(t, m, m.LoadConversation("c1"))
	before := entryContents(m)

	m.RequestDelete(api.ConversationSummary{ID: "c2"})
	run(t, m, m.ConfirmDelete())

	assert.Equal(t, api.ID("c1"), m.Store.Current())
	assert.Equal(t, before, entryContents(m))
	assert.Len(t, m.Sidebar.Items(), 1)
}

func TestCancelDeleteMakesNoRequest(t *testing.T) {
	m, backend := newTestModel(t)
	m.RequestDelete(api.ConversationSummary{ID: "c1"})
	m.CancelDelete()

	assert.Nil(t, m.ConfirmDelete())
	assert.Equal(t, 0, backend.CallCount("DeleteConversation"))
}

func TestDeleteRejectedChangesNothing(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	run(t, m, m.LoadConversation("c1"))
	backend.DeleteConversationFunc = func(ctx context.Context, id api.ID) error {
		return &api.StatusError{Op: "delete conversation", StatusCode: 500}
	}

	m.RequestDelete(api.ConversationSummary{ID: "c1"})
	run(t, m, m.ConfirmDelete())

	assert.True(t, m.Store.IsCurrent("c1"))
	assert.Empty(t, m.Notice)
	assert.Equal(t, 0, backend.CallCount("ListConversations"))
}

func TestDeleteTransportFailureShowsNotice(t *testing.T) {
	m, backend := newTestModel(t)
	backend.DeleteConversationFunc = func(ctx context.Context, id api.ID) error {
		return &api.TransportError{Op: "delete conversation", Err: errors.New("refused")}
	}

	m.RequestDelete(api.ConversationSummary{ID: "c1"})
	run(t, m, m.ConfirmDelete())

	assert.Equal(t, "Failed to delete conversation", m.Notice)
}

func TestNewChat(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	run(t, m, m.LoadConversation("c1"))

	m.NewChat()

	assert.True(t, m.Welcome())
	assert.Nil(t, m.Edit)
}

func TestExportHTML(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	run(t, m, m.Init())
	run(t, m, m.LoadConversation("c1"))

	path := t.TempDir() + "/out/c1.html"
	run(t, m, m.ExportHTML(path))

	assert.Equal(t, "Exported to "+path, m.Notice)
	data, err := readFile(path)
	require.NoError(t, err)
	assert.Contains(t, data, "<title>Top customers</title>")
	assert.Contains(t, data, `data-message-index="2"`)
	assert.Contains(t, data, "Laptops")
}

func TestExportEmptyTranscript(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Nil(t, m.ExportHTML(t.TempDir()+"/x.html"))
}

func TestSupersededLoadIsDropped(t *testing.T) {
	m, backend := newTestModel(t)
	backend.Put(api.Conversation{ID: "a", Messages: []api.Message{{Role: api.RoleUser, Content: "from A"}}})
	backend.Put(api.Conversation{ID: "b", Messages: []api.Message{{Role: api.RoleUser, Content: "from B"}}})

	loadA := m.LoadConversation("a")
	loadB := m.LoadConversation("b")

	// B answers first; A's late response must not take over.
	run(t, m, loadB)
	run(t, m, loadA)

	assert.Equal(t, api.ID("b"), m.Store.Current())
	assert.Equal(t, []string{"user:from B"}, entryContents(m))
}

func TestNewChatSupersedesPendingLoad(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)

	load := m.LoadConversation("c1")
	m.NewChat()
	run(t, m, load)

	assert.False(t, m.Store.Has())
	assert.True(t, m.Welcome())
}

func TestReloadKeepsKeysAndEpochMoving(t *testing.T) {
	m, _ := loadSeeded(t)
	oldKey := userKey(t, m, 0)
	oldEpoch := m.Transcript.Epoch()

	staleEdit := m.BeginEdit(oldKey)
	require.NotNil(t, staleEdit)

	m.Fatal = "Database unavailable"
	run(t, m, m.Reload())
	run(t, m, m.LoadConversation("c1"))

	assert.NotEqual(t, oldKey, userKey(t, m, 0), "keys are not reused after a reload")
	assert.Greater(t, m.Transcript.Epoch(), oldEpoch)

	run(t, m, staleEdit)
	assert.Nil(t, m.Edit, "an edit requested before the reload must not open")
}

func TestReloadResetsSidebar(t *testing.T) {
	m, backend := newTestModel(t)
	seedConversation(backend)
	run(t, m, m.Init())
	m.Sidebar.SetFilter("zzz")
	m.Fatal = "boom"

	cmd := m.Reload()
	assert.False(t, m.Sidebar.Loaded())
	assert.Empty(t, m.Sidebar.Filter())

	run(t, m, cmd)
	assert.True(t, m.Sidebar.Loaded())
	assert.Len(t, m.Sidebar.Items(), 1)
}
