package model

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"salesassist/api"
)

const (
	loadListFailedText  = "Failed to load conversations"
	loadFailedText      = "Failed to load conversation"
	loadMissingText     = "Conversation no longer exists"
	deleteFailedText    = "Failed to delete conversation"
	deleteDialogTitle   = "Delete chat?"
	deleteDialogMessage = "This will delete the conversation permanently."
)

// DeleteDialog returns the confirmation dialog text.
func DeleteDialog() (title, message string) {
	return deleteDialogTitle, deleteDialogMessage
}

// Init fetches the conversation list on startup.
func (m *Model) Init() tea.Cmd {
	return m.FetchConversations()
}

// FetchConversations retrieves the sidebar list.
func (m *Model) FetchConversations() tea.Cmd {
	backend := m.Backend
	return func() tea.Msg {
		conversations, err := backend.ListConversations(context.Background())
		return ConversationsLoadedMsg{Conversations: conversations, Err: err}
	}
}

func (m *Model) HandleConversationsLoaded(msg ConversationsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		debugf("[Sidebar] Error loading conversations: %v", msg.Err)
		m.Notice = loadListFailedText
		return nil
	}
	m.Sidebar.SetItems(msg.Conversations)
	return nil
}

// LoadConversation fetches a conversation for display. Only the latest
// load is applied; selecting another conversation first supersedes it.
func (m *Model) LoadConversation(id api.ID) tea.Cmd {
	if id.IsZero() || m.Fatal != "" {
		return nil
	}
	m.loadSeq++
	seq := m.loadSeq
	backend := m.Backend
	return func() tea.Msg {
		conv, err := backend.GetConversation(context.Background(), id)
		return ConversationLoadedMsg{Seq: seq, ID: id, Conversation: conv, Err: err}
	}
}

// HandleConversationLoaded makes the fetched conversation current and
// replays it into the transcript.
func (m *Model) HandleConversationLoaded(msg ConversationLoadedMsg) tea.Cmd {
	if m.Fatal != "" {
		return nil
	}
	if msg.Seq != m.loadSeq {
		debugf("[Conversation] Dropping superseded load of %q", msg.ID)
		return nil
	}
	if msg.Err != nil {
		debugf("[Conversation] Error loading %q: %v", msg.ID, msg.Err)
		if api.IsNotFound(msg.Err) {
			// Deleted elsewhere; drop it from the list.
			m.Notice = loadMissingText
			return m.FetchConversations()
		}
		m.Notice = loadFailedText
		return nil
	}

	m.Store.Set(msg.ID)
	m.Edit = nil
	m.Notice = ""
	m.Transcript.Replay(msg.Conversation.Messages)
	m.Sidebar.FocusActive()

	debugf("[Conversation] Loaded %q with %d messages", msg.ID, len(msg.Conversation.Messages))
	return nil
}

// RequestDelete opens the confirmation dialog for a conversation.
func (m *Model) RequestDelete(conv api.ConversationSummary) {
	if m.Fatal != "" {
		return
	}
	c := conv
	m.PendingDelete = &c
}

func (m *Model) CancelDelete() {
	m.PendingDelete = nil
}

// ConfirmDelete deletes the conversation awaiting confirmation.
func (m *Model) ConfirmDelete() tea.Cmd {
	if m.PendingDelete == nil {
		return nil
	}
	id := m.PendingDelete.ID
	m.PendingDelete = nil

	backend := m.Backend
	return func() tea.Msg {
		err := backend.DeleteConversation(context.Background(), id)
		return DeleteResultMsg{ID: id, Err: err}
	}
}

// HandleDeleteResult resets to the welcome view if the active conversation
// was deleted and refreshes the list. A non-2xx reply changes nothing.
func (m *Model) HandleDeleteResult(msg DeleteResultMsg) tea.Cmd {
	if msg.Err != nil {
		if api.IsTransport(msg.Err) {
			debugf("[Sidebar] Error deleting %q: %v", msg.ID, msg.Err)
			m.Notice = deleteFailedText
		} else {
			debugf("[Sidebar] Delete of %q rejected: %v", msg.ID, msg.Err)
		}
		return nil
	}

	if m.Store.IsCurrent(msg.ID) {
		m.Store.Clear()
		m.Transcript.Reset()
		m.Edit = nil
	}
	return m.FetchConversations()
}

// NewChat returns to the welcome view. The next message starts a new
// conversation.
func (m *Model) NewChat() {
	if m.Fatal != "" {
		return
	}
	m.loadSeq++
	m.Store.Clear()
	m.Transcript.Reset()
	m.Edit = nil
	m.Notice = ""
}

// Reload rebuilds the session from scratch. It is the only way out of the
// fatal screen. The transcript is reset rather than replaced so keys and
// epochs held by requests from before the reload never match again.
func (m *Model) Reload() tea.Cmd {
	debugf("[Session] Reloading")
	m.loadSeq++
	m.Store.Clear()
	m.Transcript.Reset()
	m.Sidebar.Reset()
	m.Sending = false
	m.Rerunning = false
	m.chatKey = 0
	m.rerunKey = 0
	m.Edit = nil
	m.PendingDelete = nil
	m.Fatal = ""
	m.Notice = ""
	return m.FetchConversations()
}
