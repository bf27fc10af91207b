package model

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"salesassist/api"
)

const (
	editFailedText  = "Failed to edit message"
	rerunFailedText = "Failed to re-run message"
	maxEditRows     = 10
)

// BeginEdit refetches the conversation before opening an edit of a user
// entry, so the index it edits is the server's, not a stale local one.
func (m *Model) BeginEdit(entryKey int) tea.Cmd {
	if !m.Store.Has() || m.Busy() || m.Fatal != "" {
		return nil
	}
	entry, ok := m.Transcript.Get(entryKey)
	if !ok || !entry.Editable() {
		return nil
	}

	backend := m.Backend
	conversationID := m.Store.Current()
	index := entry.Index
	epoch := m.Transcript.Epoch()

	return func() tea.Msg {
		conv, err := backend.GetConversation(context.Background(), conversationID)
		return EditFetchedMsg{
			Epoch:          epoch,
			ConversationID: conversationID,
			EntryKey:       entryKey,
			Index:          index,
			Conversation:   conv,
			Err:            err,
		}
	}
}

// HandleEditFetched opens the edit if the target still checks out. Any
// mismatch aborts silently.
func (m *Model) HandleEditFetched(msg EditFetchedMsg) tea.Cmd {
	if m.Fatal != "" || !m.Store.IsCurrent(msg.ConversationID) || m.Transcript.Epoch() != msg.Epoch {
		return nil
	}
	if msg.Err != nil {
		debugf("[Edit] Error fetching %q: %v", msg.ConversationID, msg.Err)
		m.Transcript.AppendError(editFailedText, false)
		return nil
	}

	messages := msg.Conversation.Messages
	if msg.Index < 0 || msg.Index >= len(messages) || messages[msg.Index].Role != api.RoleUser {
		debugf("[Edit] Message %d is no longer a user message", msg.Index)
		return nil
	}
	entry, ok := m.Transcript.Get(msg.EntryKey)
	if !ok || entry.Index != msg.Index {
		return nil
	}

	m.Edit = &EditState{
		EntryKey: msg.EntryKey,
		Index:    msg.Index,
		Original: messages[msg.Index].Content,
	}
	return nil
}

// EditRows is the height of the edit field for the original text.
func EditRows(original string) int {
	return min(maxEditRows, strings.Count(original, "\n")+2)
}

// CancelEdit closes the edit field. The entry is left as it was.
func (m *Model) CancelEdit() {
	m.Edit = nil
}

// SaveEdit truncates the transcript after the edited message, shows the new
// text in place and asks the backend to regenerate everything after it.
// Blank text is ignored and the edit stays open.
func (m *Model) SaveEdit(text string) tea.Cmd {
	if m.Edit == nil || m.Busy() {
		return nil
	}
	edited := strings.TrimSpace(text)
	if edited == "" {
		return nil
	}

	edit := *m.Edit
	m.Edit = nil
	if !m.Transcript.TruncateAfter(edit.EntryKey) {
		return nil
	}
	m.Transcript.SetContent(edit.EntryKey, edited)

	m.Rerunning = true
	loadingKey := m.Transcript.AppendLoading()
	m.rerunKey = loadingKey

	backend := m.Backend
	conversationID := m.Store.Current()

	debugf("[Edit] Re-running message %d of %q", edit.Index, conversationID)

	return func() tea.Msg {
		err := backend.Rerun(context.Background(), conversationID, edit.Index, edited)
		return RerunResultMsg{
			ConversationID: conversationID,
			Index:          edit.Index,
			LoadingKey:     loadingKey,
			Err:            err,
		}
	}
}

// HandleRerunResult refetches the conversation after a successful rerun.
// Failures are shown inline; the truncated view is not rolled back.
func (m *Model) HandleRerunResult(msg RerunResultMsg) tea.Cmd {
	if msg.LoadingKey != m.rerunKey {
		return nil
	}
	if !m.Transcript.Remove(msg.LoadingKey) || !m.Store.IsCurrent(msg.ConversationID) {
		m.finishRerun()
		return nil
	}
	if msg.Err != nil {
		m.finishRerun()
		debugf("[Edit] Error re-running message: %v", msg.Err)
		m.Transcript.AppendError(rerunFailedText, false)
		return nil
	}

	backend := m.Backend
	epoch := m.Transcript.Epoch()
	return func() tea.Msg {
		conv, err := backend.GetConversation(context.Background(), msg.ConversationID)
		return RerunRefetchedMsg{
			RerunKey:       msg.LoadingKey,
			Epoch:          epoch,
			ConversationID: msg.ConversationID,
			Index:          msg.Index,
			Conversation:   conv,
			Err:            err,
		}
	}
}

// HandleRerunRefetched appends the regenerated messages after the edited
// one. The edited message itself was already updated in place.
func (m *Model) HandleRerunRefetched(msg RerunRefetchedMsg) tea.Cmd {
	if msg.RerunKey != m.rerunKey {
		return nil
	}
	m.finishRerun()
	if m.Transcript.Epoch() != msg.Epoch || !m.Store.IsCurrent(msg.ConversationID) {
		return nil
	}
	if msg.Err != nil {
		debugf("[Edit] Error refetching after rerun: %v", msg.Err)
		m.Transcript.AppendError(rerunFailedText, false)
		return nil
	}

	n := m.Transcript.AppendMessages(msg.Conversation.Messages, msg.Index)
	debugf("[Edit] Replayed %d messages after index %d", n, msg.Index)
	return m.FetchConversations()
}

func (m *Model) finishRerun() {
	m.Rerunning = false
	m.rerunKey = 0
}
