package model

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"salesassist/api"
)

const (
	transportFailureText = "Failed to send message. Please check your connection and try again."
	criticalDefaultText  = "A critical error occurred"
	errorDefaultText     = "An error occurred"
)

// Submit sends a chat message. Blank input, a request already in flight or
// a fatal session make it a no-op.
func (m *Model) Submit(text string) tea.Cmd {
	message := strings.TrimSpace(text)
	if message == "" || m.Busy() || m.Fatal != "" {
		return nil
	}

	m.Notice = ""
	m.Transcript.AppendUser(message)
	m.Sending = true
	loadingKey := m.Transcript.AppendLoading()
	m.chatKey = loadingKey

	backend := m.Backend
	conversationID := m.Store.Current()

	debugf("[Chat] Sending message (conversation=%q, %d chars)", conversationID, len(message))

	return func() tea.Msg {
		resp, err := backend.Chat(context.Background(), message, conversationID)
		return ChatResultMsg{LoadingKey: loadingKey, Response: resp, Err: err}
	}
}

// HandleChatResult applies the outcome of a Submit. The loading entry is
// always removed and input is released, whatever the outcome. A result
// sent before a reload changes nothing but the list.
func (m *Model) HandleChatResult(msg ChatResultMsg) tea.Cmd {
	if msg.LoadingKey != m.chatKey {
		debugf("[Chat] Response arrived from before a reload, dropping it")
		if msg.Err == nil || isRecoverable(msg.Err) {
			return m.FetchConversations()
		}
		return nil
	}
	m.Sending = false
	m.chatKey = 0

	if !m.Transcript.Remove(msg.LoadingKey) {
		// The transcript was replaced while the request was in flight.
		debugf("[Chat] Response arrived for a replaced transcript, dropping it")
		if msg.Err == nil || isRecoverable(msg.Err) {
			return m.FetchConversations()
		}
		m.fail(msg.Err)
		return nil
	}

	if msg.Err != nil {
		if !isRecoverable(msg.Err) {
			m.fail(msg.Err)
			return nil
		}

		var chatErr *api.ChatError
		errors.As(msg.Err, &chatErr)
		debugf("[Chat] Recoverable error: %v", msg.Err)

		// A conversation may have been created before the failure.
		var cmd tea.Cmd
		if id := chatErr.Failure.ConversationID; !id.IsZero() {
			m.Store.Set(id)
			cmd = m.FetchConversations()
		}

		text := chatErr.Failure.Error
		if text == "" {
			text = errorDefaultText
		}
		m.Transcript.AppendError(text, false)
		return cmd
	}

	var cmd tea.Cmd
	if !m.Store.Has() {
		m.Store.Set(msg.Response.ConversationID)
		cmd = m.FetchConversations()
	}
	m.Transcript.AppendAssistant(msg.Response.Message, msg.Response.FunctionResults)
	return cmd
}

func isRecoverable(err error) bool {
	var chatErr *api.ChatError
	return errors.As(err, &chatErr) && !chatErr.Critical()
}

// fail ends the session. Only Reload recovers from it.
func (m *Model) fail(err error) {
	debugf("[Chat] Critical error: %v", err)

	message := transportFailureText
	var chatErr *api.ChatError
	if errors.As(err, &chatErr) {
		message = chatErr.Failure.Error
		if message == "" {
			message = criticalDefaultText
		}
	}

	m.Fatal = message
	m.Edit = nil
	m.PendingDelete = nil
}
