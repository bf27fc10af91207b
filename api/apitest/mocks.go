package apitest

import (
	"context"
	"fmt"
	"sync"

	"salesassist/api"
)

// MockBackend implements model.Backend for testing. Every method delegates to
// its Func field; NewMockBackend installs an in-memory default for each.
type MockBackend struct {
	ListConversationsFunc  func(ctx context.Context) ([]api.ConversationSummary, error)
	GetConversationFunc    func(ctx context.Context, id api.ID) (*api.Conversation, error)
	DeleteConversationFunc func(ctx context.Context, id api.ID) error
	ChatFunc               func(ctx context.Context, message string, conversationID api.ID) (*api.ChatResponse, error)
	RerunFunc              func(ctx context.Context, conversationID api.ID, messageIndex int, newMessage string) error

	mu            sync.Mutex
	calls         []string
	conversations map[api.ID]*api.Conversation
	nextID        int
}

// NewMockBackend creates a mock that stores conversations in memory and
// answers every chat message with "Mock response".
func NewMockBackend() *MockBackend {
	m := &MockBackend{conversations: map[api.ID]*api.Conversation{}}
	m.ListConversationsFunc = m.defaultList
	m.GetConversationFunc = m.defaultGet
	m.DeleteConversationFunc = m.defaultDelete
	m.ChatFunc = m.defaultChat
	m.RerunFunc = m.defaultRerun
	return m
}

// Put stores a conversation, replacing any existing one with the same id.
func (m *MockBackend) Put(conv api.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := conv
	c.Messages = append([]api.Message(nil), conv.Messages...)
	m.conversations[conv.ID] = &c
}

// Calls returns the method names invoked so far, in order.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times method was invoked.
func (m *MockBackend) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockBackend) record(method string) {
	m.mu.Lock()
	m.calls = append(m.calls, method)
	m.mu.Unlock()
}

func (m *MockBackend) defaultList(ctx context.Context) ([]api.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []api.ConversationSummary
	for _, c := range m.conversations {
		out = append(out, api.ConversationSummary{
			ID:           c.ID,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt,
			MessageCount: len(c.Messages),
		})
	}
	return out, nil
}

func (m *MockBackend) defaultGet(ctx context.Context, id api.ID) (*api.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, &api.StatusError{Op: "get conversation", StatusCode: 404, Message: "Conversation missing"}
	}
	out := *c
	out.Messages = append([]api.Message(nil), c.Messages...)
	return &out, nil
}

func (m *MockBackend) defaultDelete(ctx context.Context, id api.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[id]; !ok {
		return &api.StatusError{Op: "delete conversation", StatusCode: 404, Message: "Conversation missing"}
	}
	delete(m.conversations, id)
	return nil
}

func (m *MockBackend) defaultChat(ctx context.Context, message string, conversationID api.ID) (*api.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conversationID.IsZero() {
		m.nextID++
		conversationID = api.ID(fmt.Sprintf("conv-%d", m.nextID))
		m.conversations[conversationID] = &api.Conversation{ID: conversationID, Title: message}
	}
	c, ok := m.conversations[conversationID]
	if !ok {
		f := false
		return nil, &api.ChatError{StatusCode: 404, Failure: api.ChatFailure{Error: "Conversation missing", IsCritical: &f}}
	}
	c.Messages = append(c.Messages,
		api.Message{Role: api.RoleUser, Content: message},
		api.Message{Role: api.RoleAssistant, Content: "Mock response"},
	)
	return &api.ChatResponse{ConversationID: conversationID, Message: "Mock response"}, nil
}

func (m *MockBackend) defaultRerun(ctx context.Context, conversationID api.ID, messageIndex int, newMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[conversationID]
	if !ok || messageIndex < 0 || messageIndex >= len(c.Messages) {
		return &api.StatusError{Op: "rerun", StatusCode: 400, Message: "Invalid message index"}
	}
	c.Messages = append(c.Messages[:messageIndex],
		api.Message{Role: api.RoleUser, Content: newMessage},
		api.Message{Role: api.RoleAssistant, Content: "Rerun: " + newMessage},
	)
	return nil
}

func (m *MockBackend) ListConversations(ctx context.Context) ([]api.ConversationSummary, error) {
	m.record("ListConversations")
	return m.ListConversationsFunc(ctx)
}

func (m *MockBackend) GetConversation(ctx context.Context, id api.ID) (*api.Conversation, error) {
	m.record("GetConversation")
	return m.GetConversationFunc(ctx, id)
}

func (m *MockBackend) DeleteConversation(ctx context.Context, id api.ID) error {
	m.record("DeleteConversation")
	return m.DeleteConversationFunc(ctx, id)
}

func (m *MockBackend) Chat(ctx context.Context, message string, conversationID api.ID) (*api.ChatResponse, error) {
	m.record("Chat")
	return m.ChatFunc(ctx, message, conversationID)
}

func (m *MockBackend) Rerun(ctx context.Context, conversationID api.ID, messageIndex int, newMessage string) error {
	m.record("Rerun")
	return m.RerunFunc(ctx, conversationID, messageIndex, newMessage)
}
