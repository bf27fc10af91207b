package model

import (
	"context"

	"salesassist/api"
)

// Backend is the HTTP surface the session controllers talk to. *api.Client
// implements it; tests substitute apitest.MockBackend.
type Backend interface {
	ListConversations(ctx context.Context) ([]api.ConversationSummary, error)
	GetConversation(ctx context.Context, id api.ID) (*api.Conversation, error)
	DeleteConversation(ctx context.Context, id api.ID) error
	Chat(ctx context.Context, message string, conversationID api.ID) (*api.ChatResponse, error)
	Rerun(ctx context.Context, conversationID api.ID, messageIndex int, newMessage string) error
}

var _ Backend = (*api.Client)(nil)
