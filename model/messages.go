package model

import "salesassist/api"

type ConversationsLoadedMsg struct {
	Conversations []api.ConversationSummary
	Err           error
}

type ConversationLoadedMsg struct {
	Seq          int
	ID           api.ID
	Conversation *api.Conversation
	Err          error
}

type ChatResultMsg struct {
	LoadingKey int
	Response   *api.ChatResponse
	Err        error
}

type DeleteResultMsg struct {
	ID  api.ID
	Err error
}

type EditFetchedMsg struct {
	Epoch          int
	ConversationID api.ID
	EntryKey       int
	Index          int
	Conversation   *api.Conversation
	Err            error
}

type RerunResultMsg struct {
	ConversationID api.ID
	Index          int
	LoadingKey     int
	Err            error
}

type RerunRefetchedMsg struct {
	RerunKey       int
	Epoch          int
	ConversationID api.ID
	Index          int
	Conversation   *api.Conversation
	Err            error
}

type ChartBuiltMsg struct {
	EntryKey int
	Pos      int
	Rendered string
}

type TranscriptExportedMsg struct {
	Path string
	Err  error
}

type NoticeExpiredMsg struct {
	Notice string
}
