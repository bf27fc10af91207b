package model

import (
	tea "github.com/charmbracelet/bubbletea"

	"salesassist/api"
	"salesassist/config"
	"salesassist/render"
)

// EditState is an open inline edit of a user message.
type EditState struct {
	EntryKey int
	Index    int
	Original string
}

// Model holds the session state shared by the chat, sidebar and edit flows.
// It is only touched from the Bubble Tea update loop; commands capture what
// they need before running.
type Model struct {
	Config   *config.Config
	Backend  Backend
	Renderer *render.Renderer

	Store      *Store
	Transcript *Transcript
	Sidebar    *Sidebar

	// Sending is set while a chat request is in flight. Rerunning covers a
	// rerun and its refetch. Either one blocks new submissions.
	Sending   bool
	Rerunning bool

	Edit          *EditState
	PendingDelete *api.ConversationSummary

	// Fatal is the message of a critical error. Once set the session is
	// over until Reload.
	Fatal string

	// Notice is a transient, non-critical message for the status line.
	Notice string

	// loadSeq numbers conversation loads. A result whose number is not the
	// latest is dropped.
	loadSeq int

	// chatKey and rerunKey are the loading entries of the requests that own
	// Sending and Rerunning. Reload clears them, which orphans anything
	// still in flight from before it.
	chatKey  int
	rerunKey int
}

func NewModel(cfg *config.Config, backend Backend) *Model {
	store := NewStore()
	return &Model{
		Config:     cfg,
		Backend:    backend,
		Renderer:   render.New(),
		Store:      store,
		Transcript: NewTranscript(),
		Sidebar:    NewSidebar(store),
	}
}

// Busy reports whether a request that must not overlap a new submission is
// in flight.
func (m *Model) Busy() bool {
	return m.Sending || m.Rerunning
}

func (m *Model) Welcome() bool {
	return m.Transcript.Welcome(m.Store)
}

func (m *Model) ShowQueries() bool {
	return m.Config != nil && m.Config.ShowQueries
}

// CurrentTitle returns the sidebar title of the active conversation.
func (m *Model) CurrentTitle() string {
	if title, ok := m.Sidebar.Title(m.Store.Current()); ok && title != "" {
		return title
	}
	return "Sales Assistant"
}

func debugf(format string, args ...any) {
	if config.DebugLog != nil {
		config.DebugLog.Printf(format, args...)
	}
}

// HandleChartBuilt stores a chart built for a mounted entry. It reports
// false when the entry has left the transcript.
func (m *Model) HandleChartBuilt(msg ChartBuiltMsg) bool {
	return m.Transcript.ChartBuilt(msg.EntryKey, msg.Pos, msg.Rendered)
}

// Handle routes a session message to its handler. It reports false for
// messages it does not own.
func (m *Model) Handle(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case ConversationsLoadedMsg:
		return m.HandleConversationsLoaded(msg), true
	case ConversationLoadedMsg:
		return m.HandleConversationLoaded(msg), true
	case ChatResultMsg:
		return m.HandleChatResult(msg), true
	case DeleteResultMsg:
		return m.HandleDeleteResult(msg), true
	case EditFetchedMsg:
		return m.HandleEditFetched(msg), true
	case RerunResultMsg:
		return m.HandleRerunResult(msg), true
	case RerunRefetchedMsg:
		return m.HandleRerunRefetched(msg), true
	case ChartBuiltMsg:
		m.HandleChartBuilt(msg)
		return nil, true
	case TranscriptExportedMsg:
		m.HandleTranscriptExported(msg)
		return nil, true
	}
	return nil, false
}
