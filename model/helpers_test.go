package model

import (
	"fmt"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"salesassist/api"
	"salesassist/api/apitest"
	"salesassist/config"
	"salesassist/render"
)

func newTestModel(t *testing.T) (*Model, *apitest.MockBackend) {
	t.Helper()
	backend := apitest.NewMockBackend()
	m := NewModel(&config.Config{}, backend)
	n := 0
	m.Renderer = render.NewWithIDs(func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	})
	return m, backend
}

// run executes cmd and feeds each resulting message back into the model
// until no command remains.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		next, ok := m.Handle(msg)
		require.True(t, ok, "unhandled message %T", msg)
		cmd = next
	}
}

func entryContents(m *Model) []string {
	var out []string
	for _, e := range m.Transcript.Entries() {
		out = append(out, e.Kind.String()+":"+e.Content)
	}
	return out
}

func seedConversation(backend *apitest.MockBackend) {
	backend.Put(api.Conversation{
		ID:    "c1",
		Title: "Top customers",
		Messages: []api.Message{
			{Role: api.RoleUser, Content: "top customers"},
			{Role: api.RoleAssistant, Content: "Acme leads"},
			{Role: api.RoleUser, Content: "and products?"},
			{Role: api.RoleAssistant, Content: "Laptops"},
		},
	})
}

func boolPtr(b bool) *bool { return &b }

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}
