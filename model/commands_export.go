package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"salesassist/config"
	"salesassist/render"
)

// TranscriptFragments renders the transcript through the HTML renderer, in
// order. Loading placeholders are skipped.
func (m *Model) TranscriptFragments() []render.Fragment {
	var fragments []render.Fragment
	for _, e := range m.Transcript.Entries() {
		switch e.Kind {
		case EntryUser:
			fragments = append(fragments, render.Fragment{HTML: m.Renderer.UserMessage(e.Content, e.Index)})
		case EntryAssistant:
			fragments = append(fragments, m.Renderer.AssistantMessage(e.Content, e.Results))
		case EntryError:
			fragments = append(fragments, render.Fragment{HTML: m.Renderer.ErrorMessage(e.Content, e.Critical)})
		}
	}
	return fragments
}

// ExportPath is where an export of the current conversation is written.
func (m *Model) ExportPath(now time.Time) string {
	name := "new-chat"
	if m.Store.Has() {
		name = m.Store.Current().String()
	}
	return filepath.Join(config.GetCacheDir(), "exports",
		fmt.Sprintf("%s-%s.html", sanitizeFileName(name), now.Format("20060102-150405")))
}

// ExportHTML writes the transcript as a standalone HTML page to path.
func (m *Model) ExportHTML(path string) tea.Cmd {
	if m.Transcript.Len() == 0 {
		return nil
	}
	// Rendered here so the command does not read the transcript.
	doc, err := m.Renderer.Document(m.CurrentTitle(), m.TranscriptFragments())

	return func() tea.Msg {
		if err != nil {
			return TranscriptExportedMsg{Err: err}
		}
		if err := config.EnsureDir(filepath.Dir(path)); err != nil {
			return TranscriptExportedMsg{Err: fmt.Errorf("failed to create export directory: %w", err)}
		}
		if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
			return TranscriptExportedMsg{Err: fmt.Errorf("failed to write export: %w", err)}
		}
		return TranscriptExportedMsg{Path: path}
	}
}

func (m *Model) HandleTranscriptExported(msg TranscriptExportedMsg) {
	if msg.Err != nil {
		debugf("[Export] %v", msg.Err)
		m.Notice = "Export failed"
		return
	}
	m.Notice = "Exported to " + msg.Path
}

func sanitizeFileName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
