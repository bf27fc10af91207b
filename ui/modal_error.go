package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	fatalTitle = "Critical Error"
	fatalHelp  = "The application encountered a critical error and can't continue."
)

// ErrorModal is a standalone modal for errors before the main UI starts.
type ErrorModal struct {
	title   string
	message string
	width   int
	height  int
}

func NewErrorModal(title, message string) ErrorModal {
	return ErrorModal{
		title:   title,
		message: message,
	}
}

func (m ErrorModal) Init() tea.Cmd {
	return nil
}

func (m ErrorModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "ctrl+c":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ErrorModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}
	return RenderAcknowledgeModal(m.title, m.message, "Press Enter to quit", ModalTypeError, m.width, m.height)
}

// renderFatalScreen replaces the whole UI once a critical error has ended
// the session. Reload is the only way out.
func renderFatalScreen(message, reloadKey string, width, height int) string {
	body := message + "\n\n" + DimStyle.Render(fatalHelp)
	footer := fmt.Sprintf("Press %s to reload the application", reloadKey)
	return RenderAcknowledgeModal("⚠ "+fatalTitle, body, footer, ModalTypeError, width, height)
}
