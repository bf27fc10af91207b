package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"salesassist/api"
	"salesassist/config"
	"salesassist/ui"
)

const (
	Version = "v0.1.0"

	// Chat requests wait for the assistant, which may run several queries.
	requestTimeout = 2 * time.Minute
)

func showError(title, message string) {
	p := tea.NewProgram(
		ui.NewErrorModal(title, message),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		showError("Configuration Error", fmt.Sprintf(
			"%v\n\nFix %s or the SALESASSIST_URL environment variable and start again.",
			err, config.GetSettingsFilePath()))
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(config.GetCacheDir())

	client, err := api.NewClient(cfg.BackendURL, &http.Client{Timeout: requestTimeout})
	if err != nil {
		showError("Configuration Error", err.Error())
		os.Exit(1)
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("salesassist %s, backend %s", Version, client.BaseURL())
	}

	p := tea.NewProgram(
		ui.NewAppView(cfg, client),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running salesassist: %v\n", err)
		os.Exit(1)
	}
}
