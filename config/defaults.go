package config

func DefaultSettings() *Settings {
	return &Settings{
		Backend: BackendConfig{
			URL: defaultBackendURL,
		},
		Display: DisplayConfig{
			ShowQueries:  false,
			SidebarWidth: defaultSidebarWidth,
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# Sales Assistant Configuration
# Location: ~/.config/salesassist/settings.toml
# This file uses TOML format: https://toml.io

[backend]
# Base URL of the sales assistant backend (serves /api/chat, /api/conversations)
# Can be overridden with SALESASSIST_URL
url = "http://localhost:5000"

[display]
# Expand SQL queries attached to results by default
show_queries = false

# Width of the conversation sidebar in columns (minimum 20)
sidebar_width = 32
`
}
