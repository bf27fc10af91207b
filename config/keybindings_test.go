package config

import "testing"

func TestGetActionKey(t *testing.T) {
	kb := DefaultKeybindings()

	tests := []struct {
		action string
		want   string
	}{
		{"new_chat", "alt+n"},
		{"half_page_down", "alt+J"},
		{"sidebar_delete", "d"},
		{"edit_save", "ctrl+s"},
		{"does_not_exist", ""},
	}
	for _, tt := range tests {
		if got := kb.GetActionKey(tt.action); got != tt.want {
			t.Errorf("GetActionKey(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestGetActionKeyOverride(t *testing.T) {
	kb := DefaultKeybindings()
	kb.Actions = map[string]string{"new_chat": "ctrl+t"}

	if got := kb.GetActionKey("new_chat"); got != "ctrl+t" {
		t.Errorf("override ignored: got %q", got)
	}
	if got := kb.DisplayActionKey("new_chat"); got != "Ctrl+T" {
		t.Errorf("DisplayActionKey: got %q", got)
	}
}

func TestCtrlModifiers(t *testing.T) {
	kb := &KeyBindingsConfig{Modifiers: ModifierConfig{Primary: "ctrl", Secondary: "ctrl+shift"}}
	if got := kb.GetActionKey("export_html"); got != "ctrl+x" {
		t.Errorf("got %q", got)
	}
	ok, warning := kb.Validate()
	if !ok || warning == "" {
		t.Errorf("ctrl should validate with a warning, got ok=%v warning=%q", ok, warning)
	}

	kb.Modifiers.Primary = "shift"
	if ok, _ := kb.Validate(); ok {
		t.Error("shift alone must be rejected")
	}
}
