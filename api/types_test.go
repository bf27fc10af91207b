package api

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`"abc-123"`, "abc-123"},
		{`17`, "17"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if id != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, id, tt.want)
		}
	}

	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("object id should be rejected")
	}
}

func TestIDMarshal(t *testing.T) {
	b, _ := json.Marshal(ChatRequest{Message: "m"})
	if string(b) != `{"message":"m","conversation_id":null}` {
		t.Errorf("got %s", b)
	}
	b, _ = json.Marshal(ChatRequest{Message: "m", ConversationID: "x"})
	if string(b) != `{"message":"m","conversation_id":"x"}` {
		t.Errorf("got %s", b)
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"<b>", "<b>"},
		{float64(3), "3"},
		{1234.5, "1234.5"},
		{true, "true"},
		{[]any{"a", float64(1)}, `["a",1]`},
	}
	for _, tt := range tests {
		if got := CellText(tt.in); got != tt.want {
			t.Errorf("CellText(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChatFailureCritical(t *testing.T) {
	f := false
	if (ChatFailure{IsCritical: &f}).Critical() {
		t.Error("is_critical=false must be recoverable")
	}
	if !(ChatFailure{}).Critical() {
		t.Error("absent is_critical must be critical")
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2026-10-18T10:11:12.123456",
		"2026-10-18T10:11:12",
		"2026-10-18T10:11:12Z",
		"2026-10-18T10:11:12+02:00",
	} {
		if _, ok := ParseTimestamp(s); !ok {
			t.Errorf("ParseTimestamp(%q) failed", s)
		}
	}
	if _, ok := ParseTimestamp("yesterday"); ok {
		t.Error("garbage should not parse")
	}
}
