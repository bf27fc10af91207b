package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a server-assigned conversation identifier. The backend may send it as
// a JSON string or number; it is always handled in its string form. The zero
// value means "no conversation" and marshals as null.
type ID string

func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("conversation id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Role values of a Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"
)

// Result type tags.
const (
	ResultTable   = "table"
	ResultDiagram = "diagram"
	ResultError   = "error"
	ResultText    = "text"
)

// Chart types the backend is known to emit.
const (
	ChartBar       = "bar"
	ChartLine      = "line"
	ChartPie       = "pie"
	ChartDoughnut  = "doughnut"
	ChartPolarArea = "polarArea"
	ChartRadar     = "radar"
	ChartScatter   = "scatter"
	ChartBubble    = "bubble"
)

type ConversationSummary struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
	MessageCount int    `json:"message_count"`
}

// Created parses CreatedAt. The backend emits ISO-8601 with or without a zone.
func (c ConversationSummary) Created() (time.Time, bool) {
	return ParseTimestamp(c.CreatedAt)
}

type Conversation struct {
	ID        ID        `json:"id,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role            string   `json:"role"`
	Content         string   `json:"content"`
	FunctionResults []Result `json:"function_results,omitempty"`
	IsCritical      bool     `json:"is_critical,omitempty"`
}

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Result is a structured payload attached to an assistant message. Type
// selects which of the remaining fields are meaningful.
type Result struct {
	Type string `json:"type"`

	// table
	Columns   []string `json:"columns,omitempty"`
	Rows      [][]any  `json:"rows,omitempty"`
	RowCount  int      `json:"row_count,omitempty"`
	TableName string   `json:"table_name,omitempty"`

	// diagram
	ChartType string    `json:"chart_type,omitempty"`
	Labels    []any     `json:"labels,omitempty"`
	Datasets  []Dataset `json:"datasets,omitempty"`
	Title     string    `json:"title,omitempty"`

	// error
	Error string `json:"error,omitempty"`

	// table and error
	Query string `json:"query,omitempty"`

	// text (schema dumps); never rendered
	Content string `json:"content,omitempty"`
}

func (r Result) IsTable() bool   { return r.Type == ResultTable }
func (r Result) IsDiagram() bool { return r.Type == ResultDiagram }
func (r Result) IsError() bool   { return r.Type == ResultError }

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID ID     `json:"conversation_id"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	ConversationID  ID       `json:"conversation_id"`
	Message         string   `json:"message"`
	FunctionResults []Result `json:"function_results,omitempty"`
}

// ChatFailure is the error body of POST /api/chat. A missing is_critical
// counts as critical.
type ChatFailure struct {
	Error          string `json:"error"`
	IsCritical     *bool  `json:"is_critical,omitempty"`
	ConversationID ID     `json:"conversation_id,omitempty"`
}

func (f ChatFailure) Critical() bool {
	return f.IsCritical == nil || *f.IsCritical
}

// RerunRequest is the body of POST /api/chat/rerun.
type RerunRequest struct {
	ConversationID ID     `json:"conversation_id"`
	MessageIndex   int    `json:"message_index"`
	NewMessage     string `json:"new_message"`
}

type conversationList struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// CellText stringifies a table cell the way a browser would print it.
func CellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case json.Number:
		return c.String()
	case bool:
		return strconv.FormatBool(c)
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprint(c)
		}
		return string(b)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts the ISO-8601 variants the backend produces. Naive
// timestamps are interpreted in local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
