package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", srv.Client())
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("localhost:5000", nil)
	assert.Error(t, err)

	c, err := NewClient("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestListConversations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/conversations", r.URL.Path)
		io.WriteString(w, `{"conversations":[
			{"id":"abc","title":"Top customers","created_at":"2026-10-18T10:00:00","message_count":2},
			{"id":42,"title":"Stock","created_at":"2026-10-17T09:00:00Z","message_count":4}
		]}`)
	})

	convs, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, ID("abc"), convs[0].ID)
	assert.Equal(t, ID("42"), convs[1].ID, "numeric ids are kept in string form")
	assert.Equal(t, 4, convs[1].MessageCount)

	_, ok := convs[0].Created()
	assert.True(t, ok)
}

func TestGetConversation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conversations/a%2Fb", r.URL.EscapedPath())
		io.WriteString(w, `{"id":"a/b","messages":[
			{"role":"user","content":"hi"},
			{"role":"assistant","content":"**hello**","function_results":[
				{"type":"table","columns":["name","total"],"rows":[["Acme",12.5]],"row_count":1,"query":"SELECT 1"},
				{"type":"diagram","chart_type":"bar","labels":["a","b"],"datasets":[{"label":"x","data":[1,2]}],"title":"T"}
			]},
			{"role":"error","content":"boom","is_critical":true}
		]}`)
	})

	conv, err := c.GetConversation(context.Background(), "a/b")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)

	results := conv.Messages[1].FunctionResults
	require.Len(t, results, 2)
	assert.True(t, results[0].IsTable())
	assert.Equal(t, []string{"name", "total"}, results[0].Columns)
	assert.Equal(t, "12.5", CellText(results[0].Rows[0][1]))
	assert.True(t, results[1].IsDiagram())
	assert.Equal(t, []float64{1, 2}, results[1].Datasets[0].Data)
	assert.True(t, conv.Messages[2].IsCritical)
}

func TestGetConversationNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"Conversation missing"}`)
	})

	_, err := c.GetConversation(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Conversation missing", se.Message)
}

func TestDeleteConversation(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteConversation(context.Background(), "abc"))
	assert.True(t, called)
}

func TestChatSendsNullConversationID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "top customers", body["message"])
		v, present := body["conversation_id"]
		assert.True(t, present, "conversation_id must always be sent")
		assert.Nil(t, v)

		io.WriteString(w, `{"conversation_id":"new-id","message":"Here you go","function_results":[]}`)
	})

	resp, err := c.Chat(context.Background(), "top customers", "")
	require.NoError(t, err)
	assert.Equal(t, ID("new-id"), resp.ConversationID)
	assert.Equal(t, "Here you go", resp.Message)
}

func TestChatFailureClassification(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantCritical bool
		wantID       ID
	}{
		{"explicit recoverable", `{"error":"Rate limit reached","is_critical":false,"conversation_id":"c1"}`, false, "c1"},
		{"explicit critical", `{"error":"boom","is_critical":true}`, true, ""},
		{"missing flag is critical", `{"error":"boom"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, tt.body)
			})

			_, err := c.Chat(context.Background(), "x", "c1")
			var ce *ChatError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.wantCritical, ce.Critical())
			assert.Equal(t, tt.wantID, ce.Failure.ConversationID)
			assert.False(t, IsTransport(err))
		})
	}
}

func TestChatUndecodableErrorIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.Chat(context.Background(), "x", "")
	assert.True(t, IsTransport(err))
}

func TestChatConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, nil)
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "x", "")
	assert.True(t, IsTransport(err))
}

func TestRerun(t *testing.T) {
	var got RerunRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/rerun", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"conversation_id":"c1","message":"ok"}`)
	})

	require.NoError(t, c.Rerun(context.Background(), "c1", 2, "edited"))
	assert.Equal(t, RerunRequest{ConversationID: "c1", MessageIndex: 2, NewMessage: "edited"}, got)
}

func TestRerunNonOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := c.Rerun(context.Background(), "c1", 0, "edited")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}
