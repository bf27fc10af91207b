package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to the sales assistant backend. There is deliberately no
// request timeout; a hung call only blocks the flow that issued it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListConversations calls GET /api/conversations.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var out conversationList
	if err := c.doJSON(ctx, "list conversations", http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetConversation calls GET /api/conversations/{id}.
func (c *Client) GetConversation(ctx context.Context, id ID) (*Conversation, error) {
	var out Conversation
	if err := c.doJSON(ctx, "get conversation", http.MethodGet, conversationPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation calls DELETE /api/conversations/{id}. Any 2xx is success.
func (c *Client) DeleteConversation(ctx context.Context, id ID) error {
	return c.doJSON(ctx, "delete conversation", http.MethodDelete, conversationPath(id), nil, nil)
}

// Chat calls POST /api/chat. A non-2xx response with a decodable body comes
// back as *ChatError; anything that prevents reading a response is a
// *TransportError.
func (c *Client) Chat(ctx context.Context, message string, conversationID ID) (*ChatResponse, error) {
	const op = "chat"

	status, body, err := c.do(ctx, op, http.MethodPost, "/api/chat", ChatRequest{
		Message:        message,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		var failure ChatFailure
		if err := json.Unmarshal(body, &failure); err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("decode error response (status %d): %w", status, err)}
		}
		return nil, &ChatError{StatusCode: status, Failure: failure}
	}

	var out ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// Rerun calls POST /api/chat/rerun. Only the status matters; callers refetch
// the conversation afterwards.
func (c *Client) Rerun(ctx context.Context, conversationID ID, messageIndex int, newMessage string) error {
	return c.doJSON(ctx, "rerun", http.MethodPost, "/api/chat/rerun", RerunRequest{
		ConversationID: conversationID,
		MessageIndex:   messageIndex,
		NewMessage:     newMessage,
	}, nil)
}

func conversationPath(id ID) string {
	return "/api/conversations/" + url.PathEscape(id.String())
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	status, body, err := c.do(ctx, op, method, path, in)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		se := &StatusError{Op: op, StatusCode: status, Body: body}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			se.Message = payload.Error
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	return resp.StatusCode, body, nil
}
