package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/prom"
	"github.com/valyala/fasthttp"
)

var (
	ErrMissingToken = errors.New("provider api token is required")
	ErrMissingURL   = errors.New("provider api url is required")
)

const (
	ServiceIMessage = "iMessage"
	ServiceSMS      = "SMS"
	ServiceRCS      = "RCS"
)

// Handle is one participant of a provider chat.
type Handle struct {
	Handle  string `json:"handle"`
	ID      string `json:"id"`
	IsMe    bool   `json:"is_me"`
	Service string `json:"service"`
	Status  string `json:"status"`
}

// Chat is one provider conversation.
type Chat struct {
	ID        string   `json:"id"`
	Handles   []Handle `json:"handles"`
	Service   string   `json:"service"`
	IsGroup   bool     `json:"is_group"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// MessagePart is one part of a chat message; only text parts matter here.
type MessagePart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ChatMessage is one message inside a provider chat.
type ChatMessage struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chat_id"`
	From      string        `json:"from"`
	Parts     []MessagePart `json:"parts"`
	CreatedAt time.Time     `json:"created_at"`
}

// Text joins the message's text parts.
func (m ChatMessage) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type != "text" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p.Value
	}
	return out
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MaxConns   int
}

// Client talks to the Linq-style messaging provider. One chat per contact;
// creating a chat with a message body dispatches it.
type Client struct {
	config *Config
	http   *fasthttp.Client
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, ErrMissingURL
	}
	if config.Token == "" {
		return nil, ErrMissingToken
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 64
	}

	client := &Client{
		config: config,
		http: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}

	logger.Info("messenger client initialized", "url", config.BaseURL, "timeout", config.Timeout)

	return client, nil
}

type createChatRequest struct {
	From    string             `json:"from"`
	To      []string           `json:"to"`
	Message *createChatMessage `json:"message,omitempty"`
}

type createChatMessage struct {
	Parts []MessagePart `json:"parts"`
}

// CreateChat opens (or reuses) a conversation from a sending line to a
// contact phone. A non-empty message is dispatched in the same call.
func (c *Client) CreateChat(ctx context.Context, fromPhone, toPhone, message string) (*Chat, error) {
	body := createChatRequest{
		From: fromPhone,
		To:   []string{toPhone},
	}
	if message != "" {
		body.Message = &createChatMessage{
			Parts: []MessagePart{{Type: "text", Value: message}},
		}
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	response, err := c.doWithRetry(ctx, "create_chat", "POST", "/chats", reqBody)
	if err != nil {
		return nil, err
	}

	var chat Chat
	if err := json.Unmarshal(response, &chat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &chat, nil
}

// GetMessages returns the most recent messages of a chat, newest last.
func (c *Client) GetMessages(ctx context.Context, chatID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/chats/%s/messages?limit=%d", chatID, limit)

	response, err := c.doWithRetry(ctx, "get_messages", "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(response, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return payload.Messages, nil
}

// RecipientService returns the messaging service of the chat's non-me
// handle, or "" when the provider did not report one.
func RecipientService(chat *Chat) string {
	if chat == nil {
		return ""
	}
	for _, h := range chat.Handles {
		if !h.IsMe {
			return h.Service
		}
	}
	return ""
}

// doWithRetry wraps doRequest with the fixed retry budget. Context
// cancellation wins over the budget.
func (c *Client) doWithRetry(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		startTime := time.Now()
		response, err := c.doRequest(ctx, method, path, body)
		latency := time.Since(startTime)

		if err != nil {
			prom.IncProviderError(op)
			logger.Warn("provider request failed", "op", op, "error", err, "attempt", attempt+1)
			lastErr = err
			continue
		}

		prom.ObserveProviderDuration(op, latency.Seconds())
		return response, nil
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusCreated {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}
