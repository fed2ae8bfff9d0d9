// Package services provides external service integrations and technical concerns like messaging, form tokens, and the order ledger
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/utils"
)

// maxMessagesPerRequest is the Messaging API cap per reply/push call.
const maxMessagesPerRequest = 5

// Message is one LINE message payload, already in wire shape.
type Message map[string]any

// NewTextMessage builds a plain text message.
func NewTextMessage(text string) Message {
	return Message{
		"type": "text",
		"text": text,
	}
}

// NewFlexMessage builds a flex message around a bubble or carousel
// container.
func NewFlexMessage(altText string, contents map[string]any) Message {
	return Message{
		"type":     "flex",
		"altText":  altText,
		"contents": contents,
	}
}

// LineClient sends reply and push messages through the Messaging API.
type LineClient interface {
	Reply(ctx context.Context, replyToken string, messages ...Message) error
	Push(ctx context.Context, to string, messages ...Message) error
}

// LineClientImpl implements LineClient
type LineClientImpl struct {
	config *config.LineConfig
	client *http.Client
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

// NewLineClient creates a new Messaging API client instance
func NewLineClient(cfg *config.LineConfig) LineClient {
	return &LineClientImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Reply answers an inbound event; each reply token works exactly once.
func (s *LineClientImpl) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if replyToken == "" {
		return fmt.Errorf("reply token is empty")
	}
	if len(messages) == 0 {
		return nil
	}
	if err := validateBatch(messages); err != nil {
		return err
	}
	return s.post(ctx, "/v2/bot/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
}

// Push sends messages to a user outside the reply window.
func (s *LineClientImpl) Push(ctx context.Context, to string, messages ...Message) error {
	if to == "" {
		return fmt.Errorf("push recipient is empty")
	}
	if len(messages) == 0 {
		return nil
	}
	if err := validateBatch(messages); err != nil {
		return err
	}
	return s.post(ctx, "/v2/bot/message/push", pushRequest{
		To:       to,
		Messages: messages,
	})
}

func (s *LineClientImpl) post(ctx context.Context, path string, payload any) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal LINE request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.ChannelToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send LINE request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("LINE API %s returned %d: %s", path, resp.StatusCode, string(snippet))
	}
	return nil
}

// validateBatch enforces the per-call message cap before hitting the API.
func validateBatch(messages []Message) error {
	if len(messages) > maxMessagesPerRequest {
		return fmt.Errorf("at most %d messages per request, got %d", maxMessagesPerRequest, len(messages))
	}
	return nil
}

// MockLineClient implements LineClient for testing
type MockLineClient struct {
	Replies []MockLineReply
	Pushes  []MockLinePush
	Err     error
}

// MockLineReply represents one recorded reply call
type MockLineReply struct {
	ReplyToken string
	Messages   []Message
	SentAt     time.Time
}

// MockLinePush represents one recorded push call
type MockLinePush struct {
	To       string
	Messages []Message
	SentAt   time.Time
}

// NewMockLineClient creates a new mock Messaging API client
func NewMockLineClient() LineClient {
	return &MockLineClient{
		Replies: make([]MockLineReply, 0),
		Pushes:  make([]MockLinePush, 0),
	}
}

// Reply records a mock reply
func (m *MockLineClient) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Replies = append(m.Replies, MockLineReply{
		ReplyToken: replyToken,
		Messages:   messages,
		SentAt:     utils.UTCNow(),
	})
	return nil
}

// Push records a mock push
func (m *MockLineClient) Push(ctx context.Context, to string, messages ...Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Pushes = append(m.Pushes, MockLinePush{
		To:       to,
		Messages: messages,
		SentAt:   utils.UTCNow(),
	})
	return nil
}

// GetReplies returns all recorded replies
func (m *MockLineClient) GetReplies() []MockLineReply {
	return m.Replies
}

// GetPushes returns all recorded pushes
func (m *MockLineClient) GetPushes() []MockLinePush {
	return m.Pushes
}

// ClearSentMessages clears the recorded replies and pushes
func (m *MockLineClient) ClearSentMessages() {
	m.Replies = make([]MockLineReply, 0)
	m.Pushes = make([]MockLinePush, 0)
}
