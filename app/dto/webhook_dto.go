package dto

// WebhookRequest is the LINE Messaging API webhook envelope.
type WebhookRequest struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events"`
}

// WebhookEvent is one event in a webhook delivery. Message and
// postback are set for their event types only.
type WebhookEvent struct {
	Type       string         `json:"type"`
	Timestamp  int64          `json:"timestamp"`
	ReplyToken string         `json:"replyToken,omitempty"`
	Source     *EventSource   `json:"source,omitempty"`
	Message    *EventMessage  `json:"message,omitempty"`
	Postback   *EventPostback `json:"postback,omitempty"`
}

// EventSource identifies the sender of an event.
type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

// EventMessage is the message payload; only text messages are handled.
type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// EventPostback is the postback payload.
type EventPostback struct {
	Data string `json:"data"`
}

// IncomingMessage is a text message event flattened for the business
// flows.
type IncomingMessage struct {
	UserID     string `json:"user_id"`
	ReplyToken string `json:"reply_token"`
	Text       string `json:"text"`
}

// IncomingPostback is a postback event flattened for the business
// flows.
type IncomingPostback struct {
	UserID     string `json:"user_id"`
	ReplyToken string `json:"reply_token"`
	Data       string `json:"data"`
}
