package model

import "time"

// InboundMessage is one text message received from the chat transport.
type InboundMessage struct {
	SenderID  string
	Text      string
	Timestamp time.Time
}

// RenderedMessage is a formatted notification ready for delivery. DedupKey
// identifies logically identical messages within a time bucket so retries
// never reach the transport twice.
type RenderedMessage struct {
	Text            string
	TargetChannelID string
	DedupKey        string
}
