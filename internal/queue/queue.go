// Package queue carries pipeline events over an at-least-once channel.
//
// Publishing goes to a named topic; consumers receive Messages and settle
// each one with a Disposition once the work it describes is done.
package queue

import "context"

// Publisher publishes payloads to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Disposition tells the channel what to do with a received message.
type Disposition int

const (
	// Ack removes the message; the work it described is finished.
	Ack Disposition = iota
	// Reject removes a message that can never succeed.
	Reject
	// Retry leaves the message in place so the channel redelivers it.
	Retry
)

func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Reject:
		return "reject"
	case Retry:
		return "retry"
	}
	return "unknown"
}

// Message is one delivery from the channel.
type Message struct {
	ID            string
	Body          []byte
	ReceiveCount  int
	receiptHandle string
}
