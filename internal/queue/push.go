package queue

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// PushEnvelope is the body of a Pub/Sub style push delivery.
type PushEnvelope struct {
	Message struct {
		Data       string            `json:"data"`
		MessageID  string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// ErrNoMessage is returned for a push body without a message.
var ErrNoMessage = errors.New("no message found")

// Decode returns the envelope's payload as a Message.
func (e *PushEnvelope) Decode() (Message, error) {
	if e.Message.Data == "" && e.Message.MessageID == "" {
		return Message{}, ErrNoMessage
	}
	data, err := base64.StdEncoding.DecodeString(e.Message.Data)
	if err != nil {
		return Message{}, fmt.Errorf("invalid message data: %w", err)
	}
	return Message{ID: e.Message.MessageID, Body: data}, nil
}
