package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"insights/internal/core"
)

// QueryRoutedMessage carries one query audit record to the worker.
type QueryRoutedMessage struct {
	ID        string          `json:"id"`
	Audit     core.QueryAudit `json:"audit"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewQueryRoutedMessage wraps audit, assigning it an event id when it has none.
// The message id and the audit id are always the same.
func NewQueryRoutedMessage(audit core.QueryAudit) *QueryRoutedMessage {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	return &QueryRoutedMessage{
		ID:        audit.ID,
		Audit:     audit,
		Timestamp: time.Now(),
	}
}

func (m *QueryRoutedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// QueryRoutedMessageFromJSON decodes a message and rejects ones without an id.
func QueryRoutedMessageFromJSON(data []byte) (*QueryRoutedMessage, error) {
	var msg QueryRoutedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message has no id")
	}
	if msg.Audit.ID == "" {
		msg.Audit.ID = msg.ID
	}
	return &msg, nil
}
