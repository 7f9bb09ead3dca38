package amqp

import (
	"encoding/json"
	"time"
)

// DataChangedMessage tells running dashboards that backend data moved on.
// It carries no payload beyond what changed; dashboards reload on demand.
type DataChangedMessage struct {
	Source    string    `json:"source"`
	Resources []string  `json:"resources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDataChangedMessage stamps a notification with the current time.
func NewDataChangedMessage(source string, resources ...string) *DataChangedMessage {
	return &DataChangedMessage{
		Source:    source,
		Resources: resources,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DataChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DataChangedMessageFromJSON decodes a notification.
func DataChangedMessageFromJSON(data []byte) (*DataChangedMessage, error) {
	var msg DataChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
