package amqp

import (
	"encoding/json"
	"time"
)

// Item change operations carried on the wire.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ItemChangedMessage announces that a user's budget collection changed.
// It is deliberately lightweight: consumers re-materialize the snapshot from
// storage rather than trusting payload data, so a stale or re-delivered
// message can never push stale items into a view.
type ItemChangedMessage struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewItemChangedMessage(userID, itemID, op string) *ItemChangedMessage {
	return &ItemChangedMessage{
		UserID:    userID,
		ItemID:    itemID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *ItemChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ItemChangedMessageFromJSON(data []byte) (*ItemChangedMessage, error) {
	var msg ItemChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
