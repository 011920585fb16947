package amqp

import (
	"testing"
	"time"
)

func TestItemChangedMessageRoundTrip(t *testing.T) {
	msg := NewItemChangedMessage("user-1", "item-1", OpUpdated)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ItemChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.UserID != "user-1" || got.ItemID != "item-1" || got.Op != OpUpdated {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestNewItemChangedMessageStampsTime(t *testing.T) {
	before := time.Now()
	msg := NewItemChangedMessage("u", "i", OpCreated)
	after := time.Now()

	if msg.Timestamp.Before(before) || msg.Timestamp.After(after) {
		t.Errorf("Timestamp = %v, want between %v and %v", msg.Timestamp, before, after)
	}
}

func TestItemChangedMessageFromJSONInvalid(t *testing.T) {
	if _, err := ItemChangedMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
