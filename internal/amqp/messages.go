package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReminderMessage is the payload published to the reminder queue. A push
// worker on the other side turns it into a platform notification; the tag
// lets it collapse repeats for the same book.
type ReminderMessage struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Tag       string         `json:"tag"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewReminderMessage builds a queue message for one user's reminder.
func NewReminderMessage(userID, title, body, tag string, data map[string]any) *ReminderMessage {
	return &ReminderMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Tag:       tag,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes.
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
