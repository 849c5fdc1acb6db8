package amqp

import (
	"encoding/json"
	"time"

	"tally/internal/expense"
)

// ExpenseChangeMessage tells consumers that an expense was created,
// updated or deleted. Consumers re-read the collection for details.
type ExpenseChangeMessage struct {
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangeMessage(c expense.Change) *ExpenseChangeMessage {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &ExpenseChangeMessage{Op: c.Op, ID: c.ID, Timestamp: ts}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON creates a message from JSON bytes
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
