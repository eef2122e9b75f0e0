package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseRecordedMessage announces a newly recorded expense. Consumers get
// the id plus the categorization outcome; the full row lives in the ledger.
type ExpenseRecordedMessage struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"` // "manual" or "feed"
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseRecordedMessage(id int64, category string, price float64, source string) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:        id,
		Category:  category,
		Price:     price,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
