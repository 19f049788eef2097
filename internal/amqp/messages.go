package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage tells consumers the ledger changed and which month the
// change touched.
type RefreshMessage struct {
	Event     string    `json:"event"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRefreshMessage(month string) RefreshMessage {
	return RefreshMessage{
		Event:     "ledger.refresh",
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (m RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (RefreshMessage, error) {
	var m RefreshMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
