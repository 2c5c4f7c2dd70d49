package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage is a lightweight pointer to a ledger transaction that
// needs mirroring. The worker fetches the full record from the database.
type LedgerSyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(id string) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
