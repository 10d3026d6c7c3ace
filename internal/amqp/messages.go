package amqp

import (
	"encoding/json"
	"time"

	"obras/internal/core"
)

// Op names the kind of mutation a message announces.
type Op string

const (
	OpCreate   Op = "create"
	OpBatch    Op = "batch"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpCascade  Op = "cascade"
	OpSettings Op = "settings"
	OpImport   Op = "import"
	OpReset    Op = "reset"
)

// MutationMessage announces a committed store mutation. It carries only
// coordinates, not row data: consumers reload the snapshot and recompute
// whatever they derive from it.
type MutationMessage struct {
	Table     core.Table `json:"table,omitempty"`
	Op        Op         `json:"op"`
	RecordID  string     `json:"recordId,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewMutationMessage builds a message stamped with the current time.
func NewMutationMessage(table core.Table, op Op, recordID string) *MutationMessage {
	return &MutationMessage{
		Table:     table,
		Op:        op,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON parses a message from JSON bytes.
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
