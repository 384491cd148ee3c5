package amqp

import (
	"encoding/json"
	"time"

	"outgo/internal/services"
)

// ImportReportMessage carries a finished CSV import batch to the worker.
// It embeds the full report rather than just the batch ID so the worker can
// run without database access.
type ImportReportMessage struct {
	BatchID   string                `json:"batch_id"`
	UserID    int64                 `json:"user_id"`
	Imported  int                   `json:"imported"`
	Skipped   []services.SkippedRow `json:"skipped"`
	Timestamp time.Time             `json:"timestamp"`
}

func NewImportReportMessage(report services.ImportReport) *ImportReportMessage {
	return &ImportReportMessage{
		BatchID:   report.BatchID,
		UserID:    report.UserID,
		Imported:  report.Imported,
		Skipped:   report.Skipped,
		Timestamp: report.When,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportReportMessageFromJSON creates a message from JSON bytes
func ImportReportMessageFromJSON(data []byte) (*ImportReportMessage, error) {
	var msg ImportReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
