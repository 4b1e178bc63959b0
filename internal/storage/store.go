package storage

import "time"

// ActionRecord is one completed rep action kept for coaching review.
// It is an audit copy only: the system of record for every outcome is
// the remote gateway.
type ActionRecord struct {
	UserID      string    `json:"userId" dynamodbav:"UserID"`
	Timestamp   time.Time `json:"timestamp" dynamodbav:"Timestamp"`
	ItemID      string    `json:"itemId" dynamodbav:"ItemID"`
	ActionType  string    `json:"actionType" dynamodbav:"ActionType"`
	Outcome     string    `json:"outcome" dynamodbav:"Outcome"` // accepted | dismissed | snoozed | disposition code
	Disposition string    `json:"disposition,omitempty" dynamodbav:"Disposition,omitempty"`
	Category    string    `json:"category,omitempty" dynamodbav:"Category,omitempty"`
	RecordID    string    `json:"recordId,omitempty" dynamodbav:"RecordID,omitempty"`
	RecordName  string    `json:"recordName,omitempty" dynamodbav:"RecordName,omitempty"`
}

// Store defines the storage interface
type Store interface {
	SaveActionRecord(record ActionRecord) error
	GetActionHistory(userID string, limit int) ([]ActionRecord, error)
	TruncateAll() error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveActionRecord(_ ActionRecord) error { return nil }
func (s *NoopStore) GetActionHistory(_ string, _ int) ([]ActionRecord, error) {
	return nil, nil
}
func (s *NoopStore) TruncateAll() error { return nil }
