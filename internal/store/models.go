package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Priority is the normalized urgency of a call record.
type Priority string

const (
	PriorityUnknown      Priority = "unknown"
	PriorityNonEmergency Priority = "non_emergency"
	PriorityLow          Priority = "low"
	PriorityMedium       Priority = "medium"
	PriorityHigh         Priority = "high"
)

// SourceFile tracks one downloaded call record file and how far ingestion
// has progressed through it.
//
// LastProcessedLine is a 1-based data-row offset (header excluded). It only
// ever advances, and only together with the insert of the record at that
// line, so a restarted run can resume from it without losing or duplicating
// records.
type SourceFile struct {
	ID                    uuid.UUID
	URI                   string
	LastProcessedLine     int64
	LastProcessedRecordID pgtype.Text
	CreatedAt             time.Time
}

// CallRecord is one normalized police call. NaturalKey is the source
// system's own call identifier and is unique across all stored records.
type CallRecord struct {
	ID          uuid.UUID
	NaturalKey  string
	CallTime    time.Time
	Priority    Priority
	District    string
	Description string
	Address     string
	Latitude    float64
	Longitude   float64
	CreatedAt   time.Time
}
