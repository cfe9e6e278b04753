package model

import "time"

// ImportSource tracks one committed import batch.
type ImportSource struct {
	ImportDate        time.Time
	SourceName        string
	Filename          string
	ID                int64
	TotalRecords      int
	ImportedRecords   int
	DuplicateRecords  int
	BrokenRecords     int
	DNCBlockedRecords int
}
