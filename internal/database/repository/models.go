package repository

import "time"

// Journal statuses.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// JournalEntry is one received directive.
type JournalEntry struct {
	ID             string
	Seq            int64
	ReceivedAt     time.Time
	Kind           string
	Active         string
	Payload        []byte
	Status         string
	Transition     string
	Error          string
	CreatedCount   int
	DestroyedCount int
}

// ContainerRow is one container of a stored snapshot.
type ContainerRow struct {
	Identity string
	Position int
	ServedID string
	Title    string
	Icon     string
	Path     string
	Selected bool
}

// DeprecationRow is one deprecation tracking entry of a stored snapshot.
type DeprecationRow struct {
	ServedID         string
	Level            string
	ReplacementID    *string
	ReplacementTitle *string
	ReplacementIcon  *string
	ReplacementPath  *string
}

// Snapshot is the persisted engine state.
type Snapshot struct {
	SavedAt      time.Time
	JournalSeq   int64
	Containers   []ContainerRow
	Deprecations []DeprecationRow
}
